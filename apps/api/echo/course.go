package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/course"
)

type courseApi struct {
	svc      course.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, session echo.MiddlewareFunc, svc course.ServiceInterface, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	cg := g.Group("/klassen", session)
	cg.GET("", api.query)
	cg.POST("", api.create, staff)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, staff)
	cg.DELETE("/:id", api.destroy, staff)

	cg.GET("/:id/members", api.members)
	cg.POST("/:id/members", api.addMembers, staff)
	cg.DELETE("/:id/members/:userId", api.removeMember, staff)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	courses, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return listJSON(ctx, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) members(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	users, err := api.svc.Members(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying course members")
	}
	return listJSON(ctx, users)
}

func (api *courseApi) addMembers(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data course.Members
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Members")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.AddMembers(ctx.Request().Context(), id, data.UserIDs...)
	if err != nil {
		return errors.Wrap(err, "adding course members")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) removeMember(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}

	c, err := api.svc.RemoveMembers(ctx.Request().Context(), id, userID)
	if err != nil {
		return errors.Wrap(err, "removing course member")
	}
	return ctx.JSON(http.StatusOK, c)
}
