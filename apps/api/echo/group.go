package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/group"
)

type groupApi struct {
	svc      group.ServiceInterface
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, session echo.MiddlewareFunc, svc group.ServiceInterface, validate *validator.Validate) {
	api := groupApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	gg := g.Group("/group", session)
	gg.GET("", api.query)
	gg.POST("", api.create, staff)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update, staff)
	gg.DELETE("/:id", api.destroy, staff)

	gg.GET("/:id/members", api.members)
	gg.POST("/:id/members", api.addMembers, staff)
	gg.DELETE("/:id/members/:userId", api.removeMember, staff)
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := new(group.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	groups, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	return listJSON(ctx, groups)
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grp, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	grp, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data group.UpdateGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	grp, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) members(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	users, err := api.svc.Members(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying group members")
	}
	return listJSON(ctx, users)
}

func (api *groupApi) addMembers(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data group.Members
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Members")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	grp, err := api.svc.AddMembers(ctx.Request().Context(), id, data.UserIDs...)
	if err != nil {
		return errors.Wrap(err, "adding group members")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) removeMember(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}

	grp, err := api.svc.RemoveMembers(ctx.Request().Context(), id, userID)
	if err != nil {
		return errors.Wrap(err, "removing group member")
	}
	return ctx.JSON(http.StatusOK, grp)
}
