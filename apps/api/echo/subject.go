package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/subject"
)

type subjectApi struct {
	svc      subject.ServiceInterface
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, session echo.MiddlewareFunc, svc subject.ServiceInterface, validate *validator.Validate) {
	api := subjectApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	sg := g.Group("/subject", session)
	sg.GET("", api.query)
	sg.POST("", api.create, staff)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, staff)
	sg.DELETE("/:id", api.destroy, staff)
}

func registerProjectSubjectAPI(g *echo.Group, session echo.MiddlewareFunc, svc subject.ServiceInterface, validate *validator.Validate) {
	api := subjectApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	pg := g.Group("/projectSubject", session)
	pg.GET("", api.queryProjectSubjects)
	pg.POST("", api.attach, staff)
	pg.GET("/:id", api.retrieveProjectSubject)
	pg.PUT("/:id", api.updateProjectSubject, staff)
	pg.DELETE("/:id", api.detach, staff)
}

// Subjects

func (api *subjectApi) query(ctx echo.Context) error {
	filter := new(subject.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Search = core.CleanString(filter.Search)

	subjects, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return listJSON(ctx, subjects)
}

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data subject.NewSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Project subjects

func (api *subjectApi) queryProjectSubjects(ctx echo.Context) error {
	filter := new(subject.ProjectSubjectFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to ProjectSubjectFilter")
	}

	pss, err := api.svc.QueryProjectSubjects(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying project subjects")
	}
	return listJSON(ctx, pss)
}

func (api *subjectApi) attach(ctx echo.Context) error {
	var data subject.NewProjectSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProjectSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ps, err := api.svc.Attach(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "attaching subject")
	}
	return ctx.JSON(http.StatusCreated, ps)
}

func (api *subjectApi) retrieveProjectSubject(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	ps, err := api.svc.GetProjectSubject(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *subjectApi) updateProjectSubject(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data subject.UpdateProjectSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProjectSubject")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ps, err := api.svc.UpdateProjectSubject(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating project subject")
	}
	return ctx.JSON(http.StatusOK, ps)
}

func (api *subjectApi) detach(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Detach(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "detaching subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}
