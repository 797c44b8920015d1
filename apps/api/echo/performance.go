package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/performance"
)

type performanceApi struct {
	svc      performance.ServiceInterface
	validate *validator.Validate
}

func registerPerformanceAPI(g *echo.Group, session echo.MiddlewareFunc, svc performance.ServiceInterface, validate *validator.Validate) {
	api := performanceApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	pg := g.Group("/performance", session)
	pg.GET("", api.query)
	pg.POST("", api.create, staff)
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id", api.update, staff)
	pg.DELETE("/:id", api.destroy, staff)
}

func (api *performanceApi) query(ctx echo.Context) error {
	filter := new(performance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	perfs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying performances")
	}
	return listJSON(ctx, perfs)
}

func (api *performanceApi) create(ctx echo.Context) error {
	var data performance.NewPerformance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPerformance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating performance")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *performanceApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	p, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *performanceApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data performance.NewPerformance
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPerformance")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating performance")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *performanceApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting performance")
	}
	return ctx.NoContent(http.StatusNoContent)
}
