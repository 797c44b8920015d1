package echoapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grade"
)

type gradeApi struct {
	svc      grade.ServiceInterface
	validate *validator.Validate
}

func registerGradeAPI(g *echo.Group, session echo.MiddlewareFunc, svc grade.ServiceInterface, validate *validator.Validate) {
	api := gradeApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	gg := g.Group("/grade", session)
	gg.GET("/me", api.mine)
	gg.GET("/overview/:projectId", api.loadOverview, staff)
	gg.PUT("/overview", api.saveOverview, staff)

	gg.GET("", api.query, staff)
	gg.POST("", api.create, staff)
	gg.GET("/:id", api.retrieve, staff)
	gg.PUT("/:id", api.update, staff)
	gg.DELETE("/:id", api.destroy, staff)
}

func (api *gradeApi) loadOverview(ctx echo.Context) error {
	projectID, err := paramID(ctx, "projectId")
	if err != nil {
		return err
	}
	var groupID int
	if v := ctx.QueryParam("group_id"); v != "" {
		if groupID, err = strconv.Atoi(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "group_id must be an integer")
		}
	}

	ov, err := api.svc.LoadOverview(ctx.Request().Context(), projectID, groupID)
	if err != nil {
		return errors.Wrap(err, "loading grade overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *gradeApi) saveOverview(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data []grade.StudentGrades
	if err = json.NewDecoder(ctx.Request().Body).Decode(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body must be a list of student grades").SetInternal(err)
	}
	if err = grade.ValidateOverviewUpdates(data); err != nil {
		return err
	}

	if err = api.svc.SaveOverview(ctx.Request().Context(), claims.UserID(), data); err != nil {
		return errors.Wrap(err, "saving grade overview")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// mine returns the grades of the authenticated user, optionally restricted by `?project_id=`.
func (api *gradeApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	filter := new(grade.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	grades, err := api.svc.Mine(ctx.Request().Context(), claims.UserID(), filter.ProjectID)
	if err != nil {
		return errors.Wrap(err, "querying own grades")
	}
	return listJSON(ctx, grades)
}

func (api *gradeApi) query(ctx echo.Context) error {
	filter := new(grade.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	grades, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return listJSON(ctx, grades)
}

func (api *gradeApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data grade.NewGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Create(ctx.Request().Context(), claims.UserID(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	g, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data grade.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	g, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating grade")
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}
