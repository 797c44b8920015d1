package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/question"
)

type questionApi struct {
	svc      question.ServiceInterface
	validate *validator.Validate
}

func registerQuestionAPI(g *echo.Group, session echo.MiddlewareFunc, svc question.ServiceInterface, validate *validator.Validate) {
	api := questionApi{svc: svc, validate: validate}
	staff := staffMiddleware()

	qg := g.Group("/question", session)
	qg.GET("", api.query)
	qg.POST("", api.create, staff)
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update, staff)
	qg.DELETE("/:id", api.destroy, staff)

	// questionnaire of a project
	pg := qg.Group("/project/:projectId")
	pg.GET("", api.projectQuestions)
	pg.PUT("", api.setProjectQuestions, staff)
	pg.POST("/submit", api.submit)
	pg.GET("/status", api.status)
	pg.GET("/answers", api.answers, staff)
}

func (api *questionApi) query(ctx echo.Context) error {
	filter := new(question.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	questions, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return listJSON(ctx, questions)
}

func (api *questionApi) create(ctx echo.Context) error {
	var data question.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *questionApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	q, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data question.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *questionApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *questionApi) projectQuestions(ctx echo.Context) error {
	projectID, err := paramID(ctx, "projectId")
	if err != nil {
		return err
	}
	questions, err := api.svc.ProjectQuestions(ctx.Request().Context(), projectID)
	if err != nil {
		return errors.Wrap(err, "querying project questions")
	}
	return listJSON(ctx, questions)
}

func (api *questionApi) setProjectQuestions(ctx echo.Context) error {
	projectID, err := paramID(ctx, "projectId")
	if err != nil {
		return err
	}
	var data question.ProjectQuestions
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProjectQuestions")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	questions, err := api.svc.SetProjectQuestions(ctx.Request().Context(), projectID, data)
	if err != nil {
		return errors.Wrap(err, "setting project questions")
	}
	return listJSON(ctx, questions)
}

func (api *questionApi) submit(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	projectID, err := paramID(ctx, "projectId")
	if err != nil {
		return err
	}
	var data question.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.Submit(ctx.Request().Context(), claims.UserID(), projectID, data); err != nil {
		return errors.Wrap(err, "submitting answers")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *questionApi) status(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	projectID, err := paramID(ctx, "projectId")
	if err != nil {
		return err
	}

	answered, err := api.svc.HasAnswered(ctx.Request().Context(), projectID, claims.UserID())
	if err != nil {
		return errors.Wrap(err, "checking questionnaire status")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{Answered: answered})
}

func (api *questionApi) answers(ctx echo.Context) error {
	projectID, err := paramID(ctx, "projectId")
	if err != nil {
		return err
	}
	filter := new(question.AnswerFilter)
	if err = ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to AnswerFilter")
	}
	filter.ProjectID = projectID

	answers, err := api.svc.Answers(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying answers")
	}
	return listJSON(ctx, answers)
}

type StatusResponse struct {
	Answered bool `json:"answered"`
}
