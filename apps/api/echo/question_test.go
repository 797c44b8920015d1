package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/project"
	"github.com/trezcool/gradebook/core/question"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

type questionnaireFixtures struct {
	teacher, john, jane, outsider user.User
	proj                          project.Project
	rating, feedback, unused      question.Question
}

// setupQuestionnaire configures 2 questions for a project whose only group holds John & Jane.
func setupQuestionnaire(t *testing.T, env *testutil.Env) questionnaireFixtures {
	var f questionnaireFixtures
	f.teacher = testutil.CreateUser(t, env.UserRepo, user.RoleTeacher, "mr.smith", "Will", "Smith")
	f.john = testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe")
	f.jane = testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "jane.doe", "Jane", "Doe")
	f.outsider = testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "max.muster", "Max", "Muster")

	c := testutil.CreateCourse(t, env, "10a", f.teacher.ID, f.john.ID, f.jane.ID, f.outsider.ID)
	f.proj = testutil.CreateProject(t, env, "Autumn", c.ID)
	testutil.CreateGroup(t, env, "Team A", f.proj.ID, f.john.ID, f.jane.ID)

	f.rating = testutil.CreateQuestion(t, env, "How well did your peer cooperate?", question.TypeGrade)
	f.feedback = testutil.CreateQuestion(t, env, "What could your peer improve?", question.TypeText)
	f.unused = testutil.CreateQuestion(t, env, "Unused", question.TypeText)
	if _, err := env.QuestionSvc.SetProjectQuestions(context.Background(), f.proj.ID, question.ProjectQuestions{
		QuestionIDs: []int{f.rating.ID, f.feedback.ID},
	}); err != nil {
		t.Fatal(err)
	}
	return f
}

func submission(rating, feedback question.Question, recipientID int, grade, text interface{}) question.Submission {
	return question.Submission{Questions: []question.SubmittedQuestion{
		{QuestionID: rating.ID, Answers: []question.SubmittedAnswer{{RecipientID: recipientID, Value: grade}}},
		{QuestionID: feedback.ID, Answers: []question.SubmittedAnswer{{RecipientID: recipientID, Value: text}}},
	}}
}

func Test_questionApi_projectQuestions(t *testing.T) {
	app, env := setup(t)
	f := setupQuestionnaire(t, env)
	path := fmt.Sprintf("/api/question/project/%d", f.proj.ID)

	tests := []httpTest{
		{name: "list", path: path, cookie: sessionCookie(t, env, f.john), wantData: marshallList(t, f.rating, f.feedback)},
		{
			name: "student cannot configure", method: http.MethodPut, path: path, cookie: sessionCookie(t, env, f.john),
			body: marshallObj(t, question.ProjectQuestions{}), wantCode: http.StatusForbidden,
		},
		{
			name: "unknown question", method: http.MethodPut, path: path, cookie: sessionCookie(t, env, f.teacher),
			body:     marshallObj(t, question.ProjectQuestions{QuestionIDs: []int{999}}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"question_ids": "question 999 does not exist"}),
		},
		{
			name: "reconfigure", method: http.MethodPut, path: path, cookie: sessionCookie(t, env, f.teacher),
			body:     marshallObj(t, question.ProjectQuestions{QuestionIDs: []int{f.unused.ID, f.rating.ID, f.rating.ID}}),
			wantData: marshallList(t, f.rating, f.unused),
		},
		{name: "unknown project", path: "/api/question/project/999", cookie: sessionCookie(t, env, f.john), wantCode: http.StatusNotFound},
	}
	runHttpTests(t, app, tests)
}

func Test_questionApi_submit(t *testing.T) {
	app, env := setup(t)
	f := setupQuestionnaire(t, env)
	johnCookie := sessionCookie(t, env, f.john)
	path := fmt.Sprintf("/api/question/project/%d", f.proj.ID)

	t.Run("questions without answers", func(t *testing.T) {
		ctx := context.Background()
		empty := question.Submission{Questions: []question.SubmittedQuestion{
			{QuestionID: f.rating.ID, Answers: []question.SubmittedAnswer{}},
			{QuestionID: f.feedback.ID, Answers: []question.SubmittedAnswer{}},
		}}
		err := env.QuestionSvc.Submit(ctx, f.john.ID, f.proj.ID, empty)
		if assert.True(t, core.IsValidation(err), "got %v", err) {
			assert.Equal(t, fmt.Sprintf("question %d: %s", f.rating.ID, question.ErrNoAnswers), err.Error())
		}
		answered, err := env.QuestionSvc.HasAnswered(ctx, f.proj.ID, f.john.ID)
		assert.NoError(t, err)
		assert.False(t, answered)
	})

	errResp := func(msg string) []byte { return marshallObj(t, httpErr{Error: msg}) }
	tests := []httpTest{
		{
			name: "not in a group", method: http.MethodPost, path: path + "/submit", cookie: sessionCookie(t, env, f.outsider),
			body:     marshallObj(t, submission(f.rating, f.feedback, f.john.ID, 5, "More tests")),
			wantCode: http.StatusBadRequest, wantData: errResp(question.ErrNotInGroup.Error()),
		},
		{
			name: "question count mismatch", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body: marshallObj(t, question.Submission{Questions: []question.SubmittedQuestion{
				{QuestionID: f.rating.ID, Answers: []question.SubmittedAnswer{{RecipientID: f.jane.ID, Value: 5}}},
			}}),
			wantCode: http.StatusBadRequest, wantData: errResp(question.ErrQuestionCountMismatch.Error()),
		},
		{
			name: "question not configured", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     marshallObj(t, submission(f.rating, f.unused, f.jane.ID, 5, "More tests")),
			wantCode: http.StatusBadRequest,
			wantData: errResp(fmt.Sprintf("question %d: %s", f.unused.ID, question.ErrQuestionNotInProject)),
		},
		{
			name: "unknown recipient", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     marshallObj(t, submission(f.rating, f.feedback, 999, 5, "More tests")),
			wantCode: http.StatusBadRequest, wantData: errResp("user 999: " + question.ErrRecipientNotFound.Error()),
		},
		{
			name: "text for a grade question", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     marshallObj(t, submission(f.rating, f.feedback, f.jane.ID, "five", "More tests")),
			wantCode: http.StatusBadRequest,
			wantData: errResp(fmt.Sprintf("question %d: %s", f.rating.ID, question.ErrAnswerTypeMismatch)),
		},
		{
			name: "number for a text question", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     marshallObj(t, submission(f.rating, f.feedback, f.jane.ID, 5, 3)),
			wantCode: http.StatusBadRequest,
			wantData: errResp(fmt.Sprintf("question %d: %s", f.feedback.ID, question.ErrAnswerTypeMismatch)),
		},
		{
			name: "missing recipient", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     marshallObj(t, submission(f.rating, f.feedback, 0, 5, "More tests")),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"questions[0].answers[0].recipient_id": "this field is required",
				"questions[1].answers[0].recipient_id": "this field is required",
			}),
		},
		{
			name: "empty answers", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body: marshallObj(t, question.Submission{Questions: []question.SubmittedQuestion{
				{QuestionID: f.rating.ID, Answers: []question.SubmittedAnswer{}},
				{QuestionID: f.feedback.ID, Answers: []question.SubmittedAnswer{{RecipientID: f.jane.ID, Value: "More tests"}}},
			}}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"questions[0].answers": "answers must contain at least 1 item"}),
		},
		{
			name: "missing answers", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     []byte(fmt.Sprintf(`{"questions": [{"question_id": %d}, {"question_id": %d, "answers": []}]}`, f.rating.ID, f.feedback.ID)),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"questions[0].answers": "this field is required",
				"questions[1].answers": "answers must contain at least 1 item",
			}),
		},
		{name: "not answered yet", path: path + "/status", cookie: johnCookie, wantData: marshallObj(t, StatusResponse{})},
		{
			name: "ok", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body: marshallObj(t, submission(f.rating, f.feedback, f.jane.ID, 5, "More tests")), wantCode: http.StatusCreated,
		},
		{name: "answered", path: path + "/status", cookie: johnCookie, wantData: marshallObj(t, StatusResponse{Answered: true})},
		{
			name: "already answered", method: http.MethodPost, path: path + "/submit", cookie: johnCookie,
			body:     marshallObj(t, submission(f.rating, f.feedback, f.jane.ID, 1, "Changed my mind")),
			wantCode: http.StatusConflict, wantData: errResp(question.ErrAlreadyAnswered.Error()),
		},
		{
			name: "students cannot read answers", path: path + "/answers", cookie: sessionCookie(t, env, f.jane),
			wantCode: http.StatusForbidden,
		},
	}
	runHttpTests(t, app, tests)

	answers, err := env.QuestionSvc.Answers(context.Background(), &question.AnswerFilter{ProjectID: f.proj.ID})
	assert.NoError(t, err)
	if assert.Len(t, answers, 2, "failed submissions must not write anything") {
		assert.Equal(t, f.john.ID, answers[0].AuthorID)
		assert.Equal(t, f.jane.ID, answers[0].RecipientID)
		assert.Equal(t, 5.0, answers[0].Grade.Float64)
		assert.False(t, answers[0].Text.Valid)
		assert.Equal(t, "More tests", answers[1].Text.String)
		assert.False(t, answers[1].Grade.Valid)
	}

	t.Run("teacher reads answers", func(t *testing.T) {
		tt := httpTest{
			path: fmt.Sprintf("%s/answers?recipient_id=%d", path, f.jane.ID), cookie: sessionCookie(t, env, f.teacher),
			wantData: marshallList(t, answers[0], answers[1]),
		}
		checkCodeAndData(t, tt, tt.run(t, app))
	})
}

func Test_questionApi_crud(t *testing.T) {
	app, env := setup(t)
	f := setupQuestionnaire(t, env)
	teacherCookie := sessionCookie(t, env, f.teacher)

	tests := []httpTest{
		{
			name: "invalid type", method: http.MethodPost, path: "/api/question", cookie: teacherCookie,
			body:     marshallObj(t, question.NewQuestion{Text: "Why?", Type: "CHOICE"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"type": "question type must be one of TEXT, GRADE"}),
		},
		{
			name: "unknown subject", method: http.MethodPost, path: "/api/question", cookie: teacherCookie,
			body:     marshallObj(t, question.NewQuestion{Text: "Why?", Type: "text", SubjectIDs: []int{999}}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "student cannot create", method: http.MethodPost, path: "/api/question", cookie: sessionCookie(t, env, f.john),
			body: marshallObj(t, question.NewQuestion{Text: "Why?", Type: "text"}), wantCode: http.StatusForbidden,
		},
		{name: "retrieve", path: fmt.Sprintf("/api/question/%d", f.rating.ID), cookie: sessionCookie(t, env, f.john), wantData: marshallObj(t, f.rating)},
		{
			name: "project filter", path: fmt.Sprintf("/api/question?project_id=%d", f.proj.ID), cookie: teacherCookie,
			wantData: marshallList(t, f.rating, f.feedback),
		},
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/api/question/%d", f.unused.ID), cookie: teacherCookie, wantCode: http.StatusNoContent},
		{name: "deleted", path: fmt.Sprintf("/api/question/%d", f.unused.ID), cookie: teacherCookie, wantCode: http.StatusNotFound},
	}
	runHttpTests(t, app, tests)
}
