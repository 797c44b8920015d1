package question

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

type Type string

const (
	TypeText  Type = "TEXT"
	TypeGrade Type = "GRADE"
)

func (t Type) IsValid() bool {
	return t == TypeText || t == TypeGrade
}

type Question struct {
	ID         int       `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	Type       Type      `json:"type" db:"type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
	SubjectIDs []int     `json:"subject_ids" db:"-"` // sorted
}

// ProjectQuestion configures a Question for the questionnaire of a project.
type ProjectQuestion struct {
	ID         int `json:"id" db:"id"`
	ProjectID  int `json:"project_id" db:"project_id"`
	QuestionID int `json:"question_id" db:"question_id"`
}

// Answer is one author's response to a project question, addressed to a recipient (peer assessment).
// Exactly one of Grade or Text is set, depending on the question type.
type Answer struct {
	ID                int          `json:"id" db:"id"`
	ProjectQuestionID int          `json:"project_question_id" db:"project_question_id"`
	AuthorID          int          `json:"author_id" db:"author_id"`
	RecipientID       int          `json:"recipient_id" db:"recipient_id"`
	Grade             null.Float64 `json:"grade" db:"grade"`
	Text              null.String  `json:"text" db:"text"`
	CreatedAt         time.Time    `json:"created_at" db:"created_at"`
}

// NewQuestion contains information needed to create a new Question.
// It is also used to overwrite an existing Question.
type NewQuestion struct {
	Text       string `json:"text" validate:"required,notblank,max=1024"`
	Type       Type   `json:"type" validate:"required,questiontype"`
	SubjectIDs []int  `json:"subject_ids" validate:"omitempty,dive,gt=0"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Text = core.CleanString(nq.Text)
	nq.Type = Type(strings.ToUpper(core.CleanString(string(nq.Type))))
	nq.SubjectIDs = core.UniqueInts(nq.SubjectIDs)
	return validate.Struct(nq)
}

// ProjectQuestions replaces the question configuration of a project.
type ProjectQuestions struct {
	QuestionIDs []int `json:"question_ids" validate:"omitempty,dive,gt=0"`
}

func (pq *ProjectQuestions) Validate(validate *validator.Validate) error {
	pq.QuestionIDs = core.UniqueInts(pq.QuestionIDs)
	return validate.Struct(pq)
}

// Submission is the questionnaire of a project filled in by one user.
type Submission struct {
	Questions []SubmittedQuestion `json:"questions" validate:"required,dive"`
}

type SubmittedQuestion struct {
	QuestionID int               `json:"question_id" validate:"required,gt=0"`
	Answers    []SubmittedAnswer `json:"answers" validate:"required,min=1,dive"`
}

// SubmittedAnswer.Value is a number for GRADE questions and a string for TEXT questions.
type SubmittedAnswer struct {
	RecipientID int         `json:"recipient_id" validate:"required,gt=0"`
	Value       interface{} `json:"value"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	return validate.Struct(s)
}

type QueryFilter struct {
	SubjectID int `query:"subject_id"`
	ProjectID int `query:"project_id"`
}

type AnswerFilter struct {
	ProjectID   int `query:"project_id"`
	AuthorID    int `query:"author_id"`
	RecipientID int `query:"recipient_id"`
}

var (
	questionTypeTag  = "questiontype"
	questionTypeText = "question type must be one of TEXT, GRADE"
)

// InitValidators registers the question validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(questionTypeTag, func(fl validator.FieldLevel) bool {
		return Type(fl.Field().String()).IsValid()
	})
	core.RegisterCustomTranslation(validate, translator, questionTypeTag, questionTypeText)
}
