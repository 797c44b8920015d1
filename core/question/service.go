package question

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/group"
	"github.com/trezcool/gradebook/core/project"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
)

var (
	ErrNotFound = core.NewNotFoundError("question not found")

	// submission errors
	ErrAlreadyAnswered       = core.NewConflictError("the questionnaire of this project was already answered")
	ErrNotInGroup            = errors.New("you are not a member of any group of this project")
	ErrQuestionCountMismatch = errors.New("the submission must answer every question of the project")
	ErrQuestionNotInProject  = errors.New("question is not part of the project questionnaire")
	ErrRecipientNotFound     = errors.New("recipient does not exist")
	ErrAnswerTypeMismatch    = errors.New("answer value does not match the question type")
	ErrNoAnswers             = errors.New("question has no answer")
)

type (
	Repository interface {
		// CreateQuestion inserts the Question and its subject links.
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestions returns questions ordered by ID.
		QueryQuestions(ctx context.Context, filter *QueryFilter) ([]Question, error)
		GetQuestion(ctx context.Context, id int) (Question, error)
		// UpdateQuestion also replaces the subject links.
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, id int) error

		// QueryProjectQuestions returns the question configuration of the project ordered by ID.
		QueryProjectQuestions(ctx context.Context, projectID int) ([]ProjectQuestion, error)
		// SetProjectQuestions replaces the question configuration of the project.
		SetProjectQuestions(ctx context.Context, projectID int, questionIDs ...int) error

		CreateAnswers(ctx context.Context, answers []Answer) error
		// QueryAnswers returns answers ordered by ID.
		QueryAnswers(ctx context.Context, filter *AnswerFilter) ([]Answer, error)
		HasAnswered(ctx context.Context, projectID, authorID int) (bool, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nq NewQuestion) (Question, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Question, error)
		GetByID(ctx context.Context, id int) (Question, error)
		Update(ctx context.Context, id int, uq NewQuestion) (Question, error)
		Delete(ctx context.Context, id int) error

		ProjectQuestions(ctx context.Context, projectID int) ([]Question, error)
		SetProjectQuestions(ctx context.Context, projectID int, pq ProjectQuestions) ([]Question, error)

		// Submit records the answers of a user to the questionnaire of a project.
		// Nothing is written unless the whole submission is valid.
		Submit(ctx context.Context, userID, projectID int, sub Submission) error
		Answers(ctx context.Context, filter *AnswerFilter) ([]Answer, error)
		HasAnswered(ctx context.Context, projectID, userID int) (bool, error)
	}

	Deps struct {
		Repo        Repository
		ProjectRepo project.Repository
		SubjectRepo subject.Repository
		GroupRepo   group.Repository
		UserRepo    user.Repository
		Tx          core.Transactor
	}

	service struct {
		repo     Repository
		projRepo project.Repository
		subjRepo subject.Repository
		grpRepo  group.Repository
		usrRepo  user.Repository
		tx       core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(deps Deps) ServiceInterface {
	return &service{
		repo:     deps.Repo,
		projRepo: deps.ProjectRepo,
		subjRepo: deps.SubjectRepo,
		grpRepo:  deps.GroupRepo,
		usrRepo:  deps.UserRepo,
		tx:       deps.Tx,
	}
}

func (svc *service) checkSubjects(ctx context.Context, ids []int) error {
	for _, id := range ids {
		if _, err := svc.subjRepo.GetSubject(ctx, id); err != nil {
			if core.IsNotFound(err) {
				msg := fmt.Sprintf("subject %d does not exist", id)
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: "subject_ids", Error: msg})
			}
			return errors.Wrap(err, "finding subject")
		}
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nq NewQuestion) (Question, error) {
	var q Question
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkSubjects(ctx, nq.SubjectIDs); err != nil {
			return err
		}
		now := time.Now().UTC()
		var err error
		q, err = svc.repo.CreateQuestion(ctx, Question{
			Text:       nq.Text,
			Type:       nq.Type,
			CreatedAt:  now,
			UpdatedAt:  now,
			SubjectIDs: nq.SubjectIDs,
		})
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, uq NewQuestion) (Question, error) {
	var q Question
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if q, err = svc.repo.GetQuestion(ctx, id); err != nil {
			return err
		}
		if err = svc.checkSubjects(ctx, uq.SubjectIDs); err != nil {
			return err
		}
		q.Text = uq.Text
		q.Type = uq.Type
		q.SubjectIDs = uq.SubjectIDs
		q.UpdatedAt = time.Now().UTC()
		q, err = svc.repo.UpdateQuestion(ctx, q)
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetQuestion(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteQuestion(ctx, id)
	})
}

func (svc *service) ProjectQuestions(ctx context.Context, projectID int) ([]Question, error) {
	if _, err := svc.projRepo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryQuestions(ctx, &QueryFilter{ProjectID: projectID})
}

func (svc *service) SetProjectQuestions(ctx context.Context, projectID int, pq ProjectQuestions) ([]Question, error) {
	var questions []Question
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.projRepo.GetProject(ctx, projectID); err != nil {
			return err
		}
		for _, id := range pq.QuestionIDs {
			if _, err := svc.repo.GetQuestion(ctx, id); err != nil {
				if core.IsNotFound(err) {
					msg := fmt.Sprintf("question %d does not exist", id)
					return core.NewValidationError(errors.New(msg), core.FieldError{Field: "question_ids", Error: msg})
				}
				return errors.Wrap(err, "finding question")
			}
		}
		if err := svc.repo.SetProjectQuestions(ctx, projectID, pq.QuestionIDs...); err != nil {
			return err
		}
		var err error
		questions, err = svc.repo.QueryQuestions(ctx, &QueryFilter{ProjectID: projectID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (svc *service) Submit(ctx context.Context, userID, projectID int, sub Submission) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.projRepo.GetProject(ctx, projectID); err != nil {
			return err
		}

		answered, err := svc.repo.HasAnswered(ctx, projectID, userID)
		if err != nil {
			return errors.Wrap(err, "checking previous answers")
		}
		if answered {
			return ErrAlreadyAnswered
		}

		groups, err := svc.grpRepo.QueryGroups(ctx, &group.QueryFilter{ProjectID: projectID, MemberID: userID})
		if err != nil {
			return errors.Wrap(err, "querying groups")
		}
		if len(groups) == 0 {
			return core.NewValidationError(ErrNotInGroup)
		}

		projQuestions, err := svc.repo.QueryProjectQuestions(ctx, projectID)
		if err != nil {
			return errors.Wrap(err, "querying project questions")
		}
		if len(sub.Questions) != len(projQuestions) {
			return core.NewValidationError(ErrQuestionCountMismatch)
		}
		pqByQuestion := make(map[int]ProjectQuestion, len(projQuestions))
		for _, pq := range projQuestions {
			pqByQuestion[pq.QuestionID] = pq
		}

		now := time.Now().UTC()
		seen := make(map[int]bool, len(sub.Questions))
		recipients := make(map[int]bool)
		var answers []Answer
		for _, sq := range sub.Questions {
			if seen[sq.QuestionID] {
				return core.NewValidationError(ErrQuestionCountMismatch)
			}
			seen[sq.QuestionID] = true

			q, err := svc.repo.GetQuestion(ctx, sq.QuestionID)
			if err != nil {
				if core.IsNotFound(err) {
					return core.NewValidationError(errors.WithMessagef(ErrQuestionNotInProject, "question %d", sq.QuestionID))
				}
				return errors.Wrap(err, "finding question")
			}
			pq, ok := pqByQuestion[q.ID]
			if !ok {
				return core.NewValidationError(errors.WithMessagef(ErrQuestionNotInProject, "question %d", sq.QuestionID))
			}
			if len(sq.Answers) == 0 {
				return core.NewValidationError(errors.WithMessagef(ErrNoAnswers, "question %d", q.ID))
			}

			for _, sa := range sq.Answers {
				if !recipients[sa.RecipientID] {
					if _, err = svc.usrRepo.GetUser(ctx, user.GetFilter{ID: sa.RecipientID}); err != nil {
						if core.IsNotFound(err) {
							return core.NewValidationError(errors.WithMessagef(ErrRecipientNotFound, "user %d", sa.RecipientID))
						}
						return errors.Wrap(err, "finding recipient")
					}
					recipients[sa.RecipientID] = true
				}

				ans := Answer{
					ProjectQuestionID: pq.ID,
					AuthorID:          userID,
					RecipientID:       sa.RecipientID,
					CreatedAt:         now,
				}
				switch v := sa.Value.(type) {
				case float64:
					if q.Type != TypeGrade {
						return core.NewValidationError(errors.WithMessagef(ErrAnswerTypeMismatch, "question %d", q.ID))
					}
					ans.Grade = null.Float64From(v)
				case string:
					if q.Type != TypeText {
						return core.NewValidationError(errors.WithMessagef(ErrAnswerTypeMismatch, "question %d", q.ID))
					}
					ans.Text = null.StringFrom(v)
				default:
					return core.NewValidationError(errors.WithMessagef(ErrAnswerTypeMismatch, "question %d", q.ID))
				}
				answers = append(answers, ans)
			}
		}

		return svc.repo.CreateAnswers(ctx, answers)
	})
}

func (svc *service) Answers(ctx context.Context, filter *AnswerFilter) ([]Answer, error) {
	return svc.repo.QueryAnswers(ctx, filter)
}

func (svc *service) HasAnswered(ctx context.Context, projectID, userID int) (bool, error) {
	return svc.repo.HasAnswered(ctx, projectID, userID)
}
