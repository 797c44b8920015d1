package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/question"
)

const (
	questionColumns = `id, text, type, created_at, updated_at`
	answerColumns   = `a.id, a.project_question_id, a.author_id, a.recipient_id, a.grade, a.text, a.created_at`
)

type questionRepository struct {
	db *sqlx.DB
}

var _ question.Repository = (*questionRepository)(nil)

func NewQuestionRepository(db *sqlx.DB) question.Repository {
	return &questionRepository{db: db}
}

func (repo questionRepository) withSubjects(ctx context.Context, exec executor, questions []question.Question) error {
	if len(questions) == 0 {
		return nil
	}
	ids := make([]int, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	var rows []struct {
		QuestionID int `db:"question_id"`
		SubjectID  int `db:"subject_id"`
	}
	const q = "SELECT question_id, subject_id FROM question_subject WHERE question_id = ANY($1) ORDER BY subject_id"
	if err := exec.SelectContext(ctx, &rows, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "querying question subjects")
	}
	subjects := make(map[int][]int, len(questions))
	for _, r := range rows {
		subjects[r.QuestionID] = append(subjects[r.QuestionID], r.SubjectID)
	}
	for i := range questions {
		questions[i].SubjectIDs = subjects[questions[i].ID]
		if questions[i].SubjectIDs == nil {
			questions[i].SubjectIDs = []int{}
		}
	}
	return nil
}

func (repo questionRepository) setSubjects(ctx context.Context, exec executor, q question.Question) error {
	if _, err := exec.ExecContext(ctx, "DELETE FROM question_subject WHERE question_id = $1", q.ID); err != nil {
		return err
	}
	if len(q.SubjectIDs) == 0 {
		return nil
	}
	const ins = "INSERT INTO question_subject (question_id, subject_id) SELECT $1, unnest($2::int[]) ON CONFLICT DO NOTHING"
	_, err := exec.ExecContext(ctx, ins, q.ID, pq.Array(q.SubjectIDs))
	return err
}

func (repo questionRepository) CreateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	exec := getExec(ctx, repo.db)
	const ins = `INSERT INTO question (text, type, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := exec.QueryRowxContext(ctx, ins, q.Text, q.Type, q.CreatedAt, q.UpdatedAt).Scan(&q.ID); err != nil {
		return question.Question{}, trapErr(err, question.ErrNotFound, "inserting question")
	}
	if err := repo.setSubjects(ctx, exec, q); err != nil {
		return question.Question{}, trapErr(err, question.ErrNotFound, "inserting question subjects")
	}
	if q.SubjectIDs == nil {
		q.SubjectIDs = []int{}
	}
	return q, nil
}

func (repo questionRepository) QueryQuestions(ctx context.Context, filter *question.QueryFilter) ([]question.Question, error) {
	qry := query{}
	if filter != nil {
		if filter.SubjectID > 0 {
			qry.where("id IN (SELECT question_id FROM question_subject WHERE subject_id = ?)", filter.SubjectID)
		}
		if filter.ProjectID > 0 {
			qry.where("id IN (SELECT question_id FROM project_question WHERE project_id = ?)", filter.ProjectID)
		}
	}
	exec := getExec(ctx, repo.db)

	questions := make([]question.Question, 0)
	if err := exec.SelectContext(ctx, &questions, qry.build(exec, "SELECT "+questionColumns+" FROM question", "id ASC"), qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	if err := repo.withSubjects(ctx, exec, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (repo questionRepository) GetQuestion(ctx context.Context, id int) (question.Question, error) {
	exec := getExec(ctx, repo.db)
	var q question.Question
	if err := exec.GetContext(ctx, &q, "SELECT "+questionColumns+" FROM question WHERE id = $1", id); err != nil {
		return question.Question{}, trapErr(err, question.ErrNotFound, "finding question")
	}
	questions := []question.Question{q}
	if err := repo.withSubjects(ctx, exec, questions); err != nil {
		return question.Question{}, err
	}
	return questions[0], nil
}

func (repo questionRepository) UpdateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	exec := getExec(ctx, repo.db)
	res, err := exec.ExecContext(ctx, "UPDATE question SET text = $2, type = $3, updated_at = $4 WHERE id = $1", q.ID, q.Text, q.Type, q.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return question.Question{}, trapErr(err, question.ErrNotFound, "updating question")
	}
	if err = repo.setSubjects(ctx, exec, q); err != nil {
		return question.Question{}, trapErr(err, question.ErrNotFound, "updating question subjects")
	}
	if q.SubjectIDs == nil {
		q.SubjectIDs = []int{}
	}
	return q, nil
}

func (repo questionRepository) DeleteQuestion(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM question WHERE id = $1", id)
	return trapErr(checkAffected(res, err), question.ErrNotFound, "deleting question")
}

func (repo questionRepository) QueryProjectQuestions(ctx context.Context, projectID int) ([]question.ProjectQuestion, error) {
	pqs := make([]question.ProjectQuestion, 0)
	const q = "SELECT id, project_id, question_id FROM project_question WHERE project_id = $1 ORDER BY id"
	if err := getExec(ctx, repo.db).SelectContext(ctx, &pqs, q, projectID); err != nil {
		return nil, errors.Wrap(err, "querying project questions")
	}
	return pqs, nil
}

// SetProjectQuestions keeps the configuration (and answers) of questions still listed.
func (repo questionRepository) SetProjectQuestions(ctx context.Context, projectID int, questionIDs ...int) error {
	if questionIDs == nil {
		questionIDs = []int{} // a NULL array would match nothing
	}
	exec := getExec(ctx, repo.db)
	const del = "DELETE FROM project_question WHERE project_id = $1 AND NOT (question_id = ANY($2))"
	if _, err := exec.ExecContext(ctx, del, projectID, pq.Array(questionIDs)); err != nil {
		return trapErr(err, question.ErrNotFound, "removing project questions")
	}
	if len(questionIDs) == 0 {
		return nil
	}
	const ins = "INSERT INTO project_question (project_id, question_id) SELECT $1, unnest($2::int[]) ON CONFLICT DO NOTHING"
	if _, err := exec.ExecContext(ctx, ins, projectID, pq.Array(questionIDs)); err != nil {
		return trapErr(err, question.ErrNotFound, "adding project questions")
	}
	return nil
}

const insertAnswers = `INSERT INTO answer (project_question_id, author_id, recipient_id, grade, text, created_at)
	VALUES (:project_question_id, :author_id, :recipient_id, :grade, :text, :created_at)`

// bindAnswers expands insertAnswers into a single multi-row INSERT.
func bindAnswers(exec executor, answers []question.Answer) (string, []interface{}, error) {
	q, args, err := sqlx.Named(insertAnswers, answers)
	if err != nil {
		return "", nil, errors.Wrap(err, "binding answers")
	}
	return exec.Rebind(q), args, nil
}

func (repo questionRepository) CreateAnswers(ctx context.Context, answers []question.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	exec := getExec(ctx, repo.db)
	q, args, err := bindAnswers(exec, answers)
	if err != nil {
		return err
	}
	if _, err = exec.ExecContext(ctx, q, args...); err != nil {
		return trapErr(err, question.ErrNotFound, "inserting answers")
	}
	return nil
}

func (repo questionRepository) QueryAnswers(ctx context.Context, filter *question.AnswerFilter) ([]question.Answer, error) {
	qry := query{}
	if filter != nil {
		if filter.ProjectID > 0 {
			qry.where("pq.project_id = ?", filter.ProjectID)
		}
		if filter.AuthorID > 0 {
			qry.where("a.author_id = ?", filter.AuthorID)
		}
		if filter.RecipientID > 0 {
			qry.where("a.recipient_id = ?", filter.RecipientID)
		}
	}
	exec := getExec(ctx, repo.db)

	answers := make([]question.Answer, 0)
	base := "SELECT " + answerColumns + " FROM answer a JOIN project_question pq ON pq.id = a.project_question_id"
	if err := exec.SelectContext(ctx, &answers, qry.build(exec, base, "a.id ASC"), qry.args...); err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}
	return answers, nil
}

func (repo questionRepository) HasAnswered(ctx context.Context, projectID, authorID int) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM answer a JOIN project_question pq ON pq.id = a.project_question_id
		WHERE pq.project_id = $1 AND a.author_id = $2
	)`
	var answered bool
	if err := getExec(ctx, repo.db).GetContext(ctx, &answered, q, projectID, authorID); err != nil {
		return false, errors.Wrap(err, "checking answers")
	}
	return answered, nil
}
