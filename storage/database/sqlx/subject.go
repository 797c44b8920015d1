package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/subject"
)

const (
	subjectColumns        = `id, name, short_name, description, is_learning_field, created_at, updated_at`
	projectSubjectColumns = `ps.id, ps.project_id, ps.subject_id, ps.duration,
		s.id AS "subject.id", s.name AS "subject.name", s.short_name AS "subject.short_name",
		s.description AS "subject.description", s.is_learning_field AS "subject.is_learning_field",
		s.created_at AS "subject.created_at", s.updated_at AS "subject.updated_at"`
	projectSubjectFrom = ` FROM project_subject ps JOIN subject s ON s.id = ps.subject_id`
)

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo subjectRepository) CreateSubject(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	const q = `INSERT INTO subject (name, short_name, description, is_learning_field, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, q,
		s.Name, s.ShortName, s.Description, s.IsLearningField, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return subject.Subject{}, trapErr(err, subject.ErrNotFound, "inserting subject")
	}
	return s, nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context, filter *subject.QueryFilter) ([]subject.Subject, error) {
	q := query{}
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q.where("(name ILIKE ? OR short_name ILIKE ?)", val, val)
		}
		if filter.IDs != nil {
			q.where("id = ANY(?)", pq.Array(filter.IDs))
		}
	}
	exec := getExec(ctx, repo.db)

	subjects := make([]subject.Subject, 0)
	if err := exec.SelectContext(ctx, &subjects, q.build(exec, "SELECT "+subjectColumns+" FROM subject", "name ASC", "id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	return subjects, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, id int) (subject.Subject, error) {
	var s subject.Subject
	if err := getExec(ctx, repo.db).GetContext(ctx, &s, "SELECT "+subjectColumns+" FROM subject WHERE id = $1", id); err != nil {
		return subject.Subject{}, trapErr(err, subject.ErrNotFound, "finding subject")
	}
	return s, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	const q = `UPDATE subject SET name = $2, short_name = $3, description = $4, is_learning_field = $5, updated_at = $6 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q, s.ID, s.Name, s.ShortName, s.Description, s.IsLearningField, s.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return subject.Subject{}, trapErr(err, subject.ErrNotFound, "updating subject")
	}
	return s, nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM subject WHERE id = $1", id)
	return trapErr(checkAffected(res, err), subject.ErrNotFound, "deleting subject")
}

func (repo subjectRepository) CreateProjectSubject(ctx context.Context, ps subject.ProjectSubject) (subject.ProjectSubject, error) {
	const q = `INSERT INTO project_subject (project_id, subject_id, duration) VALUES ($1, $2, $3) RETURNING id`
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, q, ps.ProjectID, ps.SubjectID, ps.Duration).Scan(&ps.ID)
	if err != nil {
		return subject.ProjectSubject{}, trapErr(err, subject.ErrProjectSubjectNotFound, "inserting project subject")
	}
	return repo.GetProjectSubject(ctx, ps.ID)
}

func (repo subjectRepository) QueryProjectSubjects(ctx context.Context, filter *subject.ProjectSubjectFilter) ([]subject.ProjectSubject, error) {
	q := query{}
	if filter != nil {
		if filter.ProjectID > 0 {
			q.where("ps.project_id = ?", filter.ProjectID)
		}
		if filter.SubjectID > 0 {
			q.where("ps.subject_id = ?", filter.SubjectID)
		}
	}
	exec := getExec(ctx, repo.db)

	projSubjects := make([]subject.ProjectSubject, 0)
	if err := exec.SelectContext(ctx, &projSubjects, q.build(exec, "SELECT "+projectSubjectColumns+projectSubjectFrom, "ps.id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying project subjects")
	}
	return projSubjects, nil
}

func (repo subjectRepository) GetProjectSubject(ctx context.Context, id int) (subject.ProjectSubject, error) {
	var ps subject.ProjectSubject
	err := getExec(ctx, repo.db).GetContext(ctx, &ps, "SELECT "+projectSubjectColumns+projectSubjectFrom+" WHERE ps.id = $1", id)
	if err != nil {
		return subject.ProjectSubject{}, trapErr(err, subject.ErrProjectSubjectNotFound, "finding project subject")
	}
	return ps, nil
}

func (repo subjectRepository) UpdateProjectSubject(ctx context.Context, ps subject.ProjectSubject) (subject.ProjectSubject, error) {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "UPDATE project_subject SET duration = $2 WHERE id = $1", ps.ID, ps.Duration)
	if err = checkAffected(res, err); err != nil {
		return subject.ProjectSubject{}, trapErr(err, subject.ErrProjectSubjectNotFound, "updating project subject")
	}
	return ps, nil
}

func (repo subjectRepository) DeleteProjectSubject(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM project_subject WHERE id = $1", id)
	return trapErr(checkAffected(res, err), subject.ErrProjectSubjectNotFound, "deleting project subject")
}
