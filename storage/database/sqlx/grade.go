package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/grade"
)

const gradeColumns = `id, value, performance_id, teacher_id, student_id, weight, created_at, updated_at`

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	const q = `INSERT INTO grade (value, performance_id, teacher_id, student_id, weight, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, q,
		g.Value, g.PerformanceID, g.TeacherID, g.StudentID, g.Weight, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
	if err != nil {
		return grade.Grade{}, trapErr(err, grade.ErrNotFound, "inserting grade")
	}
	return g, nil
}

func (repo gradeRepository) QueryGrades(ctx context.Context, filter *grade.QueryFilter) ([]grade.Grade, error) {
	q := query{}
	if filter != nil {
		if filter.ProjectID > 0 {
			q.where(`performance_id IN (
				SELECT p.id FROM performance p JOIN project_subject ps ON ps.id = p.project_subject_id WHERE ps.project_id = ?
			)`, filter.ProjectID)
		}
		if filter.PerformanceID > 0 {
			q.where("performance_id = ?", filter.PerformanceID)
		}
		if filter.StudentID > 0 {
			q.where("student_id = ?", filter.StudentID)
		}
		if filter.TeacherID > 0 {
			q.where("teacher_id = ?", filter.TeacherID)
		}
	}
	exec := getExec(ctx, repo.db)

	grades := make([]grade.Grade, 0)
	if err := exec.SelectContext(ctx, &grades, q.build(exec, "SELECT "+gradeColumns+" FROM grade", "id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo gradeRepository) GetGrade(ctx context.Context, id int) (grade.Grade, error) {
	var g grade.Grade
	if err := getExec(ctx, repo.db).GetContext(ctx, &g, "SELECT "+gradeColumns+" FROM grade WHERE id = $1", id); err != nil {
		return grade.Grade{}, trapErr(err, grade.ErrNotFound, "finding grade")
	}
	return g, nil
}

func (repo gradeRepository) GetStudentGrade(ctx context.Context, performanceID, studentID int) (grade.Grade, error) {
	var g grade.Grade
	const q = "SELECT " + gradeColumns + " FROM grade WHERE performance_id = $1 AND student_id = $2"
	if err := getExec(ctx, repo.db).GetContext(ctx, &g, q, performanceID, studentID); err != nil {
		return grade.Grade{}, trapErr(err, grade.ErrNotFound, "finding student grade")
	}
	return g, nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	const q = `UPDATE grade SET value = $2, weight = $3, updated_at = $4 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q, g.ID, g.Value, g.Weight, g.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return grade.Grade{}, trapErr(err, grade.ErrNotFound, "updating grade")
	}
	return g, nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM grade WHERE id = $1", id)
	return trapErr(checkAffected(res, err), grade.ErrNotFound, "deleting grade")
}
