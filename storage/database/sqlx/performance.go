package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/performance"
)

const performanceColumns = `id, name, short_name, weight, project_subject_id, created_at, updated_at`

type performanceRepository struct {
	db *sqlx.DB
}

var _ performance.Repository = (*performanceRepository)(nil)

func NewPerformanceRepository(db *sqlx.DB) performance.Repository {
	return &performanceRepository{db: db}
}

func (repo performanceRepository) CreatePerformance(ctx context.Context, p performance.Performance) (performance.Performance, error) {
	const q = `INSERT INTO performance (name, short_name, weight, project_subject_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, q,
		p.Name, p.ShortName, p.Weight, p.ProjectSubjectID, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return performance.Performance{}, trapErr(err, performance.ErrNotFound, "inserting performance")
	}
	return p, nil
}

func (repo performanceRepository) QueryPerformances(ctx context.Context, filter *performance.QueryFilter) ([]performance.Performance, error) {
	q := query{}
	if filter != nil {
		if filter.ProjectSubjectID > 0 {
			q.where("project_subject_id = ?", filter.ProjectSubjectID)
		}
		if filter.ProjectID > 0 {
			q.where("project_subject_id IN (SELECT id FROM project_subject WHERE project_id = ?)", filter.ProjectID)
		}
	}
	exec := getExec(ctx, repo.db)

	perfs := make([]performance.Performance, 0)
	base := "SELECT " + performanceColumns + " FROM performance"
	if err := exec.SelectContext(ctx, &perfs, q.build(exec, base, "project_subject_id ASC", "id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying performances")
	}
	return perfs, nil
}

func (repo performanceRepository) GetPerformance(ctx context.Context, id int) (performance.Performance, error) {
	var p performance.Performance
	err := getExec(ctx, repo.db).GetContext(ctx, &p, "SELECT "+performanceColumns+" FROM performance WHERE id = $1", id)
	if err != nil {
		return performance.Performance{}, trapErr(err, performance.ErrNotFound, "finding performance")
	}
	return p, nil
}

func (repo performanceRepository) UpdatePerformance(ctx context.Context, p performance.Performance) (performance.Performance, error) {
	const q = `UPDATE performance SET name = $2, short_name = $3, weight = $4, project_subject_id = $5, updated_at = $6 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q, p.ID, p.Name, p.ShortName, p.Weight, p.ProjectSubjectID, p.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return performance.Performance{}, trapErr(err, performance.ErrNotFound, "updating performance")
	}
	return p, nil
}

func (repo performanceRepository) DeletePerformance(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM performance WHERE id = $1", id)
	return trapErr(checkAffected(res, err), performance.ErrNotFound, "deleting performance")
}
