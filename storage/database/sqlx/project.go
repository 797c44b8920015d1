package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core/project"
)

const projectColumns = `id, name, project_start, course_id, created_at, updated_at`

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *sqlx.DB) project.Repository {
	return &projectRepository{db: db}
}

func (repo projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	const q = `INSERT INTO project (name, project_start, course_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, q, p.Name, p.ProjectStart, p.CourseID, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return project.Project{}, trapErr(err, project.ErrNotFound, "inserting project")
	}
	return p, nil
}

func (repo projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter) ([]project.Project, error) {
	q := query{}
	if filter != nil {
		if filter.CourseID > 0 {
			q.where("course_id = ?", filter.CourseID)
		}
		if filter.MemberID > 0 {
			q.where("course_id IN (SELECT course_id FROM course_member WHERE user_id = ?)", filter.MemberID)
		}
	}
	exec := getExec(ctx, repo.db)

	projects := make([]project.Project, 0)
	base := "SELECT " + projectColumns + " FROM project"
	if err := exec.SelectContext(ctx, &projects, q.build(exec, base, "project_start DESC", "name ASC", "id ASC"), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	return projects, nil
}

func (repo projectRepository) GetProject(ctx context.Context, id int) (project.Project, error) {
	var p project.Project
	err := getExec(ctx, repo.db).GetContext(ctx, &p, "SELECT "+projectColumns+" FROM project WHERE id = $1", id)
	if err != nil {
		return project.Project{}, trapErr(err, project.ErrNotFound, "finding project")
	}
	return p, nil
}

func (repo projectRepository) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	const q = `UPDATE project SET name = $2, project_start = $3, course_id = $4, updated_at = $5 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q, p.ID, p.Name, p.ProjectStart, p.CourseID, p.UpdatedAt)
	if err = checkAffected(res, err); err != nil {
		return project.Project{}, trapErr(err, project.ErrNotFound, "updating project")
	}
	return p, nil
}

func (repo projectRepository) DeleteProject(ctx context.Context, id int) error {
	res, err := getExec(ctx, repo.db).ExecContext(ctx, "DELETE FROM project WHERE id = $1", id)
	return trapErr(checkAffected(res, err), project.ErrNotFound, "deleting project")
}
