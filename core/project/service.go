package project

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/course"
)

var ErrNotFound = core.NewNotFoundError("project not found")

type (
	Repository interface {
		CreateProject(ctx context.Context, p Project) (Project, error)
		// QueryProjects returns projects ordered by project start (latest first), then name.
		QueryProjects(ctx context.Context, filter *QueryFilter) ([]Project, error)
		GetProject(ctx context.Context, id int) (Project, error)
		UpdateProject(ctx context.Context, p Project) (Project, error)
		DeleteProject(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, np NewProject) (Project, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Project, error)
		GetByID(ctx context.Context, id int) (Project, error)
		Update(ctx context.Context, id int, up NewProject) (Project, error)
		Delete(ctx context.Context, id int) error
	}

	service struct {
		repo       Repository
		courseRepo course.Repository
		tx         core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, courseRepo course.Repository, tx core.Transactor) ServiceInterface {
	return &service{repo: repo, courseRepo: courseRepo, tx: tx}
}

func (svc *service) checkCourse(ctx context.Context, id int) error {
	if _, err := svc.courseRepo.GetCourse(ctx, id); err != nil {
		if core.IsNotFound(err) {
			msg := fmt.Sprintf("course %d does not exist", id)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "course_id", Error: msg})
		}
		return errors.Wrap(err, "finding course")
	}
	return nil
}

func (svc *service) Create(ctx context.Context, np NewProject) (Project, error) {
	var p Project
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkCourse(ctx, np.CourseID); err != nil {
			return err
		}
		now := time.Now().UTC()
		var err error
		p, err = svc.repo.CreateProject(ctx, Project{
			Name:         np.Name,
			ProjectStart: np.ProjectStart,
			CourseID:     np.CourseID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		return err
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Project, error) {
	return svc.repo.GetProject(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, up NewProject) (Project, error) {
	var p Project
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = svc.repo.GetProject(ctx, id); err != nil {
			return err
		}
		if err = svc.checkCourse(ctx, up.CourseID); err != nil {
			return err
		}
		p.Name = up.Name
		p.ProjectStart = up.ProjectStart
		p.CourseID = up.CourseID
		p.UpdatedAt = time.Now().UTC()
		p, err = svc.repo.UpdateProject(ctx, p)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	return p, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetProject(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteProject(ctx, id)
	})
}
