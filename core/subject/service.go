package subject

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/project"
)

var (
	// errors
	ErrNotFound               = core.NewNotFoundError("subject not found")
	ErrProjectSubjectNotFound = core.NewNotFoundError("project subject not found")
	ErrAlreadyAttached        = errors.New("this subject is already attached to the project")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, s Subject) (Subject, error)
		// QuerySubjects returns subjects ordered by name.
		QuerySubjects(ctx context.Context, filter *QueryFilter) ([]Subject, error)
		GetSubject(ctx context.Context, id int) (Subject, error)
		UpdateSubject(ctx context.Context, s Subject) (Subject, error)
		DeleteSubject(ctx context.Context, id int) error

		CreateProjectSubject(ctx context.Context, ps ProjectSubject) (ProjectSubject, error)
		// QueryProjectSubjects returns project subjects (with their Subject) ordered by ID.
		QueryProjectSubjects(ctx context.Context, filter *ProjectSubjectFilter) ([]ProjectSubject, error)
		GetProjectSubject(ctx context.Context, id int) (ProjectSubject, error)
		UpdateProjectSubject(ctx context.Context, ps ProjectSubject) (ProjectSubject, error)
		DeleteProjectSubject(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ns NewSubject) (Subject, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Subject, error)
		GetByID(ctx context.Context, id int) (Subject, error)
		Update(ctx context.Context, id int, us NewSubject) (Subject, error)
		Delete(ctx context.Context, id int) error

		Attach(ctx context.Context, nps NewProjectSubject) (ProjectSubject, error)
		QueryProjectSubjects(ctx context.Context, filter *ProjectSubjectFilter) ([]ProjectSubject, error)
		GetProjectSubject(ctx context.Context, id int) (ProjectSubject, error)
		UpdateProjectSubject(ctx context.Context, id int, ups UpdateProjectSubject) (ProjectSubject, error)
		Detach(ctx context.Context, id int) error
	}

	service struct {
		repo        Repository
		projectRepo project.Repository
		tx          core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, projectRepo project.Repository, tx core.Transactor) ServiceInterface {
	return &service{repo: repo, projectRepo: projectRepo, tx: tx}
}

func (svc *service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	return svc.repo.CreateSubject(ctx, Subject{
		Name:            ns.Name,
		ShortName:       ns.ShortName,
		Description:     ns.Description,
		IsLearningField: ns.IsLearningField,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, us NewSubject) (Subject, error) {
	var s Subject
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if s, err = svc.repo.GetSubject(ctx, id); err != nil {
			return err
		}
		s.Name = us.Name
		s.ShortName = us.ShortName
		s.Description = us.Description
		s.IsLearningField = us.IsLearningField
		s.UpdatedAt = time.Now().UTC()
		s, err = svc.repo.UpdateSubject(ctx, s)
		return err
	})
	if err != nil {
		return Subject{}, err
	}
	return s, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetSubject(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteSubject(ctx, id)
	})
}

func (svc *service) Attach(ctx context.Context, nps NewProjectSubject) (ProjectSubject, error) {
	var ps ProjectSubject
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.projectRepo.GetProject(ctx, nps.ProjectID); err != nil {
			if core.IsNotFound(err) {
				msg := fmt.Sprintf("project %d does not exist", nps.ProjectID)
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: "project_id", Error: msg})
			}
			return errors.Wrap(err, "finding project")
		}
		if _, err := svc.repo.GetSubject(ctx, nps.SubjectID); err != nil {
			if core.IsNotFound(err) {
				msg := fmt.Sprintf("subject %d does not exist", nps.SubjectID)
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: "subject_id", Error: msg})
			}
			return errors.Wrap(err, "finding subject")
		}

		existing, err := svc.repo.QueryProjectSubjects(ctx, &ProjectSubjectFilter{ProjectID: nps.ProjectID, SubjectID: nps.SubjectID})
		if err != nil {
			return errors.Wrap(err, "querying project subjects")
		}
		if len(existing) > 0 {
			return core.NewValidationError(ErrAlreadyAttached)
		}

		ps, err = svc.repo.CreateProjectSubject(ctx, ProjectSubject{
			ProjectID: nps.ProjectID,
			SubjectID: nps.SubjectID,
			Duration:  nps.Duration,
		})
		return err
	})
	if err != nil {
		return ProjectSubject{}, err
	}
	return ps, nil
}

func (svc *service) QueryProjectSubjects(ctx context.Context, filter *ProjectSubjectFilter) ([]ProjectSubject, error) {
	return svc.repo.QueryProjectSubjects(ctx, filter)
}

func (svc *service) GetProjectSubject(ctx context.Context, id int) (ProjectSubject, error) {
	return svc.repo.GetProjectSubject(ctx, id)
}

func (svc *service) UpdateProjectSubject(ctx context.Context, id int, ups UpdateProjectSubject) (ProjectSubject, error) {
	var ps ProjectSubject
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if ps, err = svc.repo.GetProjectSubject(ctx, id); err != nil {
			return err
		}
		ps.Duration = ups.Duration
		ps, err = svc.repo.UpdateProjectSubject(ctx, ps)
		return err
	})
	if err != nil {
		return ProjectSubject{}, err
	}
	return ps, nil
}

func (svc *service) Detach(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetProjectSubject(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteProjectSubject(ctx, id)
	})
}
