package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/subject"
)

var ErrNotFound = core.NewNotFoundError("performance not found")

type (
	Repository interface {
		CreatePerformance(ctx context.Context, p Performance) (Performance, error)
		// QueryPerformances returns performances ordered by project subject, then ID.
		// QueryFilter.ProjectID matches performances of every project subject of the project.
		QueryPerformances(ctx context.Context, filter *QueryFilter) ([]Performance, error)
		GetPerformance(ctx context.Context, id int) (Performance, error)
		UpdatePerformance(ctx context.Context, p Performance) (Performance, error)
		DeletePerformance(ctx context.Context, id int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, np NewPerformance) (Performance, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Performance, error)
		GetByID(ctx context.Context, id int) (Performance, error)
		Update(ctx context.Context, id int, up NewPerformance) (Performance, error)
		Delete(ctx context.Context, id int) error
	}

	service struct {
		repo        Repository
		subjectRepo subject.Repository
		tx          core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, subjectRepo subject.Repository, tx core.Transactor) ServiceInterface {
	return &service{repo: repo, subjectRepo: subjectRepo, tx: tx}
}

func (svc *service) checkProjectSubject(ctx context.Context, id int) error {
	if _, err := svc.subjectRepo.GetProjectSubject(ctx, id); err != nil {
		if core.IsNotFound(err) {
			msg := fmt.Sprintf("project subject %d does not exist", id)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "project_subject_id", Error: msg})
		}
		return errors.Wrap(err, "finding project subject")
	}
	return nil
}

func (svc *service) Create(ctx context.Context, np NewPerformance) (Performance, error) {
	var p Performance
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkProjectSubject(ctx, np.ProjectSubjectID); err != nil {
			return err
		}
		now := time.Now().UTC()
		var err error
		p, err = svc.repo.CreatePerformance(ctx, Performance{
			Name:             np.Name,
			ShortName:        np.ShortName,
			Weight:           np.Weight,
			ProjectSubjectID: np.ProjectSubjectID,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		return err
	})
	if err != nil {
		return Performance{}, err
	}
	return p, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Performance, error) {
	return svc.repo.QueryPerformances(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Performance, error) {
	return svc.repo.GetPerformance(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, up NewPerformance) (Performance, error) {
	var p Performance
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = svc.repo.GetPerformance(ctx, id); err != nil {
			return err
		}
		if err = svc.checkProjectSubject(ctx, up.ProjectSubjectID); err != nil {
			return err
		}
		p.Name = up.Name
		p.ShortName = up.ShortName
		p.Weight = up.Weight
		p.ProjectSubjectID = up.ProjectSubjectID
		p.UpdatedAt = time.Now().UTC()
		p, err = svc.repo.UpdatePerformance(ctx, p)
		return err
	})
	if err != nil {
		return Performance{}, err
	}
	return p, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetPerformance(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeletePerformance(ctx, id)
	})
}
