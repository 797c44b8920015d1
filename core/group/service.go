package group

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/project"
	"github.com/trezcool/gradebook/core/user"
)

var ErrNotFound = core.NewNotFoundError("group not found")

type (
	Repository interface {
		// CreateGroup inserts the Group and its members.
		CreateGroup(ctx context.Context, g Group) (Group, error)
		// QueryGroups returns groups ordered by ID.
		QueryGroups(ctx context.Context, filter *QueryFilter) ([]Group, error)
		GetGroup(ctx context.Context, id int) (Group, error)
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		DeleteGroup(ctx context.Context, id int) error
		// AddGroupMembers ignores users that are already members.
		AddGroupMembers(ctx context.Context, groupID int, userIDs ...int) error
		RemoveGroupMembers(ctx context.Context, groupID int, userIDs ...int) error
		ClearGroupMembers(ctx context.Context, groupID int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, ng NewGroup) (Group, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Group, error)
		GetByID(ctx context.Context, id int) (Group, error)
		Update(ctx context.Context, id int, ug UpdateGroup) (Group, error)
		Delete(ctx context.Context, id int) error
		Members(ctx context.Context, id int) ([]user.User, error)
		AddMembers(ctx context.Context, id int, userIDs ...int) (Group, error)
		RemoveMembers(ctx context.Context, id int, userIDs ...int) (Group, error)
	}

	service struct {
		repo        Repository
		projectRepo project.Repository
		usrRepo     user.Repository
		tx          core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, projectRepo project.Repository, usrRepo user.Repository, tx core.Transactor) ServiceInterface {
	return &service{repo: repo, projectRepo: projectRepo, usrRepo: usrRepo, tx: tx}
}

func (svc *service) checkProject(ctx context.Context, id int) error {
	if _, err := svc.projectRepo.GetProject(ctx, id); err != nil {
		if core.IsNotFound(err) {
			msg := fmt.Sprintf("project %d does not exist", id)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "project_id", Error: msg})
		}
		return errors.Wrap(err, "finding project")
	}
	return nil
}

func (svc *service) checkUsers(ctx context.Context, ids []int) error {
	for _, id := range ids {
		if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id}); err != nil {
			if core.IsNotFound(err) {
				return core.NewValidationError(fmt.Errorf("user %d does not exist", id))
			}
			return errors.Wrap(err, "finding user")
		}
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	var g Group
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkProject(ctx, ng.ProjectID); err != nil {
			return err
		}
		if err := svc.checkUsers(ctx, ng.MemberIDs); err != nil {
			return err
		}
		now := time.Now().UTC()
		var err error
		g, err = svc.repo.CreateGroup(ctx, Group{
			Name:      ng.Name,
			ProjectID: ng.ProjectID,
			CreatedAt: now,
			UpdatedAt: now,
			MemberIDs: ng.MemberIDs,
		})
		return err
	})
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Group, error) {
	return svc.repo.QueryGroups(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

func (svc *service) Update(ctx context.Context, id int, ug UpdateGroup) (Group, error) {
	var g Group
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if g, err = svc.repo.GetGroup(ctx, id); err != nil {
			return err
		}
		if err = svc.checkProject(ctx, ug.ProjectID); err != nil {
			return err
		}
		g.Name = ug.Name
		g.ProjectID = ug.ProjectID
		g.UpdatedAt = time.Now().UTC()
		g, err = svc.repo.UpdateGroup(ctx, g)
		return err
	})
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

// Delete clears the Group's membership before deleting it.
func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetGroup(ctx, id); err != nil {
			return err
		}
		if err := svc.repo.ClearGroupMembers(ctx, id); err != nil {
			return errors.Wrap(err, "clearing group members")
		}
		return svc.repo.DeleteGroup(ctx, id)
	})
}

// Members returns the members of the Group ordered by last name.
func (svc *service) Members(ctx context.Context, id int) ([]user.User, error) {
	if _, err := svc.repo.GetGroup(ctx, id); err != nil {
		return nil, err
	}
	ordering := []core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}}
	return svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{GroupID: id}, ordering)
}

func (svc *service) AddMembers(ctx context.Context, id int, userIDs ...int) (Group, error) {
	var g Group
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetGroup(ctx, id); err != nil {
			return err
		}
		if err := svc.checkUsers(ctx, userIDs); err != nil {
			return err
		}
		if err := svc.repo.AddGroupMembers(ctx, id, userIDs...); err != nil {
			return err
		}
		var err error
		g, err = svc.repo.GetGroup(ctx, id)
		return err
	})
	if err != nil {
		return Group{}, err
	}
	return g, nil
}

func (svc *service) RemoveMembers(ctx context.Context, id int, userIDs ...int) (Group, error) {
	var g Group
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetGroup(ctx, id); err != nil {
			return err
		}
		if err := svc.repo.RemoveGroupMembers(ctx, id, userIDs...); err != nil {
			return err
		}
		var err error
		g, err = svc.repo.GetGroup(ctx, id)
		return err
	})
	if err != nil {
		return Group{}, err
	}
	return g, nil
}
