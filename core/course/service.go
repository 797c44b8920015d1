package course

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("course not found")
	ErrNameExists = errors.New("a course with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedIDs ...int) error
		// CreateCourse inserts the Course and its members.
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// QueryCourses returns courses ordered by name.
		QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetCourse(ctx context.Context, id int) (Course, error)
		// GetCourseByName does a case-insensitive match on the course name.
		GetCourseByName(ctx context.Context, name string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id int) error
		// AddCourseMembers ignores users that are already members.
		AddCourseMembers(ctx context.Context, courseID int, userIDs ...int) error
		RemoveCourseMembers(ctx context.Context, courseID int, userIDs ...int) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Course, error)
		GetByID(ctx context.Context, id int) (Course, error)
		GetByName(ctx context.Context, name string) (Course, error)
		Update(ctx context.Context, id int, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, id int) error
		Members(ctx context.Context, id int) ([]user.User, error)
		AddMembers(ctx context.Context, id int, userIDs ...int) (Course, error)
		RemoveMembers(ctx context.Context, id int, userIDs ...int) (Course, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
		tx      core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository, tx core.Transactor) ServiceInterface {
	return &service{repo: repo, usrRepo: usrRepo, tx: tx}
}

func (svc *service) checkName(ctx context.Context, name string, excludedIDs ...int) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, excludedIDs...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return errors.Wrap(err, "checking course name uniqueness")
	}
	return nil
}

func (svc *service) checkClassTeacher(ctx context.Context, id int) error {
	if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id}); err != nil {
		if core.IsNotFound(err) {
			msg := fmt.Sprintf("user %d does not exist", id)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "class_teacher_id", Error: msg})
		}
		return errors.Wrap(err, "finding class teacher")
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

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	var c Course
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.checkName(ctx, nc.Name); err != nil {
			return err
		}
		if err := svc.checkClassTeacher(ctx, nc.ClassTeacherID); err != nil {
			return err
		}
		if err := svc.checkUsers(ctx, nc.MemberIDs); err != nil {
			return err
		}

		now := time.Now().UTC()
		var err error
		c, err = svc.repo.CreateCourse(ctx, Course{
			Name:           nc.Name,
			ClassTeacherID: nc.ClassTeacherID,
			CreatedAt:      now,
			UpdatedAt:      now,
			MemberIDs:      nc.MemberIDs,
		})
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *service) GetByName(ctx context.Context, name string) (Course, error) {
	return svc.repo.GetCourseByName(ctx, core.CleanString(name))
}

func (svc *service) Update(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	var c Course
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = svc.repo.GetCourse(ctx, id); err != nil {
			return err
		}
		if err = svc.checkName(ctx, uc.Name, id); err != nil {
			return err
		}
		if err = svc.checkClassTeacher(ctx, uc.ClassTeacherID); err != nil {
			return err
		}
		c.Name = uc.Name
		c.ClassTeacherID = uc.ClassTeacherID
		c.UpdatedAt = time.Now().UTC()
		c, err = svc.repo.UpdateCourse(ctx, c)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetCourse(ctx, id); err != nil {
			return err
		}
		return svc.repo.DeleteCourse(ctx, id)
	})
}

// Members returns the members of the Course ordered by last name.
func (svc *service) Members(ctx context.Context, id int) ([]user.User, error) {
	if _, err := svc.repo.GetCourse(ctx, id); err != nil {
		return nil, err
	}
	ordering := []core.DBOrdering{{Field: "last_name", Ascending: true}, {Field: "first_name", Ascending: true}}
	return svc.usrRepo.QueryUsers(ctx, &user.QueryFilter{CourseID: id}, ordering)
}

func (svc *service) AddMembers(ctx context.Context, id int, userIDs ...int) (Course, error) {
	var c Course
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetCourse(ctx, id); err != nil {
			return err
		}
		if err := svc.checkUsers(ctx, userIDs); err != nil {
			return err
		}
		if err := svc.repo.AddCourseMembers(ctx, id, userIDs...); err != nil {
			return err
		}
		var err error
		c, err = svc.repo.GetCourse(ctx, id)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

func (svc *service) RemoveMembers(ctx context.Context, id int, userIDs ...int) (Course, error) {
	var c Course
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := svc.repo.GetCourse(ctx, id); err != nil {
			return err
		}
		if err := svc.repo.RemoveCourseMembers(ctx, id, userIDs...); err != nil {
			return err
		}
		var err error
		c, err = svc.repo.GetCourse(ctx, id)
		return err
	})
	if err != nil {
		return Course{}, err
	}
	return c, nil
}
