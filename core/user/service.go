package user

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists if a User other than `excludedIDs` has `username`.
		CheckUsernameUniqueness(ctx context.Context, username string, excludedIDs ...int) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Username, User.FirstName or User.LastName.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...int) (int, error)
	}

	ServiceInterface interface {
		CheckUniqueness(uname string, excludedIDs ...int) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, id int, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		ChangePassword(ctx context.Context, usr User, pwd string) (User, error)
		ResetPassword(ctx context.Context, id int) (User, string, error)
		Delete(ctx context.Context, ids ...int) error
	}

	service struct {
		repo Repository
		tx   core.Transactor
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, tx core.Transactor) ServiceInterface {
	return &service{repo: repo, tx: tx}
}

func (svc *service) CheckUniqueness(uname string, excludedIDs ...int) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, excludedIDs...); err != nil {
		if err == ErrUsernameExists {
			return core.NewValidationError(err, core.FieldError{Field: "username", Error: err.Error()})
		}
		return errors.Wrap(err, "checking username uniqueness")
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Role:      nu.Role,
		Username:  nu.Username,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	var usr User
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = svc.repo.GetUser(ctx, GetFilter{ID: id}); err != nil {
			return err
		}
		usr.Role = uu.Role
		usr.Username = uu.Username
		usr.FirstName = uu.FirstName
		usr.LastName = uu.LastName
		usr.UpdatedAt = time.Now().UTC()
		if uu.Password != "" {
			if err = usr.SetPassword(uu.Password); err != nil {
				return errors.Wrap(err, "setting password")
			}
		}
		usr, err = svc.repo.UpdateUser(ctx, usr)
		return err
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = null.TimeFrom(time.Now().UTC())
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) ChangePassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ResetPassword replaces the User's password by a generated one, returned in plain text.
// The plain text password must only be handed to the credentials document, never stored.
func (svc *service) ResetPassword(ctx context.Context, id int) (User, string, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, "", err
	}
	pwd, err := GeneratePassword(GeneratedPasswordLength)
	if err != nil {
		return User{}, "", errors.Wrap(err, "generating password")
	}
	if usr, err = svc.ChangePassword(ctx, usr, pwd); err != nil {
		return User{}, "", err
	}
	return usr, pwd, nil
}

func (svc *service) Delete(ctx context.Context, ids ...int) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids...)
	return err
}
