package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core/user"
)

func TestTransactor_WithinTx(t *testing.T) {
	db := Open()
	tx := NewTransactor(db)
	repo := NewUserRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	errBoom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := repo.CreateUser(ctx, user.User{Username: "john.doe", CreatedAt: now}); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := repo.CreateUser(ctx, user.User{Username: "jane.doe", CreatedAt: now}); err != nil {
				return err
			}
			return errBoom
		})
	})
	assert.Equal(t, errBoom, err)

	users, err := repo.QueryUsers(ctx, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, users, "a failed transaction is rolled back")

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		_, err := repo.CreateUser(ctx, user.User{Username: "john.doe", CreatedAt: now})
		return err
	})
	assert.NoError(t, err)

	usr, err := repo.GetUser(ctx, user.GetFilter{Username: "john.doe"})
	assert.NoError(t, err)
	assert.Equal(t, 1, usr.ID, "primary keys are rolled back too")
}

func TestUserRepository_CheckUsernameUniqueness(t *testing.T) {
	db := Open()
	repo := NewUserRepository(db)
	ctx := context.Background()

	usr, err := repo.CreateUser(ctx, user.User{Username: "john.doe"})
	assert.NoError(t, err)

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "john.doe"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "john.doe", usr.ID))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "jane.doe"))

	_, err = repo.CreateUser(ctx, user.User{Username: "john.doe"})
	assert.Equal(t, user.ErrUsernameExists, err)
}
