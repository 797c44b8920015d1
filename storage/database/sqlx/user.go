package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

const userColumns = `id, role, username, first_name, last_name, password_hash, created_at, updated_at, last_login`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username string, excludedIDs ...int) error {
	q := query{}
	q.where("username = ?", username)
	if len(excludedIDs) > 0 {
		q.where("NOT (id = ANY(?))", pq.Array(excludedIDs))
	}
	exec := getExec(ctx, repo.db)

	var exists bool
	err := exec.GetContext(ctx, &exists, q.build(exec, `SELECT EXISTS (SELECT 1 FROM "user"`)+")", q.args...)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if exists {
		return user.ErrUsernameExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `INSERT INTO "user" (role, username, first_name, last_name, password_hash, created_at, updated_at, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, q,
		usr.Role, usr.Username, usr.FirstName, usr.LastName, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	).Scan(&usr.ID)
	if err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := query{}
	if filter != nil {
		// users with Username, FirstName or LastName matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q.where("(username ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?)", val, val, val)
		}
		if filter.Roles != nil {
			roles := make([]string, 0, len(filter.Roles))
			for _, r := range filter.Roles {
				roles = append(roles, string(r))
			}
			q.where("role = ANY(?)", pq.Array(roles))
		}
		if filter.CourseID > 0 {
			q.where("id IN (SELECT user_id FROM course_member WHERE course_id = ?)", filter.CourseID)
		}
		if filter.GroupID > 0 {
			q.where("id IN (SELECT user_id FROM group_member WHERE group_id = ?)", filter.GroupID)
		}
	}
	exec := getExec(ctx, repo.db)

	users := make([]user.User, 0)
	orderBy := orderingClauses(ordering, user.OrderingFields, "id ASC")
	if err := exec.SelectContext(ctx, &users, q.build(exec, `SELECT `+userColumns+` FROM "user"`, orderBy...), q.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := query{}
	switch {
	case filter.ID != 0:
		q.where("id = ?", filter.ID)
	case filter.Username != "":
		q.where("username = ?", filter.Username)
	default:
		return user.User{}, user.ErrNotFound
	}
	exec := getExec(ctx, repo.db)

	var usr user.User
	if err := exec.GetContext(ctx, &usr, q.build(exec, `SELECT `+userColumns+` FROM "user"`), q.args...); err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "finding user")
	}
	return usr, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `UPDATE "user" SET role = $2, username = $3, first_name = $4, last_name = $5, password_hash = $6,
		updated_at = $7, last_login = $8 WHERE id = $1`
	res, err := getExec(ctx, repo.db).ExecContext(ctx, q,
		usr.ID, usr.Role, usr.Username, usr.FirstName, usr.LastName, usr.PasswordHash, usr.UpdatedAt, usr.LastLogin,
	)
	if err = checkAffected(res, err); err != nil {
		return user.User{}, trapErr(err, user.ErrNotFound, "updating user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, trapErr(err, user.ErrNotFound, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}

// checkAffected turns an UPDATE/DELETE that matched no row into sql.ErrNoRows.
func checkAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if cnt == 0 {
		return sql.ErrNoRows
	}
	return nil
}
