package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
)

type txKey struct{}

// executor is implemented by both *sqlx.DB and *sqlx.Tx.
type executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ executor = (*sqlx.DB)(nil)
	_ executor = (*sqlx.Tx)(nil)
)

// getExec returns the transaction carried by ctx, if any, else the DB.
func getExec(ctx context.Context, db *sqlx.DB) executor {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

type transactor struct {
	db *sqlx.DB
}

var _ core.Transactor = (*transactor)(nil)

func NewTransactor(db *sqlx.DB) core.Transactor {
	return &transactor{db: db}
}

// WithinTx joins the transaction already carried by ctx instead of nesting a new one.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// query accumulates WHERE conditions written with `?` placeholders.
type query struct {
	conds []string
	args  []interface{}
}

func (q *query) where(cond string, args ...interface{}) {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
}

// build appends the WHERE & ORDER BY clauses to `base` and rebinds the placeholders for `exec`.
func (q *query) build(exec executor, base string, orderBy ...string) string {
	var sb strings.Builder
	sb.WriteString(base)
	if len(q.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.conds, " AND "))
	}
	if len(orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderBy, ", "))
	}
	return exec.Rebind(sb.String())
}

func orderingClauses(ordering []core.DBOrdering, allowed []string, fallback ...string) []string {
	clauses := make([]string, 0, len(ordering)+len(fallback))
	for _, ord := range ordering {
		for _, field := range allowed {
			if ord.Field == field {
				clauses = append(clauses, ord.String())
				break
			}
		}
	}
	return append(clauses, fallback...)
}

const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

// trapErr maps "no rows" to `notFound` and integrity violations to validation errors.
func trapErr(err error, notFound error, msg string) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return notFound
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return core.NewValidationError(errors.New("this resource is referenced by or references another resource"))
		case pqUniqueViolation:
			return core.NewValidationError(errors.New("this resource already exists"))
		}
	}
	return errors.Wrap(err, msg)
}

// memberIDs loads the user IDs of a membership table, keyed by owner ID.
func memberIDs(ctx context.Context, exec executor, table, ownerCol string, ownerIDs []int) (map[int][]int, error) {
	members := make(map[int][]int, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return members, nil
	}
	var rows []struct {
		OwnerID int `db:"owner_id"`
		UserID  int `db:"user_id"`
	}
	q := "SELECT " + ownerCol + " AS owner_id, user_id FROM " + table + " WHERE " + ownerCol + " = ANY($1) ORDER BY user_id"
	if err := exec.SelectContext(ctx, &rows, q, pq.Array(ownerIDs)); err != nil {
		return nil, err
	}
	for _, r := range rows {
		members[r.OwnerID] = append(members[r.OwnerID], r.UserID)
	}
	return members, nil
}

func addMembers(ctx context.Context, exec executor, table, ownerCol string, ownerID int, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}
	q := "INSERT INTO " + table + " (" + ownerCol + ", user_id) SELECT $1, unnest($2::int[]) ON CONFLICT DO NOTHING"
	_, err := exec.ExecContext(ctx, q, ownerID, pq.Array(userIDs))
	return err
}

func removeMembers(ctx context.Context, exec executor, table, ownerCol string, ownerID int, userIDs []int) error {
	if len(userIDs) == 0 {
		return nil
	}
	q := "DELETE FROM " + table + " WHERE " + ownerCol + " = $1 AND user_id = ANY($2)"
	_, err := exec.ExecContext(ctx, q, ownerID, pq.Array(userIDs))
	return err
}

func lowerAll(vals []string) []string {
	lowered := make([]string, 0, len(vals))
	for _, v := range vals {
		lowered = append(lowered, strings.ToLower(v))
	}
	return lowered
}
