package sqlxrepos

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/question"
)

// pgExec only rebinds queries, it is never connected.
func pgExec() executor {
	return sqlx.NewDb(nil, "postgres")
}

func Test_query_build(t *testing.T) {
	exec := pgExec()

	t.Run("no conditions", func(t *testing.T) {
		q := query{}
		assert.Equal(t, `SELECT * FROM "user"`, q.build(exec, `SELECT * FROM "user"`))
		assert.Empty(t, q.args)
	})

	t.Run("conditions & ordering", func(t *testing.T) {
		q := query{}
		q.where("lower(name) = lower(?)", "10A")
		q.where("NOT (id = ANY(?))", pq.Array([]int{1, 2}))
		got := q.build(exec, "SELECT * FROM course", "name ASC", "id ASC")
		assert.Equal(t, "SELECT * FROM course WHERE lower(name) = lower($1) AND NOT (id = ANY($2)) ORDER BY name ASC, id ASC", got)
		assert.Len(t, q.args, 2)
	})

	t.Run("exists wrapper", func(t *testing.T) {
		q := query{}
		q.where("lower(username) = ?", "john.doe")
		q.where("NOT (id = ANY(?))", pq.Array([]int{3}))
		got := q.build(exec, `SELECT EXISTS (SELECT 1 FROM "user"`) + ")"
		assert.Equal(t, `SELECT EXISTS (SELECT 1 FROM "user" WHERE lower(username) = $1 AND NOT (id = ANY($2)))`, got)
	})
}

func Test_orderingClauses(t *testing.T) {
	ordering := []core.DBOrdering{
		{Field: "last_name", Ascending: true},
		{Field: "password_hash", Ascending: false},
		{Field: "id", Ascending: false},
	}
	got := orderingClauses(ordering, []string{"last_name", "id"}, "first_name ASC")
	assert.Equal(t, []string{"last_name ASC", "id DESC", "first_name ASC"}, got)
	assert.Equal(t, []string{"id ASC"}, orderingClauses(nil, []string{"id"}, "id ASC"))
}

func Test_trapErr(t *testing.T) {
	notFound := core.NewNotFoundError("thing not found")

	assert.NoError(t, trapErr(nil, notFound, "loading thing"))
	assert.Equal(t, notFound, trapErr(sql.ErrNoRows, notFound, "loading thing"))
	assert.True(t, core.IsValidation(trapErr(&pq.Error{Code: pqUniqueViolation}, notFound, "creating thing")))
	assert.True(t, core.IsValidation(trapErr(errors.Wrap(&pq.Error{Code: pqForeignKeyViolation}, "exec"), notFound, "deleting thing")))

	other := errors.New("connection reset")
	err := trapErr(other, notFound, "loading thing")
	assert.Equal(t, other, errors.Cause(err))
	assert.True(t, strings.HasPrefix(err.Error(), "loading thing: "))
}

func Test_bindAnswers(t *testing.T) {
	now := time.Now().UTC()
	answers := []question.Answer{
		{ProjectQuestionID: 1, AuthorID: 2, RecipientID: 3, Grade: null.Float64From(5), CreatedAt: now},
		{ProjectQuestionID: 4, AuthorID: 2, RecipientID: 3, Text: null.StringFrom("More tests"), CreatedAt: now},
	}

	q, args, err := bindAnswers(pgExec(), answers)
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, strings.HasPrefix(q, "INSERT INTO answer (project_question_id, author_id, recipient_id, grade, text, created_at)"))
	assert.Contains(t, q, "$12")
	assert.NotContains(t, q, "$13")
	assert.NotContains(t, q, ":author_id")
	if assert.Len(t, args, 12) {
		assert.Equal(t, []interface{}{1, 2, 3, null.Float64From(5), null.String{}, now}, args[:6])
		assert.Equal(t, []interface{}{4, 2, 3, null.Float64{}, null.StringFrom("More tests"), now}, args[6:])
	}
}
