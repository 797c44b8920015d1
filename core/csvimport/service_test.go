package csvimport_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core/csvimport"
	"github.com/trezcool/gradebook/core/user"
	pdfsvc "github.com/trezcool/gradebook/services/pdf"
	"github.com/trezcool/gradebook/testutil"
)

func newService(env *testutil.Env, docs user.CredentialsGenerator) csvimport.ServiceInterface {
	return csvimport.NewService(csvimport.Deps{
		UserRepo:   env.UserRepo,
		CourseRepo: env.CourseRepo,
		Tx:         env.Tx,
		Documents:  docs,
		Logger:     env.Logger,
	})
}

func TestBaseUsername(t *testing.T) {
	tests := []struct {
		first, last string
		want        string
	}{
		{"John", "Doe", "john.doe"},
		{"Anna Lena", "van der Berg", "annalena.vanderberg"},
		{"Jürgen", "Groß", "juergen.gross"},
		{"Zoë", "O'Neil", "zoe.oneil"},
		{"José", "Çelik", "jose.celik"},
		{"Ju\u0308rgen", "Dvořák", "juergen.dvorak"},
		{"Łukasz", "Nowak", "ukasz.nowak"},
		{"   ", "Doe", ""},
	}
	for _, tt := range tests {
		t.Run(tt.first+" "+tt.last, func(t *testing.T) {
			assert.Equal(t, tt.want, csvimport.BaseUsername(tt.first, tt.last))
		})
	}
}

func TestService_Import(t *testing.T) {
	env := testutil.NewEnv(t)
	docs := pdfsvc.NewServiceMock()
	svc := newService(env, docs)
	ctx := context.Background()

	report, err := svc.Import(ctx, csvimport.Metadata{Type: "USERS"}, strings.NewReader(
		"name;lastname\nJohn;Doe\nJohn;Doe\n",
	))
	assert.NoError(t, err)
	assert.Equal(t, csvimport.Report{Processed: 2, Created: 2, Errors: []string{}, Success: true, Document: "credentials-mock-1.pdf"}, report)

	creds := docs.Last()
	if assert.Len(t, creds, 2) {
		assert.Equal(t, "john.doe", creds[0].User.Username)
		assert.Equal(t, "john.doe1", creds[1].User.Username)
		for _, cred := range creds {
			assert.Len(t, cred.Password, user.GeneratedPasswordLength)
			assert.NoError(t, cred.User.CheckPassword(cred.Password), "only the hash of the handed out password is stored")
			assert.Equal(t, user.RoleStudent, cred.User.Role)
		}
	}
}

func TestService_Import_usernameExhausted(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env, pdfsvc.NewServiceMock())

	testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe")
	for i := 1; i <= csvimport.MaxUsernameAttempts; i++ {
		testutil.CreateUser(t, env.UserRepo, user.RoleStudent, fmt.Sprintf("john.doe%d", i), "John", "Doe")
	}

	report, err := svc.Import(context.Background(), csvimport.Metadata{Type: "USERS"}, strings.NewReader("name;lastname\nJohn;Doe\n"))
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.False(t, report.Success)
	assert.Empty(t, report.Document)
	if assert.Len(t, report.Errors, 1) {
		assert.Contains(t, report.Errors[0], csvimport.ErrUsernameTaken.Error())
	}

	users, err := env.UserRepo.QueryUsers(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Len(t, users, csvimport.MaxUsernameAttempts+1, "nothing is overwritten")
}

func TestService_Import_documentFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	docs := pdfsvc.NewServiceMock()
	docs.Err = errors.New("disk full")
	svc := newService(env, docs)

	report, err := svc.Import(context.Background(), csvimport.Metadata{Type: "USERS"}, strings.NewReader("name;lastname\nJane;Roe\n"))
	assert.NoError(t, err, "a failed credentials document does not fail the import")
	assert.Equal(t, 1, report.Created)
	assert.True(t, report.Success)
	assert.Empty(t, report.Document)

	_, err = env.UserSvc.GetByUsername(context.Background(), "jane.roe")
	assert.NoError(t, err, "created users are kept")
}

func TestService_Import_unsupported(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := newService(env, pdfsvc.NewServiceMock())

	_, err := svc.Import(context.Background(), csvimport.Metadata{Type: csvimport.TypeClasses}, strings.NewReader("name;lastname\n"))
	assert.EqualError(t, err, csvimport.ErrUnsupportedType.Error())
}
