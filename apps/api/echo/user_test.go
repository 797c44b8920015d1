package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

type userFixtures struct {
	admin, teacher, john, jane user.User
	adminCookie, teacherCookie *http.Cookie
}

func createUsers(t *testing.T, env *testutil.Env) userFixtures {
	f := userFixtures{
		admin:   testutil.CreateUser(t, env.UserRepo, user.RoleAdmin, "admin", "Ada", "Admin"),
		teacher: testutil.CreateUser(t, env.UserRepo, user.RoleTeacher, "mr.smith", "Will", "Smith"),
		john:    testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe"),
		jane:    testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "jane.doe", "Jane", "Doe"),
	}
	f.adminCookie = sessionCookie(t, env, f.admin)
	f.teacherCookie = sessionCookie(t, env, f.teacher)
	return f
}

func Test_userApi_permissions(t *testing.T) {
	app, env := setup(t)
	f := createUsers(t, env)

	forbidden := marshallObj(t, httpErr{Error: "permission denied"})
	tests := []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "teacher", path: "/api/users", cookie: f.teacherCookie, wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "student", path: fmt.Sprintf("/api/users/%d", f.john.ID), cookie: sessionCookie(t, env, f.john),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{name: "admin", path: "/api/users/roles", cookie: f.adminCookie, wantData: marshallObj(t, user.Roles)},
	}
	runHttpTests(t, app, tests)
}

func Test_userApi_query(t *testing.T) {
	app, env := setup(t)
	f := createUsers(t, env)
	c := testutil.CreateCourse(t, env, "10a", f.teacher.ID, f.john.ID)

	tests := []httpTest{
		{name: "all", path: "/api/users", cookie: f.adminCookie, wantData: marshallList(t, f.admin, f.teacher, f.john, f.jane)},
		{name: "search", path: "/api/users?search=DOE", cookie: f.adminCookie, wantData: marshallList(t, f.john, f.jane)},
		{
			name: "roles", path: "/api/users?role=student&role=admin", cookie: f.adminCookie,
			wantData: marshallList(t, f.admin, f.john, f.jane),
		},
		{name: "unknown role", path: "/api/users?role=banana", cookie: f.adminCookie, wantData: marshallList(t)},
		{
			name: "course members", path: fmt.Sprintf("/api/users?course_id=%d", c.ID), cookie: f.adminCookie,
			wantData: marshallList(t, f.john),
		},
		{
			name: "ordering", path: "/api/users?role=student&ordering=-first_name,bogus", cookie: f.adminCookie,
			wantData: marshallList(t, f.john, f.jane),
		},
		{
			name: "ordering ascending", path: "/api/users?role=student&ordering=first_name", cookie: f.adminCookie,
			wantData: marshallList(t, f.jane, f.john),
		},
	}
	runHttpTests(t, app, tests)
}

func Test_userApi_create(t *testing.T) {
	app, env := setup(t)
	f := createUsers(t, env)

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/users", cookie: f.adminCookie,
			body:     marshallObj(t, user.NewUser{}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{
				"role":             "this field is required",
				"username":         "this field is required",
				"first_name":       "this field is required",
				"last_name":        "this field is required",
				"password":         "this field is required",
				"password_confirm": "this field is required",
			}),
		},
		{
			name: "username taken", method: http.MethodPost, path: "/api/users", cookie: f.adminCookie,
			body: marshallObj(t, user.NewUser{
				Role: user.RoleStudent, Username: "John.Doe", FirstName: "John", LastName: "Other",
				Password: testutil.DefaultPassword, PasswordConfirm: testutil.DefaultPassword,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/api/users", cookie: f.adminCookie,
			body: marshallObj(t, user.NewUser{
				Role: user.RoleStudent, Username: "max", FirstName: "Max", LastName: "Muster",
				Password: "password", PasswordConfirm: "password",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/api/users", cookie: f.adminCookie,
			body: marshallObj(t, user.NewUser{
				Role: "teacher", Username: " Max.Muster ", FirstName: " Max ", LastName: "Muster",
				Password: testutil.DefaultPassword, PasswordConfirm: testutil.DefaultPassword,
			}),
		}
		rec := tt.run(t, app)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got user.User
		decode(t, rec, &got)
		assert.NotZero(t, got.ID)
		assert.Equal(t, user.RoleTeacher, got.Role)
		assert.Equal(t, "max.muster", got.Username)
		assert.Equal(t, "Max", got.FirstName)
		assert.False(t, got.LastLogin.Valid)
	})
}

func Test_userApi_update(t *testing.T) {
	app, env := setup(t)
	f := createUsers(t, env)

	type body map[string]string
	tests := []httpTest{
		{
			name: "not found", method: http.MethodPut, path: "/api/users/999", cookie: f.adminCookie,
			body: marshallObj(t, body{"first_name": "X"}), wantCode: http.StatusNotFound,
		},
		{
			name: "invalid id", method: http.MethodPut, path: "/api/users/abc", cookie: f.adminCookie,
			body: marshallObj(t, body{"first_name": "X"}), wantCode: http.StatusNotFound,
		},
		{
			name: "demote oneself", method: http.MethodPut, path: fmt.Sprintf("/api/users/%d", f.admin.ID), cookie: f.adminCookie,
			body: marshallObj(t, body{"role": "STUDENT"}), wantCode: http.StatusForbidden,
		},
		{
			name: "invalid role", method: http.MethodPut, path: fmt.Sprintf("/api/users/%d", f.john.ID), cookie: f.adminCookie,
			body:     marshallObj(t, body{"role": "banana"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"role": "invalid role"}),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("partial update", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPut, path: fmt.Sprintf("/api/users/%d", f.john.ID), cookie: f.adminCookie,
			body: marshallObj(t, body{"last_name": " Dorian "}),
		}
		rec := tt.run(t, app)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got user.User
		decode(t, rec, &got)
		assert.Equal(t, "John", got.FirstName)
		assert.Equal(t, "Dorian", got.LastName)
		assert.Equal(t, "john.doe", got.Username)
		assert.Equal(t, user.RoleStudent, got.Role)
	})
}

func Test_userApi_destroy(t *testing.T) {
	app, env := setup(t)
	f := createUsers(t, env)

	tests := []httpTest{
		{
			name: "delete oneself", method: http.MethodDelete, path: fmt.Sprintf("/api/users/%d", f.admin.ID),
			cookie: f.adminCookie, wantCode: http.StatusForbidden,
		},
		{
			name: "delete multiple with oneself", method: http.MethodDelete,
			path:   fmt.Sprintf("/api/users?id=%d&id=%d", f.jane.ID, f.admin.ID),
			cookie: f.adminCookie, wantCode: http.StatusForbidden,
		},
		{
			name: "delete one", method: http.MethodDelete, path: fmt.Sprintf("/api/users/%d", f.john.ID),
			cookie: f.adminCookie, wantCode: http.StatusNoContent,
		},
		{
			name: "deleted", path: fmt.Sprintf("/api/users/%d", f.john.ID),
			cookie: f.adminCookie, wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "delete multiple", method: http.MethodDelete, path: fmt.Sprintf("/api/users?id=%d", f.jane.ID),
			cookie: f.adminCookie, wantCode: http.StatusNoContent,
		},
		{name: "delete none", method: http.MethodDelete, path: "/api/users", cookie: f.adminCookie, wantCode: http.StatusNoContent},
	}
	runHttpTests(t, app, tests)

	users, err := env.UserSvc.Query(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, []user.User{f.admin, f.teacher}, users)
}

func Test_userApi_credentials(t *testing.T) {
	app, env := setup(t)
	f := createUsers(t, env)

	tt := httpTest{method: http.MethodPost, path: fmt.Sprintf("/api/users/%d/credentials", f.john.ID), cookie: f.adminCookie}
	rec := tt.run(t, app)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got DocumentResponse
	decode(t, rec, &got)
	assert.True(t, strings.HasPrefix(got.Document, "credentials-"), got.Document)
	_, err := env.Documents.Path(got.Document)
	assert.NoError(t, err)

	// the old password no longer works
	usr, err := env.UserSvc.GetByID(context.Background(), f.john.ID)
	assert.NoError(t, err)
	assert.Error(t, usr.CheckPassword(testutil.DefaultPassword))

	t.Run("not found", func(t *testing.T) {
		tt := httpTest{method: http.MethodPost, path: "/api/users/999/credentials", cookie: f.adminCookie}
		rec := tt.run(t, app)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
