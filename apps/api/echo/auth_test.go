package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/gradebook/apps/api/echo"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

func Test_authApi_login(t *testing.T) {
	app, env := setup(t)
	teacher := testutil.CreateUser(t, env.UserRepo, user.RoleTeacher, "jane.roe", "Jane", "Roe")

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/login",
			body:     marshallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/api/auth/login",
			body:     marshallObj(t, LoginRequest{Username: "nobody", Password: testutil.DefaultPassword}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login",
			body:     marshallObj(t, LoginRequest{Username: "jane.roe", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "invalid credentials"}),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/api/auth/login",
			body: marshallObj(t, LoginRequest{Username: "  JANE.roe ", Password: testutil.DefaultPassword}),
		}
		rec := tt.run(t, app)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got user.User
		decode(t, rec, &got)
		assert.Equal(t, teacher.ID, got.ID)
		assert.True(t, got.LastLogin.Valid)

		cookies := rec.Result().Cookies()
		if assert.Len(t, cookies, 1) {
			assert.Equal(t, env.Conf.Server.SessionCookieName, cookies[0].Name)
			assert.True(t, cookies[0].HttpOnly)
			assert.NotEmpty(t, cookies[0].Value)

			// the cookie opens a session
			me := httpTest{path: "/api/auth/me", cookie: &http.Cookie{Name: cookies[0].Name, Value: cookies[0].Value}}
			rec = me.run(t, app)
			assert.Equal(t, http.StatusOK, rec.Code)
			decode(t, rec, &got)
			assert.Equal(t, "jane.roe", got.Username)
		}
	})
}

func Test_authApi_me(t *testing.T) {
	app, env := setup(t)
	student := testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe")
	ghost := testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "ghost", "Casper", "Ghost")
	ghostCookie := sessionCookie(t, env, ghost)
	if err := env.UserSvc.Delete(context.Background(), ghost.ID); err != nil {
		t.Fatal(err)
	}

	tests := []httpTest{
		{name: "Auth required", path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/api/auth/me", wantCode: http.StatusUnauthorized,
			cookie:   &http.Cookie{Name: env.Conf.Server.SessionCookieName, Value: "not.a.jwt"},
			wantData: marshallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name: "deleted user", path: "/api/auth/me", cookie: ghostCookie,
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{name: "ok", path: "/api/auth/me", cookie: sessionCookie(t, env, student), wantData: marshallObj(t, student)},
	}
	runHttpTests(t, app, tests)
}

func Test_authApi_logout(t *testing.T) {
	app, env := setup(t)

	tt := httpTest{method: http.MethodPost, path: "/api/auth/logout"}
	rec := tt.run(t, app)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, env.Conf.Server.SessionCookieName, cookies[0].Name)
		assert.Empty(t, cookies[0].Value)
		assert.True(t, cookies[0].MaxAge < 0)
	}
}

func Test_authApi_changePassword(t *testing.T) {
	app, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, user.RoleTeacher, "jane.roe", "Jane", "Roe")
	cookie := sessionCookie(t, env, usr)

	type body struct {
		CurrentPassword string `json:"current_password"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}

	tests := []httpTest{
		{
			name: "wrong current password", method: http.MethodPut, path: "/api/auth/password", cookie: cookie,
			body:     marshallObj(t, body{"wrong", "N3w-Passw0rd!", "N3w-Passw0rd!"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"current_password": "invalid password"}),
		},
		{
			name: "password policy", method: http.MethodPut, path: "/api/auth/password", cookie: cookie,
			body:     marshallObj(t, body{testutil.DefaultPassword, "12345678", "12345678"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "confirmation mismatch", method: http.MethodPut, path: "/api/auth/password", cookie: cookie,
			body:     marshallObj(t, body{testutil.DefaultPassword, "N3w-Passw0rd!", "N3w-Passw0rd?"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "ok", method: http.MethodPut, path: "/api/auth/password", cookie: cookie,
			body: marshallObj(t, body{testutil.DefaultPassword, "N3w-Passw0rd!", "N3w-Passw0rd!"}),
		},
	}
	runHttpTests(t, app, tests)

	updated, err := env.UserSvc.GetByID(context.Background(), usr.ID)
	assert.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("N3w-Passw0rd!"))
}
