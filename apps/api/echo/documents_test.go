package echoapi_test

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core/user"
	pdfsvc "github.com/trezcool/gradebook/services/pdf"
	"github.com/trezcool/gradebook/testutil"
)

func Test_documentApi(t *testing.T) {
	app, env := setup(t)
	admin := testutil.CreateUser(t, env.UserRepo, user.RoleAdmin, "admin", "Ada", "Admin")
	student := testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe")
	adminCookie := sessionCookie(t, env, admin)

	name, err := env.Documents.GenerateCredentials(context.Background(), []user.Credentials{{User: student, Password: "Xy7!abcdEFGH"}})
	if err != nil {
		t.Fatal(err)
	}
	// outside of the output directory
	secret := filepath.Join(filepath.Dir(env.Conf.Files.OutputDir), "secret.pdf")
	if err = os.WriteFile(secret, []byte("%PDF-secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(secret) })

	invalidName := marshallObj(t, httpErr{Error: pdfsvc.ErrInvalidFileName.Error()})
	tests := []httpTest{
		{name: "Auth required", path: "/api/pdfs", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "admin only", path: "/api/pdfs", cookie: sessionCookie(t, env, student), wantCode: http.StatusForbidden},
		{name: "traversal", path: "/api/pdfs/..%2Fsecret.pdf", cookie: adminCookie, wantCode: http.StatusBadRequest, wantData: invalidName},
		{name: "hidden file", path: "/api/pdfs/.secret.pdf", cookie: adminCookie, wantCode: http.StatusBadRequest, wantData: invalidName},
		{name: "not a pdf", path: "/api/pdfs/notes.txt", cookie: adminCookie, wantCode: http.StatusBadRequest, wantData: invalidName},
		{
			name: "missing", path: "/api/pdfs/missing.pdf", cookie: adminCookie,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "file not found"}),
		},
	}
	runHttpTests(t, app, tests)

	t.Run("list", func(t *testing.T) {
		rec := httpTest{path: "/api/pdfs", cookie: adminCookie}.run(t, app)
		assert.Equal(t, http.StatusOK, rec.Code)

		var files []pdfsvc.FileInfo
		decode(t, rec, &files)
		if assert.Len(t, files, 1) {
			assert.Equal(t, name, files[0].Name)
			assert.Greater(t, files[0].Size, int64(0))
		}
	})

	t.Run("download", func(t *testing.T) {
		rec := httpTest{path: "/api/pdfs/" + name, cookie: adminCookie}.run(t, app)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), name)
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	})
}
