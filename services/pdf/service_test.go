package pdfsvc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

func newTestService(t *testing.T) *Service {
	return NewService(&core.Config{AppName: "Gradebook", Files: core.FilesConfig{OutputDir: filepath.Join(t.TempDir(), "pdfs")}})
}

func TestService_GenerateCredentials(t *testing.T) {
	svc := newTestService(t)

	files, err := svc.List()
	assert.NoError(t, err)
	assert.Empty(t, files, "a missing output directory lists nothing")

	_, err = svc.GenerateCredentials(context.Background(), nil)
	assert.Error(t, err)

	name, err := svc.GenerateCredentials(context.Background(), []user.Credentials{
		{User: user.User{Username: "juergen.gross", FirstName: "Jürgen", LastName: "Groß", Role: user.RoleTeacher}, Password: "aB3$efgh1234", ClassNames: []string{"10a", "10b"}},
		{User: user.User{Username: "john.doe", FirstName: "John", LastName: "Doe", Role: user.RoleStudent}, Password: "Zy9!wxyz5678"},
	})
	if !assert.NoError(t, err) {
		return
	}

	path, err := svc.Path(name)
	assert.NoError(t, err)
	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))

	files, err = svc.List()
	assert.NoError(t, err)
	if assert.Len(t, files, 1) {
		assert.Equal(t, name, files[0].Name)
		assert.Equal(t, int64(len(data)), files[0].Size)
	}
}

func TestService_Path(t *testing.T) {
	svc := newTestService(t)
	assert.NoError(t, os.MkdirAll(filepath.Join(svc.outputDir, "dir.pdf"), 0o750))
	assert.NoError(t, os.WriteFile(filepath.Join(svc.outputDir, "ok.PDF"), []byte("%PDF"), 0o600))
	assert.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(svc.outputDir), "secret.pdf"), []byte("%PDF"), 0o600))

	invalid := []string{"", "../secret.pdf", "..\\secret.pdf", "sub/ok.pdf", ".hidden.pdf", "notes.txt", "/etc/passwd.pdf", ".."}
	for _, name := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Path(name)
			assert.True(t, core.IsValidation(err), "%q: got %v", name, err)
		})
	}

	_, err := svc.Path("missing.pdf")
	assert.True(t, core.IsNotFound(err))
	_, err = svc.Path("dir.pdf")
	assert.True(t, core.IsNotFound(err))

	path, err := svc.Path("ok.PDF")
	assert.NoError(t, err)
	assert.Equal(t, "ok.PDF", filepath.Base(path))
}
