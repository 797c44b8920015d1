package echoapi_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core/csvimport"
	"github.com/trezcool/gradebook/core/user"
	"github.com/trezcool/gradebook/testutil"
)

type csvUpload struct {
	metadata     string // sent as a form value
	metadataFile string // sent as a JSON file part
	csv          string
	csvType      string
	noFile       bool
}

func (up csvUpload) request(t *testing.T, cookie *http.Cookie) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if up.metadata != "" {
		if err := w.WriteField("metadata", up.metadata); err != nil {
			t.Fatal(err)
		}
	}
	if up.metadataFile != "" {
		part, err := w.CreateFormFile("metadata", "metadata.json")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(up.metadataFile))
	}
	if !up.noFile {
		ctype := up.csvType
		if ctype == "" {
			ctype = "text/csv"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="users.csv"`)
		h.Set("Content-Type", ctype)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write([]byte(up.csv))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/csv/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func runUpload(t *testing.T, app http.Handler, up csvUpload, cookie *http.Cookie) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, up.request(t, cookie))
	return rec
}

const usersCSV = "\ufeffName;LastName;ClassName;Role\n" +
	"John;Doe;10a;\n" +
	"Jane;Doe;10a,10b;banana\n" +
	"\n" +
	" Max ; Muster ;10a, 10b;Teacher\n" +
	"Broken;;10a;\n"

func Test_importApi_upload(t *testing.T) {
	app, env := setup(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.UserRepo, user.RoleAdmin, "admin", "Ada", "Admin")
	teacher := testutil.CreateUser(t, env.UserRepo, user.RoleTeacher, "mr.smith", "Will", "Smith")
	existing := testutil.CreateUser(t, env.UserRepo, user.RoleStudent, "john.doe", "John", "Doe")
	class10a := testutil.CreateCourse(t, env, "10a", teacher.ID)
	class10b := testutil.CreateCourse(t, env, "10b", teacher.ID)
	adminCookie := sessionCookie(t, env, admin)

	t.Run("admin only", func(t *testing.T) {
		rec := runUpload(t, app, csvUpload{metadata: `{"type": "USERS"}`, csv: usersCSV}, sessionCookie(t, env, teacher))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	badRequests := []struct {
		name     string
		up       csvUpload
		wantData []byte
	}{
		{
			name:     "missing metadata",
			up:       csvUpload{csv: usersCSV},
			wantData: marshallObj(t, map[string]string{"metadata": "this field is required"}),
		},
		{
			name:     "invalid metadata",
			up:       csvUpload{metadata: "USERS", csv: usersCSV},
			wantData: marshallObj(t, map[string]string{"metadata": "invalid JSON"}),
		},
		{
			name:     "unknown type",
			up:       csvUpload{metadata: `{"type": "GRADES"}`, csv: usersCSV},
			wantData: marshallObj(t, map[string]string{"type": csvimport.ErrUnknownType.Error()}),
		},
		{
			name:     "classes",
			up:       csvUpload{metadata: `{"type": "classes"}`, csv: usersCSV},
			wantData: marshallObj(t, httpErr{Error: "import type CLASSES is not supported"}),
		},
		{
			name:     "missing file",
			up:       csvUpload{metadata: `{"type": "USERS"}`, noFile: true},
			wantData: marshallObj(t, map[string]string{"file": "this field is required"}),
		},
		{
			name:     "not a csv",
			up:       csvUpload{metadata: `{"type": "USERS"}`, csv: "%PDF-1.4", csvType: "application/pdf"},
			wantData: marshallObj(t, map[string]string{"file": "unsupported file type"}),
		},
		{
			name:     "empty file",
			up:       csvUpload{metadata: `{"type": "USERS"}`, csv: ""},
			wantData: marshallObj(t, httpErr{Error: csvimport.ErrMissingHeader.Error()}),
		},
		{
			name:     "missing columns",
			up:       csvUpload{metadata: `{"type": "USERS"}`, csv: "name;classname\nJohn;10a\n"},
			wantData: marshallObj(t, httpErr{Error: "missing required column(s): lastname"}),
		},
	}
	for _, tt := range badRequests {
		t.Run(tt.name, func(t *testing.T) {
			rec := runUpload(t, app, tt.up, adminCookie)
			checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: tt.wantData}, rec)
		})
	}

	users, err := env.UserSvc.Query(ctx, nil, nil)
	assert.NoError(t, err)
	assert.Len(t, users, 3, "rejected uploads must not create users")

	t.Run("success", func(t *testing.T) {
		rec := runUpload(t, app, csvUpload{metadataFile: `{"type": "users"}`, csv: usersCSV, csvType: "application/vnd.ms-excel"}, adminCookie)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var report csvimport.Report
		decode(t, rec, &report)
		assert.Equal(t, 4, report.Processed)
		assert.Equal(t, 3, report.Created)
		assert.Equal(t, 1, report.Failed)
		assert.False(t, report.Success)
		assert.Equal(t, []string{"row 6 (Broken ): name and lastname are required"}, report.Errors)
		if assert.NotEmpty(t, report.Document) {
			_, err := env.Documents.Path(report.Document)
			assert.NoError(t, err)
		}

		john, err := env.UserSvc.GetByUsername(ctx, "john.doe1")
		if assert.NoError(t, err, "a username collision gets a numeric suffix") {
			assert.Equal(t, user.RoleStudent, john.Role)
			assert.NotEqual(t, existing.ID, john.ID)
		}
		jane, err := env.UserSvc.GetByUsername(ctx, "jane.doe")
		if assert.NoError(t, err) {
			assert.Equal(t, user.RoleStudent, jane.Role, "unknown roles default to STUDENT")
		}
		maxi, err := env.UserSvc.GetByUsername(ctx, "max.muster")
		if assert.NoError(t, err) {
			assert.Equal(t, user.RoleTeacher, maxi.Role)
			assert.Equal(t, "Max", maxi.FirstName)
		}

		c10a, err := env.CourseSvc.GetByID(ctx, class10a.ID)
		assert.NoError(t, err)
		assert.ElementsMatch(t, []int{john.ID, jane.ID, maxi.ID}, c10a.MemberIDs)
		c10b, err := env.CourseSvc.GetByID(ctx, class10b.ID)
		assert.NoError(t, err)
		assert.Equal(t, []int{maxi.ID}, c10b.MemberIDs, "students are only enrolled in their first class")
	})
}
