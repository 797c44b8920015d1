package pdfsvc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/user"
)

var (
	ErrInvalidFileName = errors.New("invalid file name")
	ErrFileNotFound    = core.NewNotFoundError("file not found")
)

// FileInfo describes a generated document.
type FileInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Service renders credentials documents into the configured output directory and serves them back.
type Service struct {
	outputDir string
	appName   string
}

var _ user.CredentialsGenerator = (*Service)(nil)

func NewService(conf *core.Config) *Service {
	return &Service{outputDir: conf.Files.OutputDir, appName: conf.AppName}
}

// GenerateCredentials renders one page per user and returns the file name of the document.
func (svc *Service) GenerateCredentials(ctx context.Context, creds []user.Credentials) (string, error) {
	if len(creds) == 0 {
		return "", errors.New("no credentials to render")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(svc.outputDir, 0o750); err != nil {
		return "", errors.Wrap(err, "creating output directory")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252, for umlauts
	pdf.SetTitle(tr(svc.appName+" credentials"), false)
	pdf.SetAuthor(tr(svc.appName), false)
	pdf.SetCreationDate(time.Now().UTC())

	for _, cred := range creds {
		svc.renderPage(pdf, tr, cred)
	}

	name := fmt.Sprintf("credentials-%s-%s.pdf", time.Now().UTC().Format("20060102-150405"), uuid.New().String())
	if err := pdf.OutputFileAndClose(filepath.Join(svc.outputDir, name)); err != nil {
		return "", errors.Wrap(err, "writing credentials document")
	}
	return name, nil
}

func (svc *Service) renderPage(pdf *fpdf.Fpdf, tr func(string) string, cred user.Credentials) {
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(svc.appName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr("Your login credentials"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Name", cred.User.FullName()},
		{"Role", string(cred.User.Role)},
		{"Username", cred.User.Username},
		{"Password", cred.Password},
	}
	if len(cred.ClassNames) > 0 {
		rows = append(rows, [2]string{"Class", strings.Join(cred.ClassNames, ", ")})
	}
	for _, r := range rows {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 9, tr(r[0]), "1", 0, "L", false, 0, "")
		if r[0] == "Password" || r[0] == "Username" {
			pdf.SetFont("Courier", "", 12)
		} else {
			pdf.SetFont("Helvetica", "", 12)
		}
		pdf.CellFormat(0, 9, tr(r[1]), "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 5, tr("Please change your password after your first login."), "", "L", false)
}

// List returns the generated documents, most recent first.
func (svc *Service) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(svc.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, errors.Wrap(err, "reading output directory")
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed meanwhile
		}
		files = append(files, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime().UTC()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].ModTime.After(files[j].ModTime)
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Path resolves `name` inside the output directory.
// `name` must be a plain base name ending in ".pdf" that cannot escape the output directory.
func (svc *Service) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", core.NewValidationError(ErrInvalidFileName)
	}

	dir, err := filepath.Abs(svc.outputDir)
	if err != nil {
		return "", errors.Wrap(err, "resolving output directory")
	}
	path := filepath.Clean(filepath.Join(dir, name))
	if rel, err := filepath.Rel(dir, path); err != nil || rel != name {
		return "", core.NewValidationError(ErrInvalidFileName)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound
		}
		return "", errors.Wrap(err, "reading file")
	}
	if info.IsDir() {
		return "", ErrFileNotFound
	}
	return path, nil
}
