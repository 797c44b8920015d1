package csvimport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/course"
	"github.com/trezcool/gradebook/core/user"
)

const (
	delimiter = ';'

	colName      = "name"
	colLastName  = "lastname"
	colClassName = "classname"
	colRole      = "role"

	// MaxUsernameAttempts bounds the numeric suffixes tried on username collision.
	MaxUsernameAttempts = 10
)

var (
	ErrMissingHeader   = errors.New("the file must start with a header row")
	ErrUsernameTaken   = errors.New("no free username found")
	usernameReplacer   = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	usernameAllowedSet = "abcdefghijklmnopqrstuvwxyz0123456789._-"
)

type (
	ServiceInterface interface {
		// Import reads a `;` delimited file and creates the users it lists.
		// Row failures are collected in the Report; only unreadable input returns an error.
		Import(ctx context.Context, meta Metadata, r io.Reader) (Report, error)
	}

	Deps struct {
		UserRepo   user.Repository
		CourseRepo course.Repository
		Tx         core.Transactor
		Documents  user.CredentialsGenerator
		Logger     core.Logger
	}

	service struct {
		usrRepo    user.Repository
		courseRepo course.Repository
		tx         core.Transactor
		docs       user.CredentialsGenerator
		logger     core.Logger
	}

	row struct {
		line       int
		firstName  string
		lastName   string
		role       user.Role
		classNames []string
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(deps Deps) ServiceInterface {
	return &service{
		usrRepo:    deps.UserRepo,
		courseRepo: deps.CourseRepo,
		tx:         deps.Tx,
		docs:       deps.Documents,
		logger:     deps.Logger,
	}
}

func (svc *service) Import(ctx context.Context, meta Metadata, r io.Reader) (Report, error) {
	if err := meta.Validate(); err != nil {
		return Report{}, err
	}
	rows, err := svc.parse(r)
	if err != nil {
		return Report{}, err
	}

	report := Report{Errors: []string{}}
	creds := make([]user.Credentials, 0, len(rows))
	for _, rw := range rows {
		report.Processed++
		cred, err := svc.importRow(ctx, rw)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d (%s %s): %v", rw.line, rw.firstName, rw.lastName, err))
			continue
		}
		report.Created++
		creds = append(creds, cred)
	}

	if len(creds) > 0 && svc.docs != nil {
		doc, err := svc.docs.GenerateCredentials(ctx, creds)
		if err != nil {
			svc.logger.Error("generating credentials document", errors.Wrap(err, "csv import"))
		} else {
			report.Document = doc
		}
	}
	report.Success = report.Failed == 0
	return report, nil
}

// parse reads every record before anything is written, so that an unreadable file creates no user.
func (svc *service) parse(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, core.NewValidationError(ErrMissingHeader)
		}
		return nil, core.NewValidationError(errors.Wrap(err, "reading header"))
	}
	columns := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := columns[col]; !dup && col != "" {
			columns[col] = i
		}
	}
	var missing []string
	for _, col := range []string{colName, colLastName} {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, core.NewValidationError(fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", ")))
	}

	var rows []row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "reading file"))
		}
		if isBlank(rec) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, svc.parseRow(line, columns, rec))
	}
	return rows, nil
}

func (svc *service) parseRow(line int, columns map[string]int, rec []string) row {
	get := func(col string) string {
		if idx, ok := columns[col]; ok && idx < len(rec) {
			return strings.TrimSpace(rec[idx])
		}
		return ""
	}

	rw := row{
		line:      line,
		firstName: core.CleanString(get(colName)),
		lastName:  core.CleanString(get(colLastName)),
		role:      user.RoleStudent,
	}
	if val := get(colRole); val != "" {
		if role, ok := user.ParseRole(val); ok {
			rw.role = role
		} else {
			svc.logger.Warn(fmt.Sprintf("row %d: unknown role %q, defaulting to %s", line, val, user.RoleStudent))
		}
	}
	for _, name := range strings.Split(get(colClassName), ",") {
		if name = core.CleanString(name); name != "" {
			rw.classNames = append(rw.classNames, name)
		}
	}
	if rw.role == user.RoleStudent && len(rw.classNames) > 1 {
		svc.logger.Warn(fmt.Sprintf(
			"row %d: a student can only be enrolled in one class, ignoring %s",
			line, strings.Join(rw.classNames[1:], ", "),
		))
		rw.classNames = rw.classNames[:1]
	}
	return rw
}

func (svc *service) importRow(ctx context.Context, rw row) (user.Credentials, error) {
	if rw.firstName == "" || rw.lastName == "" {
		return user.Credentials{}, errors.New("name and lastname are required")
	}
	base := BaseUsername(rw.firstName, rw.lastName)
	if base == "" {
		return user.Credentials{}, errors.New("cannot derive a username")
	}
	pwd, err := user.GeneratePassword(user.GeneratedPasswordLength)
	if err != nil {
		return user.Credentials{}, errors.Wrap(err, "generating password")
	}

	var cred user.Credentials
	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		uname, err := svc.freeUsername(ctx, base)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		usr := user.User{
			Role:      rw.role,
			Username:  uname,
			FirstName: rw.firstName,
			LastName:  rw.lastName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "setting password")
		}
		if usr, err = svc.usrRepo.CreateUser(ctx, usr); err != nil {
			return errors.Wrap(err, "creating user")
		}

		var enrolled []string
		for _, name := range rw.classNames {
			c, err := svc.courseRepo.GetCourseByName(ctx, name)
			if err != nil {
				if core.IsNotFound(err) {
					svc.logger.Warn(fmt.Sprintf("row %d: class %q not found, enrollment skipped", rw.line, name))
					continue
				}
				return errors.Wrap(err, "finding class")
			}
			if err = svc.courseRepo.AddCourseMembers(ctx, c.ID, usr.ID); err != nil {
				return errors.Wrap(err, "enrolling user")
			}
			enrolled = append(enrolled, c.Name)
		}

		cred = user.Credentials{User: usr, Password: pwd, ClassNames: enrolled}
		return nil
	})
	if err != nil {
		return user.Credentials{}, err
	}
	return cred, nil
}

// freeUsername returns `base`, or `base` followed by the first free numeric suffix.
func (svc *service) freeUsername(ctx context.Context, base string) (string, error) {
	for i := 0; i <= MaxUsernameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = base + strconv.Itoa(i)
		}
		err := svc.usrRepo.CheckUsernameUniqueness(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if err != user.ErrUsernameExists {
			return "", errors.Wrap(err, "checking username uniqueness")
		}
	}
	return "", errors.WithMessagef(ErrUsernameTaken, "%s after %d attempts", base, MaxUsernameAttempts)
}

// BaseUsername derives "firstname.lastname" in lower case, without whitespace.
// German umlauts are transliterated, other accents are stripped ("José" -> "jose")
// and any character the username format still rejects is dropped.
func BaseUsername(firstName, lastName string) string {
	clean := func(s string) string {
		s = usernameReplacer.Replace(strings.ToLower(norm.NFC.String(s)))
		// chained transformers are stateful, build one per call
		noMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
		if stripped, _, err := transform.String(noMarks, s); err == nil {
			s = stripped
		}
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) || !strings.ContainsRune(usernameAllowedSet, r) {
				return -1
			}
			return r
		}, s)
	}
	first, last := clean(firstName), clean(lastName)
	if first == "" || last == "" {
		return ""
	}
	return first + "." + last
}

func isBlank(rec []string) bool {
	for _, field := range rec {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
