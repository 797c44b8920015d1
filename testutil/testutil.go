// Package testutil wires the services on top of the in-memory storage for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/course"
	"github.com/trezcool/gradebook/core/csvimport"
	"github.com/trezcool/gradebook/core/grade"
	"github.com/trezcool/gradebook/core/group"
	"github.com/trezcool/gradebook/core/performance"
	"github.com/trezcool/gradebook/core/project"
	"github.com/trezcool/gradebook/core/question"
	"github.com/trezcool/gradebook/core/subject"
	"github.com/trezcool/gradebook/core/user"
	logsvc "github.com/trezcool/gradebook/services/logger"
	pdfsvc "github.com/trezcool/gradebook/services/pdf"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
)

// DefaultPassword satisfies the password policy.
const DefaultPassword = "Sup3r-S3cret!"

type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	DB              *inmemdb.DB
	Tx              core.Transactor
	UserRepo        user.Repository
	CourseRepo      course.Repository
	ProjectRepo     project.Repository
	GroupRepo       group.Repository
	SubjectRepo     subject.Repository
	PerformanceRepo performance.Repository
	GradeRepo       grade.Repository
	QuestionRepo    question.Repository

	UserSvc        user.ServiceInterface
	CourseSvc      course.ServiceInterface
	ProjectSvc     project.ServiceInterface
	GroupSvc       group.ServiceInterface
	SubjectSvc     subject.ServiceInterface
	PerformanceSvc performance.ServiceInterface
	GradeSvc       grade.ServiceInterface
	QuestionSvc    question.ServiceInterface
	ImportSvc      csvimport.ServiceInterface
	Documents      *pdfsvc.Service
}

func NewConfig(t *testing.T) *core.Config {
	return &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Gradebook",
		SecretKey: "test-secret",
		WorkDir:   core.Getwd(),
		Server: core.ServerConfig{
			Host:                   "localhost",
			Address:                ":0",
			ShutdownTimeout:        time.Second,
			SessionCookieName:      "gradebook_session",
			SessionExpirationDelta: time.Hour,
			AllowedOrigins:         []string{"http://localhost:3000"},
		},
		Files: core.FilesConfig{OutputDir: t.TempDir()},
	}
}

func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	question.InitValidators(validate, translator)
	return validate, translator
}

// NewEnv returns services backed by a fresh in-memory database.
func NewEnv(t *testing.T) *Env {
	conf := NewConfig(t)
	validate, translator := NewValidator()
	db := inmemdb.Open()

	env := &Env{
		Conf:       conf,
		Logger:     NewLogger(conf),
		Validate:   validate,
		Translator: translator,

		DB:              db,
		Tx:              inmemdb.NewTransactor(db),
		UserRepo:        inmemdb.NewUserRepository(db),
		CourseRepo:      inmemdb.NewCourseRepository(db),
		ProjectRepo:     inmemdb.NewProjectRepository(db),
		GroupRepo:       inmemdb.NewGroupRepository(db),
		SubjectRepo:     inmemdb.NewSubjectRepository(db),
		PerformanceRepo: inmemdb.NewPerformanceRepository(db),
		GradeRepo:       inmemdb.NewGradeRepository(db),
		QuestionRepo:    inmemdb.NewQuestionRepository(db),
		Documents:       pdfsvc.NewService(conf),
	}

	env.UserSvc = user.NewService(env.UserRepo, env.Tx)
	env.CourseSvc = course.NewService(env.CourseRepo, env.UserRepo, env.Tx)
	env.ProjectSvc = project.NewService(env.ProjectRepo, env.CourseRepo, env.Tx)
	env.GroupSvc = group.NewService(env.GroupRepo, env.ProjectRepo, env.UserRepo, env.Tx)
	env.SubjectSvc = subject.NewService(env.SubjectRepo, env.ProjectRepo, env.Tx)
	env.PerformanceSvc = performance.NewService(env.PerformanceRepo, env.SubjectRepo, env.Tx)
	env.GradeSvc = grade.NewService(grade.Deps{
		Repo:            env.GradeRepo,
		ProjectRepo:     env.ProjectRepo,
		SubjectRepo:     env.SubjectRepo,
		PerformanceRepo: env.PerformanceRepo,
		GroupRepo:       env.GroupRepo,
		UserRepo:        env.UserRepo,
		Tx:              env.Tx,
	})
	env.QuestionSvc = question.NewService(question.Deps{
		Repo:        env.QuestionRepo,
		ProjectRepo: env.ProjectRepo,
		SubjectRepo: env.SubjectRepo,
		GroupRepo:   env.GroupRepo,
		UserRepo:    env.UserRepo,
		Tx:          env.Tx,
	})
	env.ImportSvc = csvimport.NewService(csvimport.Deps{
		UserRepo:   env.UserRepo,
		CourseRepo: env.CourseRepo,
		Tx:         env.Tx,
		Documents:  env.Documents,
		Logger:     env.Logger,
	})
	return env
}

// Fixtures

// CreateUser stores a user with DefaultPassword (or `pwd` if given).
func CreateUser(t *testing.T, repo user.Repository, role user.Role, uname, firstName, lastName string, pwd ...string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Role:      role,
		Username:  uname,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	password := DefaultPassword
	if len(pwd) > 0 {
		password = pwd[0]
	}
	if err := usr.SetPassword(password); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, env *Env, name string, classTeacherID int, memberIDs ...int) course.Course {
	t.Helper()
	c, err := env.CourseSvc.Create(context.Background(), course.NewCourse{Name: name, ClassTeacherID: classTeacherID, MemberIDs: memberIDs})
	if err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}
	return c
}

func CreateProject(t *testing.T, env *Env, name string, courseID int) project.Project {
	t.Helper()
	p, err := env.ProjectSvc.Create(context.Background(), project.NewProject{
		Name:         name,
		ProjectStart: core.NewDate(2024, time.September, 2),
		CourseID:     courseID,
	})
	if err != nil {
		t.Fatalf("CreateProject(): %v", err)
	}
	return p
}

func CreateGroup(t *testing.T, env *Env, name string, projectID int, memberIDs ...int) group.Group {
	t.Helper()
	g, err := env.GroupSvc.Create(context.Background(), group.NewGroup{Name: name, ProjectID: projectID, MemberIDs: memberIDs})
	if err != nil {
		t.Fatalf("CreateGroup(): %v", err)
	}
	return g
}

// AttachSubject creates a subject and attaches it to the project.
func AttachSubject(t *testing.T, env *Env, projectID int, name, shortName string) subject.ProjectSubject {
	t.Helper()
	ctx := context.Background()
	s, err := env.SubjectSvc.Create(ctx, subject.NewSubject{Name: name, ShortName: shortName})
	if err != nil {
		t.Fatalf("AttachSubject(): %v", err)
	}
	ps, err := env.SubjectSvc.Attach(ctx, subject.NewProjectSubject{ProjectID: projectID, SubjectID: s.ID, Duration: 40})
	if err != nil {
		t.Fatalf("AttachSubject(): %v", err)
	}
	return ps
}

func CreatePerformance(t *testing.T, env *Env, projectSubjectID int, name string, weight float64) performance.Performance {
	t.Helper()
	p, err := env.PerformanceSvc.Create(context.Background(), performance.NewPerformance{
		Name:             name,
		ShortName:        name,
		Weight:           weight,
		ProjectSubjectID: projectSubjectID,
	})
	if err != nil {
		t.Fatalf("CreatePerformance(): %v", err)
	}
	return p
}

func CreateQuestion(t *testing.T, env *Env, text string, typ question.Type, subjectIDs ...int) question.Question {
	t.Helper()
	q, err := env.QuestionSvc.Create(context.Background(), question.NewQuestion{Text: text, Type: typ, SubjectIDs: subjectIDs})
	if err != nil {
		t.Fatalf("CreateQuestion(): %v", err)
	}
	return q
}
