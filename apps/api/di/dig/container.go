package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/gradebook/apps/api/echo"
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
	"github.com/trezcool/gradebook/storage/database"
	sqlxdb "github.com/trezcool/gradebook/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// ServerParams collects everything the API server needs.
type ServerParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

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

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newGradeService(
	repo grade.Repository,
	projectRepo project.Repository,
	subjectRepo subject.Repository,
	perfRepo performance.Repository,
	groupRepo group.Repository,
	usrRepo user.Repository,
	tx core.Transactor,
) grade.ServiceInterface {
	return grade.NewService(grade.Deps{
		Repo:            repo,
		ProjectRepo:     projectRepo,
		SubjectRepo:     subjectRepo,
		PerformanceRepo: perfRepo,
		GroupRepo:       groupRepo,
		UserRepo:        usrRepo,
		Tx:              tx,
	})
}

func newQuestionService(
	repo question.Repository,
	projectRepo project.Repository,
	subjectRepo subject.Repository,
	groupRepo group.Repository,
	usrRepo user.Repository,
	tx core.Transactor,
) question.ServiceInterface {
	return question.NewService(question.Deps{
		Repo:        repo,
		ProjectRepo: projectRepo,
		SubjectRepo: subjectRepo,
		GroupRepo:   groupRepo,
		UserRepo:    usrRepo,
		Tx:          tx,
	})
}

func newImportService(
	usrRepo user.Repository,
	courseRepo course.Repository,
	tx core.Transactor,
	docs *pdfsvc.Service,
	logger core.Logger,
) csvimport.ServiceInterface {
	return csvimport.NewService(csvimport.Deps{
		UserRepo:   usrRepo,
		CourseRepo: courseRepo,
		Tx:         tx,
		Documents:  docs,
		Logger:     logger,
	})
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:           p.Conf,
		Logger:         p.Logger,
		Validate:       p.Validate,
		Translator:     p.Translator,
		UserSvc:        p.UserSvc,
		CourseSvc:      p.CourseSvc,
		ProjectSvc:     p.ProjectSvc,
		GroupSvc:       p.GroupSvc,
		SubjectSvc:     p.SubjectSvc,
		PerformanceSvc: p.PerformanceSvc,
		GradeSvc:       p.GradeSvc,
		QuestionSvc:    p.QuestionSvc,
		ImportSvc:      p.ImportSvc,
		Documents:      p.Documents,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// config & logging
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))

	// storage
	must(c.Provide(newDB))
	must(c.Provide(sqlxdb.NewTransactor))
	must(c.Provide(sqlxdb.NewUserRepository))
	must(c.Provide(sqlxdb.NewCourseRepository))
	must(c.Provide(sqlxdb.NewProjectRepository))
	must(c.Provide(sqlxdb.NewGroupRepository))
	must(c.Provide(sqlxdb.NewSubjectRepository))
	must(c.Provide(sqlxdb.NewPerformanceRepository))
	must(c.Provide(sqlxdb.NewGradeRepository))
	must(c.Provide(sqlxdb.NewQuestionRepository))

	// services
	must(c.Provide(pdfsvc.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(project.NewService))
	must(c.Provide(group.NewService))
	must(c.Provide(subject.NewService))
	must(c.Provide(performance.NewService))
	must(c.Provide(newGradeService))
	must(c.Provide(newQuestionService))
	must(c.Provide(newImportService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
