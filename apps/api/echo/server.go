package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

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
	pdfsvc "github.com/trezcool/gradebook/services/pdf"
)

type (
	// Documents renders credentials documents and serves the generated files.
	Documents interface {
		user.CredentialsGenerator
		List() ([]pdfsvc.FileInfo, error)
		Path(name string) (string, error)
	}

	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc        user.ServiceInterface
		CourseSvc      course.ServiceInterface
		ProjectSvc     project.ServiceInterface
		GroupSvc       group.ServiceInterface
		SubjectSvc     subject.ServiceInterface
		PerformanceSvc performance.ServiceInterface
		GradeSvc       grade.ServiceInterface
		QuestionSvc    question.ServiceInterface
		ImportSvc      csvimport.ServiceInterface
		Documents      Documents
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		auth     *sessionAuth
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		auth:     newSessionAuth(opts.Conf, opts.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.AllowedOrigins,
		AllowCredentials: true,
	}))
	s.app.Use(metricsMiddleware())

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", s.home)

	api := s.app.Group("/api")
	session := s.auth.middleware()

	registerAuthAPI(api, session, s.auth, s.opts.Validate)
	registerUserAPI(api, session, s.opts.UserSvc, s.opts.Documents, s.opts.Validate)
	registerCourseAPI(api, session, s.opts.CourseSvc, s.opts.Validate)
	registerProjectAPI(api, session, s.opts.ProjectSvc, s.opts.Validate)
	registerGroupAPI(api, session, s.opts.GroupSvc, s.opts.Validate)
	registerSubjectAPI(api, session, s.opts.SubjectSvc, s.opts.Validate)
	registerProjectSubjectAPI(api, session, s.opts.SubjectSvc, s.opts.Validate)
	registerPerformanceAPI(api, session, s.opts.PerformanceSvc, s.opts.Validate)
	registerGradeAPI(api, session, s.opts.GradeSvc, s.opts.Validate)
	registerQuestionAPI(api, session, s.opts.QuestionSvc, s.opts.Validate)
	registerImportAPI(api, session, s.opts.ImportSvc)
	registerDocumentAPI(api, session, s.opts.Documents)
}

// Start blocks until the server stops. Failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}
