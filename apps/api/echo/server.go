package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/report"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
	metricsvc "github.com/sintimjnr/gctu-project-submission-system/services/metrics"
)

type (
	Options struct {
		DisableReqLogs bool
		Conf           *core.Config
		Logger         core.Logger
		Metrics        *metricsvc.Metrics
		UserSvc        user.Service
		ProjectSvc     project.Service
		DeadlineSvc    deadline.Service
		Reports        *report.Generator
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
		auth *authenticator
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Metrics == nil {
		opts.Metrics = metricsvc.NewMetrics()
	}
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
		auth: newAuthenticator(opts.Conf),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	if conf.Server.MaxUploadSize > 0 {
		s.app.Use(middleware.BodyLimit(bodyLimit(conf.Server.MaxUploadSize)))
	}
	s.app.Use(metricsMiddleware(s.opts.Metrics))

	s.app.HideBanner = conf.TestMode
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()

	registerUserAPI(v1, jwt, s.auth, s.opts.UserSvc)
	registerDeadlineAPI(v1, jwt, s.opts.DeadlineSvc)
	registerProjectAPI(v1, jwt, s.opts.ProjectSvc, s.opts.DeadlineSvc, s.opts.Metrics)
	registerAdminAPI(v1, jwt, s.opts)
}

// Start blocks until the server is stopped.
func (s *server) Start() error {
	if err := s.app.Start(s.opts.Conf.Server.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the "+s.opts.Conf.AppName+"!")
}
