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

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/access"
	"github.com/learnova/learnova/core/user"
	appfs "github.com/learnova/learnova/fs"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		UserSvc    *user.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		sessions sessionProvider
		toasts   *toastQueues
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) (*Server, error) {
	tmpl, err := newRenderer(appfs.FS)
	if err != nil {
		return nil, errors.Wrap(err, "loading templates")
	}

	s := &Server{
		deps:     deps,
		app:      echo.New(),
		sessions: sessionProvider{conf: deps.Conf},
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.toasts = newToastQueues(deps.Conf, tmpl, deps.Logger, s.sessions)
	s.app.Renderer = tmpl
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.setup()
	return s, nil
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.sessions, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/healthz", s.health)

	pages := pagesApi{
		conf:     conf,
		svc:      s.deps.UserSvc,
		queues:   s.toasts,
		sessions: s.sessions,
		validate: s.deps.Validate,
	}
	registerPages(s.app, pages)

	for _, group := range access.Groups() {
		g := s.app.Group(group.Path(), roleGroupMiddleware(group, s.sessions, s.deps.Logger))
		g.GET("", pages.dashboard(group))
		if group == access.GroupAdmin {
			registerUserAPI(g, s.deps.UserSvc)
		}
	}

	registerToastAPI(s.app, toastApi{queues: s.toasts, validate: s.deps.Validate}, s.sessions)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors reports listener failures.
func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the running process to stop gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	defer s.toasts.Close()
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.toasts.Close()
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.deps.Conf.Build})
}
