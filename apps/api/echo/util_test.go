package echoapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/toast"
	"github.com/learnova/learnova/core/user"
	logsvc "github.com/learnova/learnova/services/logger"
	"github.com/learnova/learnova/tests"
)

type testApp struct {
	srv  *Server
	conf *core.Config
	repo user.Repository
}

func newTestConfig() *core.Config {
	return &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Learnova",
		SecretKey: "test-secret",
		Build:     "test",
		Server:    core.ServerConfig{Address: ":0", DisableReqLogs: true, ShutdownTimeout: time.Second},
		Session:   core.SessionConfig{CookieName: "learnova_session", ExpirationDelta: time.Hour},
		Toast:     core.ToastConfig{DismissDelay: time.Hour},
	}
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func setup(t *testing.T) testApp {
	t.Helper()
	conf := newTestConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)

	repo := testutil.NewUserRepository(t)
	validate, translator := newValidator()

	srv, err := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    user.NewService(repo),
		Validate:   validate,
		Translator: translator,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return testApp{srv: srv, conf: conf, repo: repo}
}

func (app testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	require.NoError(t, err)
	return token
}

func (app testApp) cookie(token string) *http.Cookie {
	return &http.Cookie{Name: app.conf.Session.CookieName, Value: token}
}

// get issues a GET request, signed in with token when it is not empty.
func (app testApp) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(app.cookie(token))
	}
	return app.do(req)
}

// signed adds the session cookie of token to req.
func (app testApp) signed(req *http.Request, token string) *http.Request {
	req.AddCookie(app.cookie(token))
	return req
}

// userToasts lists the toasts queued for the user id, nil when the user has no queue.
func (app testApp) userToasts(id string) []toast.Toast {
	tq := app.srv.toasts.get(userQueueKey(id), false)
	if tq == nil {
		return nil
	}
	return tq.Toasts()
}

func newJSONRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
