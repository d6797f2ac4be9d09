package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/learnova/learnova/core"
	logsvc "github.com/learnova/learnova/services/logger"
)

func Test_newAppHTTPErrorHandler(t *testing.T) {
	conf := newTestConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)
	_, translator := newValidator()

	tests := []struct {
		name         string
		err          error
		method       string
		wantCode     int
		wantBody     string
		wantShutdown bool
	}{
		{
			name: "http error", err: errors.Wrap(echo.ErrNotFound, "finding page"),
			wantCode: http.StatusNotFound, wantBody: `{"error":"Not Found"}`,
		},
		{
			name: "validation error", err: core.NewValidationError(nil, core.FieldError{Field: "email", Error: "taken"}),
			wantCode: http.StatusBadRequest, wantBody: `{"email":"taken"}`,
		},
		{
			name: "validation error without fields", err: core.NewValidationError(errors.New("bad input")),
			wantCode: http.StatusBadRequest, wantBody: `{"error":"bad input"}`,
		},
		{
			name: "server error", err: errors.New("db down"),
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`,
		},
		{
			name: "shutdown", err: errors.Wrap(core.NewShutdownError("integrity issue"), "serving"),
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`, wantShutdown: true,
		},
		{
			name: "head request", err: echo.ErrNotFound, method: http.MethodHead,
			wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var shutdown bool
			handler := newAppHTTPErrorHandler(logger, translator, sessionProvider{conf: conf}, func() { shutdown = true })

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(httptest.NewRequest(method, "/", nil), rec)
			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Empty(t, rec.Body.String())
			}
			assert.Equal(t, tt.wantShutdown, shutdown)
		})
	}
}

func TestServer_SignalShutdown(t *testing.T) {
	app := setup(t)
	app.srv.SignalShutdown()
	app.srv.SignalShutdown() // must not block

	select {
	case sig := <-app.srv.ShutdownSignal():
		assert.NotNil(t, sig)
	default:
		t.Fatal("no shutdown signal")
	}
}
