package echoapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/toast"
)

type toastApi struct {
	queues   *toastQueues
	validate *validator.Validate
}

// ToastRequest is the payload of POST /api/toasts.
type ToastRequest struct {
	Type    string `json:"type" form:"type" validate:"required,oneof=success error info warning"`
	Title   string `json:"title" form:"title" validate:"required,notblank,max=120"`
	Message string `json:"message" form:"message" validate:"max=500"`
}

func (data *ToastRequest) Validate(validate *validator.Validate) error {
	data.Type = core.CleanString(data.Type, true)
	data.Title = core.CleanString(data.Title)
	data.Message = core.CleanString(data.Message)
	return validate.Struct(data)
}

// registerToastAPI mounts the toast endpoints. Every endpoint only sees the queue of the caller's session.
func registerToastAPI(app *echo.Echo, api toastApi, sessions sessionProvider) {
	app.GET("/toasts", api.fragment)
	app.POST("/toasts/:id/dismiss", api.dismissForm)

	g := app.Group("/api/toasts", sessionMiddleware(sessions))
	g.GET("", api.list)
	g.POST("", api.create)
	g.DELETE("/:id", api.dismiss)
}

// Handlers

func (api *toastApi) fragment(ctx echo.Context) error {
	return ctx.HTML(http.StatusOK, string(api.queues.forRequest(ctx, false).HTML()))
}

func (api *toastApi) dismissForm(ctx echo.Context) error {
	api.queues.forRequest(ctx, false).Dismiss(ctx.Param("id"))
	return ctx.Redirect(http.StatusSeeOther, backPath(ctx.Request().Referer()))
}

func (api *toastApi) list(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.queues.forRequest(ctx, false).Toasts())
}

func (api *toastApi) create(ctx echo.Context) error {
	var data ToastRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToastRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	typ, _ := toast.ParseType(data.Type)
	id := api.queues.forRequest(ctx, true).store.Enqueue(typ, data.Title, data.Message)
	return ctx.JSON(http.StatusCreated, echo.Map{"id": id})
}

// dismiss always succeeds: dismissing an unknown or expired toast is a no-op.
func (api *toastApi) dismiss(ctx echo.Context) error {
	api.queues.forRequest(ctx, false).Dismiss(ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

// backPath keeps only the path of the referer so dismissals never redirect off-site.
func backPath(referer string) string {
	u, err := url.Parse(referer)
	if err != nil || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return u.RequestURI()
}
