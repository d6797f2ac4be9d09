package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/access"
	"github.com/learnova/learnova/core/toast"
	"github.com/learnova/learnova/core/user"
)

type pagesApi struct {
	conf     *core.Config
	svc      *user.Service
	queues   *toastQueues
	sessions sessionProvider
	validate *validator.Validate
}

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (data *LoginRequest) Validate(validate *validator.Validate) error {
	data.Email = core.CleanString(data.Email, true)
	return validate.Struct(data)
}

func registerPages(app *echo.Echo, api pagesApi) {
	app.GET("/", api.page("home"))
	app.GET("/about", api.page("about"))
	app.GET("/pricing", api.page("pricing"))

	app.GET("/login", api.loginForm)
	app.POST("/login", api.login)
	app.POST("/logout", api.logout)
}

func (api pagesApi) data(ctx echo.Context) pageData {
	data := pageData{
		AppName: api.conf.AppName,
		Toasts:  api.queues.forRequest(ctx, false).HTML(),
	}
	if sess := api.sessions.Session(ctx); sess != nil && sess.User != nil {
		data.User = sess.User
		role, _ := access.ParseRole(sess.User.Role)
		data.Home = access.HomePath(role)
	}
	return data
}

// Handlers

func (api pagesApi) page(name string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.Render(http.StatusOK, name, api.data(ctx))
	}
}

func (api pagesApi) dashboard(group access.Group) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		data := api.data(ctx)
		data.Group = group.String()
		return ctx.Render(http.StatusOK, "dashboard", data)
	}
}

func (api pagesApi) loginForm(ctx echo.Context) error {
	if sess := api.sessions.Session(ctx); sess != nil && sess.User != nil {
		if role, ok := access.ParseRole(sess.User.Role); ok {
			return ctx.Redirect(http.StatusFound, access.HomePath(role))
		}
	}
	return ctx.Render(http.StatusOK, "login", api.data(ctx))
}

func (api pagesApi) login(ctx echo.Context) error {
	var form LoginRequest
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := form.Validate(api.validate); err != nil {
		return api.loginFailed(ctx, form, "Please enter your email and password.")
	}

	claims, usr, err := authenticate(ctx.Request().Context(), api.conf, api.svc, form.Email, form.Password)
	if err != nil {
		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			return api.loginFailed(ctx, form, fmt.Sprint(herr.Message))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	api.sessions.setCookie(ctx, token)
	api.queues.forUser(usr.ID).store.Enqueue(toast.TypeSuccess, "Welcome back, "+usr.Name)
	role, _ := usr.AccessRole()
	return ctx.Redirect(http.StatusFound, access.HomePath(role))
}

func (api pagesApi) loginFailed(ctx echo.Context, form LoginRequest, msg string) error {
	api.queues.forRequest(ctx, true).store.Enqueue(toast.TypeError, "Sign-in failed", msg)
	data := api.data(ctx)
	data.Email = form.Email
	return ctx.Render(http.StatusBadRequest, "login", data)
}

func (api pagesApi) logout(ctx echo.Context) error {
	api.sessions.clearCookie(ctx)
	return ctx.Redirect(http.StatusFound, access.LoginPath)
}
