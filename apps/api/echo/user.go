package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learnova/learnova/core/user"
)

type userApi struct {
	svc *user.Service
}

// registerUserAPI mounts the user endpoints on g, which must already be restricted to admins.
func registerUserAPI(g *echo.Group, svc *user.Service) {
	api := userApi{svc: svc}
	g.GET("/users", api.query)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}
