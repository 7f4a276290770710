package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
)

type progressApi struct {
	svc   *progress.Service
	users user.ServiceInterface
}

func registerProgressAPI(g *echo.Group, auth *authenticator, deps *Deps) {
	api := progressApi{
		svc:   deps.ProgressSvc,
		users: deps.UserSvc,
	}
	g.GET("/progress", api.query, auth.required())
}

// query lists the completions of the context user, oldest first.
func (api *progressApi) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	completions, err := api.svc.ForUser(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying completions")
	}
	if completions == nil {
		completions = []progress.Completion{}
	}
	return ctx.JSON(http.StatusOK, completions)
}
