package echoapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

// lmsState is what a request knows of the LMS integration. It is loaded once per request.
type lmsState struct {
	settings lms.Settings
	active   []lms.Active
}

type lmsAccess struct {
	registry  *lms.Registry
	settings  *lms.SettingsStore
	resolver  *lms.Resolver
	forwarder *lms.Forwarder
	logger    core.Logger
}

func newLMSAccess(deps *Deps) *lmsAccess {
	return &lmsAccess{
		registry:  deps.Registry,
		settings:  deps.Settings,
		resolver:  deps.Resolver,
		forwarder: deps.Forwarder,
		logger:    deps.Logger,
	}
}

// load reads the settings and, when the integration is enabled, detects the active LMS.
// Unreadable settings leave the integration disabled: every item stays visible.
func (la *lmsAccess) load(ctx context.Context) lmsState {
	settings, err := la.settings.Load(ctx)
	if err != nil {
		la.logger.Error(fmt.Sprintf("loading lms settings, integration disabled: %v", err), err)
		settings = lms.DefaultSettings()
		settings.Enabled = false
	}
	state := lmsState{settings: settings}
	if settings.Enabled {
		state.active = la.registry.Resolve(ctx)
	}
	return state
}

func (la *lmsAccess) hasAccess(ctx context.Context, item lms.ContentItem, viewer lms.Viewer, state lmsState) bool {
	return la.resolver.HasAccess(ctx, item, viewer, state.settings, state.active)
}

type lmsApi struct {
	registry *lms.Registry
	settings *lms.SettingsStore
}

func registerLMSAPI(g *echo.Group, auth *authenticator, deps *Deps) {
	api := lmsApi{
		registry: deps.Registry,
		settings: deps.Settings,
	}

	lg := g.Group("/lms", auth.required(), adminMiddleware())
	lg.GET("/integrations", api.integrations)
	lg.GET("/settings", api.retrieveSettings)
	lg.PUT("/settings", api.updateSettings)
}

// Handlers

func (api *lmsApi) integrations(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.registry.Integrations(ctx.Request().Context()))
}

func (api *lmsApi) retrieveSettings(ctx echo.Context) error {
	settings, err := api.settings.Load(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading lms settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

// updateSettings replaces the settings. Fields missing from the form are unchecked.
func (api *lmsApi) updateSettings(ctx echo.Context) error {
	var form lms.SettingsForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to SettingsForm")
	}
	settings, err := api.settings.Save(ctx.Request().Context(), form)
	if err != nil {
		return errors.Wrap(err, "saving lms settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}
