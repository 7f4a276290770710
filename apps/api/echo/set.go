package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/progress"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/user"
)

type setApi struct {
	svc      *flashcard.Service
	progress *progress.Service
	users    user.ServiceInterface
	lms      *lmsAccess
	validate *validator.Validate
}

func registerSetAPI(g *echo.Group, auth *authenticator, deps *Deps) {
	api := setApi{
		svc:      deps.SetSvc,
		progress: deps.ProgressSvc,
		users:    deps.UserSvc,
		lms:      newLMSAccess(deps),
		validate: deps.Validate,
	}

	required := auth.required()
	editor := setEditorMiddleware(deps.SetSvc, deps.UserSvc)

	// no group middleware: it would shadow the routes open to anonymous viewers
	sg := g.Group("/sets")
	sg.GET("", api.query, auth.optional())
	sg.POST("", api.create, required, authorMiddleware)
	sg.GET("/export", api.export, required, adminMiddleware(), premiumMiddleware(deps.Gate, plan.BulkExport))

	sg.GET("/:id", api.retrieve, auth.optional())
	sg.PUT("/:id", api.update, required, authorMiddleware, editor)
	sg.DELETE("/:id", api.destroy, required, authorMiddleware, editor)
	sg.PUT("/:id/access", api.updateAccess, required, authorMiddleware, editor)
	sg.POST("/:id/completions", api.complete, required)
	sg.GET("/:id/report", api.report, required, adminMiddleware(), premiumMiddleware(deps.Gate, plan.Reporting))
}

// Handlers

// query lists the published sets. Sets the viewer cannot access are omitted when the enrollment
// restriction is on, and listed locked otherwise.
func (api *setApi) query(ctx echo.Context) error {
	filter := new(flashcard.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []flashcard.Set{})
	}
	filter.Clean()
	orderings := bindOrderings(ctx, flashcard.OrderingFields...)

	viewer, usr, err := getContextViewer(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context viewer")
	}
	rctx := ctx.Request().Context()
	state := api.lms.load(rctx)

	sets, err := api.svc.Query(rctx, filter, orderings)
	if err != nil {
		return errors.Wrap(err, "querying sets")
	}

	visible := make([]flashcard.Set, 0, len(sets))
	for _, s := range sets {
		if canEditSet(usr, s) {
			visible = append(visible, s)
			continue
		}
		if !s.IsPublished() {
			continue
		}
		if api.lms.hasAccess(rctx, s.ContentItem(), viewer, state) {
			visible = append(visible, s)
		} else if !state.settings.EnrollmentRestriction {
			visible = append(visible, s.Lock())
		}
	}
	return ctx.JSON(http.StatusOK, visible)
}

func (api *setApi) retrieve(ctx echo.Context) error {
	s, err := api.viewableSet(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *setApi) create(ctx echo.Context) error {
	var data flashcard.NewSet
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSet")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating set")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *setApi) update(ctx echo.Context) error {
	s, err := contextObject[flashcard.Set](ctx)
	if err != nil {
		return err
	}

	var data flashcard.UpdateSet
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSet")
	}
	if err := data.Validate(s, api.validate); err != nil {
		return err
	}

	s, err = api.svc.Update(ctx.Request().Context(), s.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating set")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *setApi) updateAccess(ctx echo.Context) error {
	s, err := contextObject[flashcard.Set](ctx)
	if err != nil {
		return err
	}

	var data flashcard.SetAccess
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetAccess")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	s, err = api.svc.SetAccess(ctx.Request().Context(), s.ID, data)
	if err != nil {
		return errors.Wrap(err, "setting set access")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *setApi) destroy(ctx echo.Context) error {
	s, err := contextObject[flashcard.Set](ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting set")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// complete records a study session of the context user and forwards it to the active LMS.
func (api *setApi) complete(ctx echo.Context) error {
	var data CompletionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompletionRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}

	rctx := ctx.Request().Context()
	s, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding set by ID")
	}
	if !s.IsPublished() {
		return errHttpNotFound
	}

	state := api.lms.load(rctx)
	viewer := viewerOf(usr)
	if !api.lms.hasAccess(rctx, s.ContentItem(), viewer, state) {
		return errAccessDenied
	}

	c, err := api.lms.forwarder.RecordCompletion(rctx, s.ContentItem(), usr.ID, *data.Accuracy, state.settings, state.active)
	if err != nil {
		return errors.Wrap(err, "recording completion")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *setApi) report(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	s, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding set by ID")
	}
	report, err := api.progress.Report(rctx, s.ID)
	if err != nil {
		return errors.Wrap(err, "reporting set")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *setApi) export(ctx echo.Context) error {
	filter := new(flashcard.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	var buf bytes.Buffer
	if err := api.svc.Export(ctx.Request().Context(), &buf, filter); err != nil {
		return errors.Wrap(err, "exporting sets")
	}
	return sendCSV(ctx, "flashcard-sets.csv", buf.Bytes())
}

// viewableSet returns the set of the request if the context viewer may see it.
func (api *setApi) viewableSet(ctx echo.Context) (flashcard.Set, error) {
	viewer, usr, err := getContextViewer(ctx, api.users)
	if err != nil {
		return flashcard.Set{}, errors.Wrap(err, "getting context viewer")
	}

	rctx := ctx.Request().Context()
	s, err := api.svc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return flashcard.Set{}, errors.Wrap(err, "finding set by ID")
	}
	if canEditSet(usr, s) {
		return s, nil
	}
	if !s.IsPublished() {
		return flashcard.Set{}, errHttpNotFound
	}

	state := api.lms.load(rctx)
	if !api.lms.hasAccess(rctx, s.ContentItem(), viewer, state) {
		return flashcard.Set{}, errAccessDenied
	}
	return s, nil
}

// canEditSet reports whether usr is an admin or the author of s.
func canEditSet(usr user.User, s flashcard.Set) bool {
	if usr.ID == "" {
		return false
	}
	return usr.IsAdmin() || (usr.IsAuthor() && s.AuthorID == usr.ID)
}

func setEditorMiddleware(svc *flashcard.Service, users user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, users)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			s, err := svc.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return errors.Wrap(err, "finding set by ID")
			}
			if !canEditSet(usr, s) {
				return errHttpForbidden
			}
			ctx.Set(contextObjectKey, s)
			return next(ctx)
		}
	}
}

func sendCSV(ctx echo.Context, filename string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

type CompletionRequest struct {
	Accuracy *float64 `json:"accuracy" validate:"required"`
}
