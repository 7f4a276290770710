package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
)

type leadApi struct {
	svc      *lead.Service
	validate *validator.Validate
}

func registerLeadAPI(g *echo.Group, auth *authenticator, deps *Deps) {
	api := leadApi{
		svc:      deps.LeadSvc,
		validate: deps.Validate,
	}

	admin := []echo.MiddlewareFunc{auth.required(), adminMiddleware()}

	lg := g.Group("/leads")
	lg.POST("", api.capture)
	lg.GET("", api.query, append(admin, premiumMiddleware(deps.Gate, plan.Reporting))...)
	lg.GET("/export", api.export, append(admin, premiumMiddleware(deps.Gate, plan.BulkExport))...)
	lg.POST("/export/mail", api.mailExport, append(admin, premiumMiddleware(deps.Gate, plan.BulkExport))...)
}

// Handlers

func (api *leadApi) capture(ctx echo.Context) error {
	var data lead.NewLead
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLead")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.Capture(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "capturing lead")
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *leadApi) query(ctx echo.Context) error {
	filter := new(lead.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lead.Lead{})
	}
	filter.Clean()

	leads, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying leads")
	}
	if leads == nil {
		leads = []lead.Lead{}
	}
	return ctx.JSON(http.StatusOK, leads)
}

func (api *leadApi) export(ctx echo.Context) error {
	filter := new(lead.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	var buf bytes.Buffer
	if _, err := api.svc.Export(ctx.Request().Context(), &buf, filter); err != nil {
		return errors.Wrap(err, "exporting leads")
	}
	return sendCSV(ctx, "leads.csv", buf.Bytes())
}

func (api *leadApi) mailExport(ctx echo.Context) error {
	if err := api.svc.MailExport(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "mailing leads export")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "The leads export will arrive in the owner's inbox shortly."})
}
