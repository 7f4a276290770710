package lead

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/flashcard"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/plan"
)

type (
	// Provider subscribes leads to an e-mail marketing list.
	Provider interface {
		Name() string
		Subscribe(ctx context.Context, l Lead) error
	}

	Repository interface {
		CreateLead(ctx context.Context, l Lead, exec ...core.DBExecutor) (Lead, error)
		// QueryLeads applies AND operation on available QueryFilter fields, newest first.
		// QueryFilter.Search does a case-insensitive match on one of Lead.Name or Lead.Email.
		QueryLeads(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Lead, error)
	}

	Service struct {
		repo      Repository
		sets      *flashcard.Service
		providers []Provider
		mailSvc   core.EmailService
		owner     string
		gate      plan.Gate
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	sets *flashcard.Service,
	providers []Provider,
	mailSvc core.EmailService,
	gate plan.Gate,
	conf *core.Config,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		sets:      sets,
		providers: providers,
		mailSvc:   mailSvc,
		owner:     conf.OwnerEmail,
		gate:      gate,
		logger:    logger,
	}
}

// Capture stores a lead, subscribes it with every provider in order then notifies the site owner.
// Provider failures are logged and do not stop the others.
func (svc *Service) Capture(ctx context.Context, nl NewLead) (Lead, error) {
	s, err := svc.sets.Get(ctx, nl.SetID)
	if err != nil {
		if errors.Cause(err) == flashcard.ErrNotFound {
			return Lead{}, core.NewValidationError(nil, core.FieldError{Field: "set_id", Error: "invalid value"})
		}
		return Lead{}, errors.Wrap(err, "finding set by ID")
	}

	l, err := svc.repo.CreateLead(ctx, Lead{
		SetID:     s.ID,
		Name:      nl.Name,
		Email:     nl.Email,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Lead{}, errors.Wrap(err, "creating lead")
	}

	for _, p := range svc.providers {
		if err := p.Subscribe(ctx, l); err != nil {
			svc.logger.Error(fmt.Sprintf("%s: subscribing lead %s: %v", p.Name(), l.ID, err), err)
		}
	}

	if svc.owner != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Address: svc.owner}},
			Subject:      "New lead",
			TemplateName: "new_lead",
			TemplateData: struct {
				Lead
				SetTitle string
			}{Lead: l, SetTitle: s.Title},
		})
	}
	return l, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Lead, error) {
	if err := svc.gate.Require(plan.Reporting); err != nil {
		return nil, err
	}
	return svc.repo.QueryLeads(ctx, filter)
}

var exportHeader = []string{"id", "set_id", "name", "email", "created_at"}

// Export writes the leads matching filter as CSV and returns how many were written.
func (svc *Service) Export(ctx context.Context, w io.Writer, filter *QueryFilter) (int, error) {
	if err := svc.gate.Require(plan.BulkExport); err != nil {
		return 0, err
	}
	leads, err := svc.repo.QueryLeads(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "querying leads")
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(exportHeader); err != nil {
		return 0, errors.Wrap(err, "writing csv header")
	}
	for _, l := range leads {
		if err = cw.Write([]string{l.ID, l.SetID, l.Name, l.Email, l.CreatedAt.Format(time.RFC3339)}); err != nil {
			return 0, errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return len(leads), errors.Wrap(cw.Error(), "flushing csv")
}

// MailExport e-mails the CSV export of every lead to the site owner.
func (svc *Service) MailExport(ctx context.Context) error {
	if svc.owner == "" {
		return errors.New("no owner email configured")
	}
	var buf bytes.Buffer
	n, err := svc.Export(ctx, &buf, new(QueryFilter))
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Address: svc.owner}},
		Subject:      "Leads export",
		TemplateName: "leads_export",
		TemplateData: map[string]interface{}{"Count": n},
	}
	msg.Attach("leads.csv", "text/csv", buf.Bytes())
	svc.mailSvc.SendMessages(msg)
	return nil
}
