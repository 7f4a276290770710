// Package mailchimp subscribes leads to a Mailchimp audience.
package mailchimp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/restapi"
)

const Name = "mailchimp"

type Provider struct {
	client *restapi.Client
	listID string
}

var _ lead.Provider = (*Provider)(nil)

// New returns nil if conf is incomplete. The data center is the API key suffix, e.g. "us6".
func New(conf core.MailchimpConfig, timeout time.Duration) *Provider {
	if conf.APIKey == "" || conf.ListID == "" {
		return nil
	}
	dc := "us1"
	if i := strings.LastIndex(conf.APIKey, "-"); i >= 0 && i < len(conf.APIKey)-1 {
		dc = conf.APIKey[i+1:]
	}
	return newProvider(fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc), conf, timeout)
}

func newProvider(baseURL string, conf core.MailchimpConfig, timeout time.Duration) *Provider {
	return &Provider{
		client: restapi.New(baseURL, timeout, map[string]string{
			"Authorization": restapi.BasicAuth("flashcards", conf.APIKey),
		}),
		listID: conf.ListID,
	}
}

func (p *Provider) Name() string { return Name }

type member struct {
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
}

// Subscribe adds l to the audience. An already subscribed address is not an error.
func (p *Provider) Subscribe(ctx context.Context, l lead.Lead) error {
	m := member{EmailAddress: l.Email, Status: "subscribed", Tags: []string{"flashcards"}}
	if l.Name != "" {
		m.MergeFields = map[string]string{"FNAME": l.Name}
	}

	err := p.client.PostJSON(ctx, "/lists/"+p.listID+"/members", m, nil)
	if err != nil {
		if se, ok := errors.Cause(err).(*restapi.StatusError); ok &&
			se.StatusCode == http.StatusBadRequest && strings.Contains(se.Body, "Member Exists") {
			return nil
		}
		return errors.Wrap(err, "adding list member")
	}
	return nil
}
