// Package vbout subscribes leads to a Vbout list.
package vbout

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/restapi"
)

const (
	Name = "vbout"

	baseURL = "https://api.vbout.com/1"
)

type Provider struct {
	client *restapi.Client
	key    string
	listID string
}

var _ lead.Provider = (*Provider)(nil)

// New returns nil if conf is incomplete.
func New(conf core.VboutConfig, timeout time.Duration) *Provider {
	if conf.APIKey == "" || conf.ListID == "" {
		return nil
	}
	return newProvider(baseURL, conf, timeout)
}

func newProvider(baseURL string, conf core.VboutConfig, timeout time.Duration) *Provider {
	return &Provider{client: restapi.New(baseURL, timeout, nil), key: conf.APIKey, listID: conf.ListID}
}

func (p *Provider) Name() string { return Name }

// Vbout answers 200 even on failure, the outcome is in the response header.
type response struct {
	Response struct {
		Header struct {
			Status string `json:"status"`
		} `json:"header"`
		Data map[string]interface{} `json:"data"`
	} `json:"response"`
}

func (p *Provider) Subscribe(ctx context.Context, l lead.Lead) error {
	form := url.Values{
		"email":  {l.Email},
		"listid": {p.listID},
		"status": {"active"},
	}
	if l.Name != "" {
		form.Set("fields[firstname]", l.Name)
	}

	var res response
	if err := p.client.PostForm(ctx, "/emailmarketing/addcontact.json", map[string]string{"key": p.key}, form, &res); err != nil {
		return errors.Wrap(err, "adding contact")
	}
	if status := res.Response.Header.Status; status != "" && status != "ok" {
		return errors.Errorf("adding contact: status %q: %v", status, res.Response.Data)
	}
	return nil
}
