// Package sendfox subscribes leads to a SendFox list.
package sendfox

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/restapi"
)

const (
	Name = "sendfox"

	baseURL = "https://api.sendfox.com"
)

type Provider struct {
	client *restapi.Client
	listID int
}

var _ lead.Provider = (*Provider)(nil)

// New returns nil if conf is incomplete.
func New(conf core.SendFoxConfig, timeout time.Duration) *Provider {
	if conf.Token == "" || conf.ListID == "" {
		return nil
	}
	return newProvider(baseURL, conf, timeout)
}

func newProvider(url string, conf core.SendFoxConfig, timeout time.Duration) *Provider {
	listID, _ := strconv.Atoi(conf.ListID)
	return &Provider{
		client: restapi.New(url, timeout, map[string]string{"Authorization": restapi.BearerAuth(conf.Token)}),
		listID: listID,
	}
}

func (p *Provider) Name() string { return Name }

type contact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	Lists     []int  `json:"lists"`
}

func (p *Provider) Subscribe(ctx context.Context, l lead.Lead) error {
	c := contact{Email: l.Email, FirstName: l.Name, Lists: []int{p.listID}}
	var res struct {
		ID int `json:"id"`
	}
	if err := p.client.PostJSON(ctx, "/contacts", c, &res); err != nil {
		return errors.Wrap(err, "creating contact")
	}
	return nil
}
