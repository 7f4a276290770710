// Package marketing assembles the configured e-mail marketing providers.
package marketing

import (
	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/marketing/mailchimp"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/marketing/sendfox"
	"github.com/Faiver55/skylearn-flashcards-sub001/services/marketing/vbout"
)

// Providers returns the providers whose credentials are configured, in forwarding order.
func Providers(conf *core.Config) []lead.Provider {
	mc := conf.Marketing
	var providers []lead.Provider
	if p := mailchimp.New(mc.Mailchimp, mc.Timeout); p != nil {
		providers = append(providers, p)
	}
	if p := sendfox.New(mc.SendFox, mc.Timeout); p != nil {
		providers = append(providers, p)
	}
	if p := vbout.New(mc.Vbout, mc.Timeout); p != nil {
		providers = append(providers, p)
	}
	return providers
}
