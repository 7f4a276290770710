package marketing

import (
	"testing"
	"time"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
)

func TestProviders(t *testing.T) {
	conf := &core.Config{}
	conf.Marketing.Timeout = time.Second
	if got := Providers(conf); len(got) != 0 {
		t.Errorf("Providers() = %d providers; want none", len(got))
	}

	conf.Marketing.Mailchimp = core.MailchimpConfig{APIKey: "abc-us6", ListID: "l"}
	conf.Marketing.Vbout = core.VboutConfig{APIKey: "k", ListID: "l"}
	got := Providers(conf)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name())
	}
	if len(names) != 2 || names[0] != "mailchimp" || names[1] != "vbout" {
		t.Errorf("Providers() = %v; want [mailchimp vbout]", names)
	}
}
