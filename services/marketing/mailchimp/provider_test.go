package mailchimp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Faiver55/skylearn-flashcards-sub001/core"
	"github.com/Faiver55/skylearn-flashcards-sub001/core/lead"
)

func TestNew(t *testing.T) {
	require.Nil(t, New(core.MailchimpConfig{APIKey: "abc-us6"}, time.Second))
	require.Nil(t, New(core.MailchimpConfig{ListID: "list"}, time.Second))

	p := New(core.MailchimpConfig{APIKey: "abc-us6", ListID: "list"}, time.Second)
	require.NotNil(t, p)
	require.Equal(t, "https://us6.api.mailchimp.com/3.0", p.client.BaseURL())
}

func TestProvider_Subscribe(t *testing.T) {
	var got member
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lists/list1/members", r.URL.Path)
		user, key, ok := r.BasicAuth()
		require.True(t, ok)
		require.NotEmpty(t, user)
		require.Equal(t, "abc-us6", key)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		switch got.EmailAddress {
		case "exists@example.com":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"title":"Member Exists","status":400}`)
		case "fake@example.com":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"title":"Invalid Resource","status":400}`)
		default:
			_, _ = io.WriteString(w, `{"id":"x","status":"subscribed"}`)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	p := newProvider(srv.URL, core.MailchimpConfig{APIKey: "abc-us6", ListID: "list1"}, time.Second)
	require.Equal(t, Name, p.Name())

	require.NoError(t, p.Subscribe(ctx, lead.Lead{Name: "Jane", Email: "jane@example.com"}))
	require.Equal(t, member{
		EmailAddress: "jane@example.com",
		Status:       "subscribed",
		MergeFields:  map[string]string{"FNAME": "Jane"},
		Tags:         []string{"flashcards"},
	}, got)

	require.NoError(t, p.Subscribe(ctx, lead.Lead{Email: "exists@example.com"}))
	require.Error(t, p.Subscribe(ctx, lead.Lead{Email: "fake@example.com"}))
}
