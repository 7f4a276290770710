// Package restapi is the small JSON/form client the LMS & marketing integrations talk through.
package restapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     rest.Method
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// IsStatus reports whether err is a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	se, ok := errors.Cause(err).(*StatusError)
	return ok && se.StatusCode == code
}

type Client struct {
	baseURL string
	headers map[string]string
	http    *rest.Client
}

// New returns a client sending every request to baseURL + path with headers, within timeout.
func New(baseURL string, timeout time.Duration, headers map[string]string) *Client {
	hdrs := map[string]string{"Accept": "application/json"}
	for k, v := range headers {
		hdrs[k] = v
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: hdrs,
		http:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func BearerAuth(token string) string {
	return "Bearer " + token
}

func (c *Client) BaseURL() string { return c.baseURL }

// Get sends a GET request and decodes the JSON response into dest, if not nil.
func (c *Client) Get(ctx context.Context, path string, query map[string]string, dest interface{}) error {
	return c.do(ctx, rest.Get, path, query, nil, "", dest)
}

// PostJSON sends body JSON encoded and decodes the JSON response into dest, if not nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, dest interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "encoding request body")
	}
	return c.do(ctx, rest.Post, path, nil, data, "application/json", dest)
}

// PostForm sends form url encoded and decodes the JSON response into dest, if not nil.
func (c *Client) PostForm(ctx context.Context, path string, query map[string]string, form url.Values, dest interface{}) error {
	return c.do(ctx, rest.Post, path, query, []byte(form.Encode()), "application/x-www-form-urlencoded", dest)
}

func (c *Client) do(
	ctx context.Context,
	method rest.Method,
	path string,
	query map[string]string,
	body []byte,
	contentType string,
	dest interface{},
) error {
	headers := make(map[string]string, len(c.headers)+1)
	for k, v := range c.headers {
		headers[k] = v
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     headers,
		QueryParams: query,
		Body:        body,
	}

	res, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &StatusError{Method: method, URL: path, StatusCode: res.StatusCode, Body: res.Body}
	}
	if dest == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(res.Body), dest); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}
