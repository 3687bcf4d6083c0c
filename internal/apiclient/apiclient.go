// Package apiclient sends JSON requests to the remote API and maps failures
// to domain errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/aelexs/todo-session-client/internal/domain"
	"github.com/aelexs/todo-session-client/internal/errmap"
)

// Endpoint is the API base URL plus the client used to reach it.
type Endpoint struct {
	base   *url.URL
	client *http.Client
}

// New parses baseURL, which must be an absolute http(s) URL. A nil client
// gets domain.DefaultAPITimeout over http.DefaultTransport.
func New(baseURL string, client *http.Client) (Endpoint, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return Endpoint{}, fmt.Errorf("api base url %q: %w", baseURL, domain.ErrConfigInvalid)
	}
	if client == nil {
		client = &http.Client{Timeout: domain.DefaultAPITimeout}
	}
	return Endpoint{base: base, client: client}, nil
}

// URL joins path segments under the base URL. Segments taken from user
// input must be escaped with url.PathEscape first.
func (e Endpoint) URL(segments ...string) string {
	return e.base.JoinPath(segments...).String()
}

// Do sends in as JSON (when non-nil) and decodes the response into out
// (when non-nil). Statuses outside accept fail with an *errmap.APIError;
// an empty accept list means any 2xx.
func (e Endpoint) Do(ctx context.Context, method, target string, in, out any, accept ...int) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !accepted(resp.StatusCode, accept) {
		return errmap.FromResponse(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w: %w", method, req.URL.Path, domain.ErrUnexpectedResponse, err)
	}
	return nil
}

func accepted(status int, accept []int) bool {
	if len(accept) == 0 {
		return status >= 200 && status <= 299
	}
	return slices.Contains(accept, status)
}
