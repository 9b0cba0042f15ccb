package opendata

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hecopilot/copilot-backend/internal/apperr"
)

// Proxy performs a GET against an allow-listed https URL and returns the
// upstream reply as is, including non-2xx statuses.
func (s *Service) Proxy(ctx context.Context, rawURL string) (*Response, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperr.InvalidInput("Missing query parameter 'url'")
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, apperr.InvalidInput("Invalid url")
	}
	if err := s.checkTarget(ctx, u); err != nil {
		return nil, err
	}

	// Redirects are followed only to targets that pass the same checks.
	ctx = withRedirectCheck(ctx, func(r *http.Request) error {
		err := s.checkTarget(r.Context(), r.URL)
		if apperr.Is(err, apperr.KindInvalidInput) {
			return apperr.InvalidInput("Redirect target not allowed: %s://%s", r.URL.Scheme, r.URL.Host)
		}
		return err
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid url")
	}
	return s.client.Do(ctx, "proxy", req, nil)
}

func (s *Service) checkTarget(ctx context.Context, u *url.URL) error {
	if u.Scheme != "https" {
		return apperr.InvalidInput("Only https URLs can be proxied")
	}
	if u.User != nil {
		return apperr.InvalidInput("Invalid url")
	}

	ok, err := s.allow.Allowed(ctx, u.Hostname())
	if err != nil {
		return apperr.Propagate("load proxy allow-list", err)
	}
	if !ok {
		return apperr.InvalidInput("Host not allowed: %s", u.Hostname())
	}
	return nil
}
