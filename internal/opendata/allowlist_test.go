package opendata

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hecopilot/copilot-backend/config"
	"github.com/hecopilot/copilot-backend/internal/apperr"
)

type stubLoader struct {
	results [][]string
	err     error
	calls   int
}

func (s *stubLoader) LoadAllowedHosts(context.Context) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) == 0 {
		return nil, nil
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r, nil
}

func TestAllowList_Memoizes(t *testing.T) {
	loader := &stubLoader{results: [][]string{{"API.BLS.gov", "www.federalregister.gov."}}}
	a := NewAllowList(loader)
	ctx := context.Background()

	ok, err := a.Allowed(ctx, "api.bls.gov")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Allowed(ctx, "www.federalregister.gov")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Allowed(ctx, "evil.example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, loader.calls)

	a.Reset()
	_, _ = a.Allowed(ctx, "api.bls.gov")
	assert.Equal(t, 2, loader.calls)
}

func TestAllowList_EmptyReloadsEveryCall(t *testing.T) {
	loader := &stubLoader{results: [][]string{{}, {}, {"api.bls.gov"}}}
	a := NewAllowList(loader)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := a.Allowed(ctx, "api.bls.gov")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := a.Allowed(ctx, "api.bls.gov")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, loader.calls)
}

func TestAllowList_LoadError(t *testing.T) {
	a := NewAllowList(&stubLoader{err: errors.New("relation does not exist")})
	ok, err := a.Allowed(context.Background(), "api.bls.gov")
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestAllowList_NilLoader(t *testing.T) {
	ok, err := NewAllowList(nil).Allowed(context.Background(), "api.bls.gov")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowListRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("select host from proxy_allowed_hosts where enabled").
		WillReturnRows(sqlmock.NewRows([]string{"host"}).AddRow("api.bls.gov").AddRow("api.data.gov"))

	hosts, err := NewAllowListRepository(db).LoadAllowedHosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"api.bls.gov", "api.data.gov"}, hosts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProxy(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "year,value\n2024,1\n")
	}))
	defer srv.Close()

	host := mustHost(t, srv.URL)
	client := NewClient(ClientOptions{RequestsPerSecond: 100, HTTPClient: srv.Client()})
	svc := NewService(client, DefaultEndpoints(), config.OpenDataConfig{}, NewAllowList(&stubLoader{results: [][]string{{host}}}))
	ctx := context.Background()

	resp, err := svc.Proxy(ctx, srv.URL+"/data.csv")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "text/csv", resp.ContentType)
	assert.Equal(t, "year,value\n2024,1\n", string(resp.Body))

	resp, err = svc.Proxy(ctx, srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestProxy_Redirects(t *testing.T) {
	var internalHits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		internalHits.Add(1)
		_, _ = io.WriteString(w, "INTERNAL-SECRET")
	}))
	defer internal.Close()
	internalURL, err := url.Parse(internal.URL)
	require.NoError(t, err)

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/to-internal":
			http.Redirect(w, r, "http://localhost:"+internalURL.Port()+"/admin", http.StatusFound)
		case "/to-other-host":
			http.Redirect(w, r, "https://evil.example.com/x", http.StatusFound)
		case "/to-self":
			http.Redirect(w, r, "/data.csv", http.StatusMovedPermanently)
		default:
			_, _ = io.WriteString(w, "year,value\n")
		}
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RequestsPerSecond: 100, HTTPClient: srv.Client()})
	svc := NewService(client, DefaultEndpoints(), config.OpenDataConfig{},
		NewAllowList(&stubLoader{results: [][]string{{mustHost(t, srv.URL)}}}))
	ctx := context.Background()

	t.Run("plain http hop to unlisted host", func(t *testing.T) {
		_, err := svc.Proxy(ctx, srv.URL+"/to-internal")
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
		assert.Equal(t, "Redirect target not allowed: http://localhost:"+internalURL.Port(), err.Error())
		assert.Zero(t, internalHits.Load())
	})

	t.Run("https hop to unlisted host", func(t *testing.T) {
		_, err := svc.Proxy(ctx, srv.URL+"/to-other-host")
		require.Error(t, err)
		assert.Equal(t, "Redirect target not allowed: https://evil.example.com", err.Error())
	})

	t.Run("hop within allowed host", func(t *testing.T) {
		resp, err := svc.Proxy(ctx, srv.URL+"/to-self")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status)
		assert.Equal(t, "year,value\n", string(resp.Body))
	})
}

func TestProxy_Rejections(t *testing.T) {
	svc := NewService(NewClient(ClientOptions{}), DefaultEndpoints(), config.OpenDataConfig{},
		NewAllowList(&stubLoader{results: [][]string{{"api.bls.gov"}}}))
	ctx := context.Background()

	cases := map[string]string{
		"":                              "Missing query parameter 'url'",
		"http://api.bls.gov/x":          "Only https URLs can be proxied",
		"https://evil.example.com/x":    "Host not allowed: evil.example.com",
		"https://user:pw@api.bls.gov/x": "Invalid url",
		"::not a url":                   "Invalid url",
	}
	for in, msg := range cases {
		_, err := svc.Proxy(ctx, in)
		require.Error(t, err, in)
		assert.True(t, apperr.Is(err, apperr.KindInvalidInput), in)
		assert.Equal(t, msg, err.Error(), in)
	}
}

func mustHost(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Hostname()
}
