package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Checks    map[string]string `json:"checks"`
}

// Pinger is satisfied by *pgxpool.Pool. Use PingFunc for other clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	service string
	version string
	checks  map[string]Pinger
}

func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version, checks: map[string]Pinger{}}
}

// WithCheck registers a dependency probe. A nil pinger is reported as "disabled".
func (h *HealthHandler) WithCheck(name string, p Pinger) *HealthHandler {
	h.checks[name] = p
	return h
}

func (h *HealthHandler) probe(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		p := h.checks[name]
		if p == nil {
			out[name] = "disabled"
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := p.Ping(pingCtx)
		cancel()
		if err != nil {
			out[name] = "down"
			healthy = false
			continue
		}
		out[name] = "up"
	}
	return out, healthy
}

func (h *HealthHandler) respond(c *gin.Context, strict bool) {
	checks, healthy := h.probe(c.Request.Context())

	status, code := "healthy", http.StatusOK
	if !healthy {
		status = "degraded"
		if strict {
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Service:   h.service,
		Version:   h.version,
		Checks:    checks,
	})
}

// Readiness fails with 503 when a configured dependency is down.
func (h *HealthHandler) Readiness(c *gin.Context) { h.respond(c, true) }

// Liveness always answers 200 while the process serves requests.
func (h *HealthHandler) Liveness(c *gin.Context) { h.respond(c, false) }

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Readiness)
	r.GET("/healthz", h.Liveness)
}
