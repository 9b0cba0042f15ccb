package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/opendata"
)

type Handler struct {
	svc *opendata.Service
}

func New(svc *opendata.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) BLS(c *gin.Context) {
	res, err := h.svc.BLS(c.Request.Context(), opendata.BLSQuery{
		SeriesIDs: opendata.ParseSeries(c.Query("series")),
		StartYear: c.Query("start"),
		EndYear:   c.Query("end"),
	})
	respond(c, res, err)
}

func (h *Handler) FederalRegister(c *gin.Context) {
	res, err := h.svc.FederalRegister(c.Request.Context(), query(c), opendata.ParseLimit(c.Query("limit")))
	respond(c, res, err)
}

func (h *Handler) Scorecard(c *gin.Context) {
	res, err := h.svc.Scorecard(c.Request.Context(), opendata.ScorecardQuery{
		Name:  c.Query("name"),
		State: c.Query("state"),
		Limit: opendata.ParseLimit(c.Query("limit")),
	})
	respond(c, res, err)
}

func (h *Handler) Regulations(c *gin.Context) {
	res, err := h.svc.Regulations(c.Request.Context(), query(c), opendata.ParseLimit(c.Query("limit")))
	respond(c, res, err)
}

// Proxy forwards the upstream status, content type and body unchanged.
func (h *Handler) Proxy(c *gin.Context) {
	resp, err := h.svc.Proxy(c.Request.Context(), c.Query("url"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(resp.Status, contentType, resp.Body)
}

func query(c *gin.Context) string {
	if q := c.Query("q"); q != "" {
		return q
	}
	return c.Query("query")
}

func respond(c *gin.Context, res any, err error) {
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
