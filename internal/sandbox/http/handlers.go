package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/auth"
	"github.com/hecopilot/copilot-backend/internal/sandbox/domain"
	"github.com/hecopilot/copilot-backend/internal/sandbox/service"
)

type Handler struct {
	svc *service.SandboxService
}

func New(svc *service.SandboxService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(c *gin.Context) {
	var req domain.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.InvalidInput("Missing filename"))
		return
	}

	ticket, err := h.svc.CreateUpload(c.Request.Context(), auth.UserFirebaseUID(c), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *Handler) List(c *gin.Context) {
	files, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files)})
}

func (h *Handler) DownloadURL(c *gin.Context) {
	url, err := h.svc.DownloadURL(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, url)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
