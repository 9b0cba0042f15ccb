package http

import "github.com/gin-gonic/gin"

// Register mounts the sandbox routes; rg is expected to carry bearer auth.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id/url", h.DownloadURL)
	rg.DELETE("/:id", h.Delete)
}
