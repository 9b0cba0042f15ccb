package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/search", h.Search)
	rg.POST("/search", h.Search)
	rg.GET("/context", h.Context)
	rg.POST("/context", h.Context)
	rg.GET("/answer", h.Answer)
	rg.POST("/answer", h.Answer)
	rg.POST("/chat", h.Chat)
}
