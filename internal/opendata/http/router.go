package http

import "github.com/gin-gonic/gin"

func (h *Handler) Register(rg *gin.RouterGroup) {
	od := rg.Group("/opendata")
	od.GET("/bls", h.BLS)
	od.GET("/federal-register", h.FederalRegister)
	od.GET("/scorecard", h.Scorecard)
	od.GET("/regulations", h.Regulations)

	rg.GET("/proxy", h.Proxy)
}
