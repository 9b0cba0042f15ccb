package http

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts /register on rg and the profile routes on the
// bearer-protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, protected gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.GET("/me", protected, h.GetProfile)
	rg.PUT("/me", protected, h.UpdateProfile)
}
