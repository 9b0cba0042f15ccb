package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/auth"
	"github.com/hecopilot/copilot-backend/internal/users/domain"
)

// Register upserts a user keyed by case-insensitive email.
func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.InvalidInput("Invalid JSON body: %v", err))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetProfile returns the profile matching the bearer token's email.
func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.userService.GetByEmail(c.Request.Context(), auth.UserEmail(c))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile updates the caller's profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req domain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.InvalidInput("Invalid JSON body: %v", err))
		return
	}

	user, err := h.userService.Update(c.Request.Context(), auth.UserEmail(c), req)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
