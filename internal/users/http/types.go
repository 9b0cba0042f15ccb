package http

import "github.com/hecopilot/copilot-backend/internal/users/service"

type Handler struct {
	userService *service.UserService
}

func New(userService *service.UserService) *Handler {
	return &Handler{
		userService: userService,
	}
}
