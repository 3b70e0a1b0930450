package handlers

import (
	"strconv"

	"github.com/Dylan-Floyd/effe81/internal/httpx"
	"github.com/Dylan-Floyd/effe81/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// SearchUsers backs the "start chatting with X" search box. Results carry
// live online flags; the client shows them as provisional conversations.
func (h *UserHandler) SearchUsers(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 50 {
			limit = l
		}
	}

	users, err := h.userService.SearchUsers(c.Query("q"), userID, limit)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(users)
}

func (h *UserHandler) GetCurrentUser(c *fiber.Ctx) error {
	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		return httpx.FromError(c, err)
	}

	return c.JSON(profile)
}
