package handlers

import (
	"github.com/gofiber/fiber/v2"
	"reciperepo/domain"
	"reciperepo/internal/api/presenters"
	"reciperepo/internal/middleware"
	"reciperepo/pkg/jwt"
)

type (
	AuthHandler interface {
		Me(c *fiber.Ctx) error
		SignOut(c *fiber.Ctx) error
	}

	authHandler struct {
		jwtService jwt.JWTService
	}
)

func NewAuthHandler(jwtService jwt.JWTService) AuthHandler {
	return &authHandler{jwtService: jwtService}
}

func (h *authHandler) Me(c *fiber.Ctx) error {
	return presenters.SuccessResponse(c, middleware.CurrentIdentity(c), fiber.StatusOK, domain.MessageSuccessGetIdentity)
}

func (h *authHandler) SignOut(c *fiber.Ctx) error {
	token, _ := c.Locals("token").(string)
	if err := h.jwtService.Revoke(token); err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedProcessRequest, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessSignOut)
}
