package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"reciperepo/domain"
	"reciperepo/internal/api/presenters"
	"reciperepo/internal/middleware"
	"reciperepo/pkg/profile"
)

type (
	ProfileHandler interface {
		GetMyProfile(c *fiber.Ctx) error
		UpdateMyProfile(c *fiber.Ctx) error
		GetProfile(c *fiber.Ctx) error
	}

	profileHandler struct {
		profileService profile.ProfileService
		validator      *validator.Validate
	}
)

func NewProfileHandler(profileService profile.ProfileService, validator *validator.Validate) ProfileHandler {
	return &profileHandler{
		profileService: profileService,
		validator:      validator,
	}
}

func (h *profileHandler) GetMyProfile(c *fiber.Ctx) error {
	res, err := h.profileService.GetMyProfile(c.Context(), middleware.CurrentIdentity(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedGetProfile, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProfile)
}

func (h *profileHandler) UpdateMyProfile(c *fiber.Ctx) error {
	req := new(domain.UpdateProfileRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProfile, err)
	}

	res, err := h.profileService.UpdateProfile(c.Context(), *req, middleware.CurrentIdentity(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedUpdateProfile, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProfile)
}

func (h *profileHandler) GetProfile(c *fiber.Ctx) error {
	res, err := h.profileService.GetProfile(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedGetProfile, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProfile)
}
