package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"reciperepo/domain"
	"reciperepo/internal/api/presenters"
	"reciperepo/internal/middleware"
	"reciperepo/pkg/recipe"
)

type (
	RecipeHandler interface {
		ListRecipes(c *fiber.Ctx) error
		GetRecipe(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		ToggleStar(c *fiber.Ctx) error
		ForkRecipe(c *fiber.Ctx) error
		CloneRecipe(c *fiber.Ctx) error
		UploadCoverImage(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *recipeHandler) ListRecipes(c *fiber.Ctx) error {
	filter := domain.RecipeFilter{
		Sort:      c.Query("sort", domain.SortRecent),
		Window:    c.Query("window", ""),
		AuthorID:  c.Query("author_id", ""),
		StarredBy: c.Query("starred_by", ""),
		Page:      c.QueryInt("page", 1),
		Limit:     c.QueryInt("limit", 20),
	}

	if err := h.validator.Struct(filter); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetRecipes, err)
	}

	res, err := h.recipeService.ListRecipes(c.Context(), filter, middleware.CurrentUserID(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"recipes": res.Recipes,
		"pagination": fiber.Map{
			"page":        res.Page,
			"limit":       res.Limit,
			"total":       res.Total,
			"total_pages": (res.Total + int64(res.Limit) - 1) / int64(res.Limit),
		},
	}, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipe(c *fiber.Ctx) error {
	res, err := h.recipeService.LoadRecipe(c.Context(), c.Params("id"), middleware.CurrentUserID(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	req := new(domain.CreateRecipeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	res, err := h.recipeService.CreateRecipe(c.Context(), *req, middleware.CurrentIdentity(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	req := new(domain.UpdateRecipeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.Context(), c.Params("id"), *req, middleware.CurrentUserID(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedUpdateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) ToggleStar(c *fiber.Ctx) error {
	res, err := h.recipeService.ToggleStar(c.Context(), c.Params("id"), middleware.CurrentUserID(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedStarRecipe, err)
	}

	message := domain.MessageSuccessUnstarRecipe
	if res.Starred {
		message = domain.MessageSuccessStarRecipe
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, message)
}

func (h *recipeHandler) ForkRecipe(c *fiber.Ctx) error {
	res, err := h.recipeService.ForkRecipe(c.Context(), c.Params("id"), middleware.CurrentIdentity(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedForkRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessForkRecipe)
}

func (h *recipeHandler) CloneRecipe(c *fiber.Ctx) error {
	text, err := h.recipeService.CloneToText(c.Context(), c.Params("id"))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedCloneRecipe, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(fiber.StatusOK).SendString(text)
}

func (h *recipeHandler) UploadCoverImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadCover, err)
	}

	res, err := h.recipeService.UploadCoverImage(c.Context(), c.Params("id"), file, middleware.CurrentUserID(c))
	if err != nil {
		return presenters.FailedResponse(c, domain.MessageFailedUploadCover, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUploadCover)
}
