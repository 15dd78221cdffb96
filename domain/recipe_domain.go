package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessStarRecipe      = "recipe starred"
	MessageSuccessUnstarRecipe    = "recipe removed from starred recipes"
	MessageSuccessForkRecipe      = "recipe forked successfully"
	MessageSuccessUploadCover     = "cover image uploaded successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedStarRecipe      = "failed to star recipe"
	MessageFailedForkRecipe      = "failed to fork recipe"
	MessageFailedCloneRecipe     = "failed to copy recipe"
	MessageFailedUploadCover     = "failed to upload cover image"

	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrAlreadyForked        = errors.New("you have already forked this recipe")
	ErrInvalidFilter        = errors.New("invalid recipe filter")
	ErrCreationFailed       = errors.New("recipe creation failed")
	ErrInvalidImageFormat   = errors.New("invalid image format")
	ErrStorageNotConfigured = errors.New("image storage not configured")
)

const (
	SortRecent   = "recent"
	SortTrending = "trending"

	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
	WindowAll   = "all"

	InitialCommitMessage = "Initial version"
	UpdateCommitMessage  = "Update recipe"
)

// Creation stages, in the order they run.
const (
	StageProfile     = "profile"
	StageRecipe      = "recipe"
	StageIngredients = "ingredients"
	StageSteps       = "steps"
	StageTags        = "tags"
	StageVersion     = "version"
)

// CreationError records which write of a multi-step creation failed.
type CreationError struct {
	Stage string
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCreationFailed, e.Stage, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

func (e *CreationError) Is(target error) bool { return target == ErrCreationFailed }

type (
	Recipe struct {
		ID           string       `json:"id"`
		Name         string       `json:"name"`
		Description  string       `json:"description"`
		CoverImage   string       `json:"cover_image,omitempty"`
		Author       User         `json:"author"`
		Stars        int          `json:"stars"`
		Forks        int          `json:"forks"`
		CreatedAt    time.Time    `json:"created_at"`
		UpdatedAt    time.Time    `json:"updated_at"`
		Tags         []string     `json:"tags"`
		Ingredients  []Ingredient `json:"ingredients"`
		Steps        []Step       `json:"steps"`
		Versions     []Version    `json:"versions"`
		ForkedFromID string       `json:"forked_from_id,omitempty"`
		Starred      bool         `json:"starred"`
		Forked       bool         `json:"forked"`
	}

	Ingredient struct {
		ID       string `json:"id,omitempty"`
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
		Unit     string `json:"unit,omitempty"`
	}

	Step struct {
		ID          string `json:"id,omitempty"`
		Order       int    `json:"order"`
		Description string `json:"description"`
		Image       string `json:"image,omitempty"`
	}

	Version struct {
		ID            string    `json:"id"`
		CommitMessage string    `json:"commit_message"`
		CreatedAt     time.Time `json:"created_at"`
		Author        User      `json:"author"`
	}

	RecipeFilter struct {
		Sort      string `json:"sort" validate:"omitempty,oneof=recent trending"`
		Window    string `json:"window" validate:"omitempty,oneof=day week month all"`
		AuthorID  string `json:"author_id" validate:"omitempty,uuid"`
		StarredBy string `json:"starred_by" validate:"omitempty,uuid"`
		Page      int    `json:"page"`
		Limit     int    `json:"limit"`
	}

	CreateRecipeRequest struct {
		Title        string   `json:"title" validate:"required,max=200"`
		Description  string   `json:"description" validate:"required"`
		Ingredients  string   `json:"ingredients"`
		Instructions string   `json:"instructions"`
		Tags         []string `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	}

	UpdateRecipeRequest struct {
		Title         *string  `json:"title" validate:"omitempty,min=1,max=200"`
		Description   *string  `json:"description" validate:"omitempty,min=1"`
		Ingredients   *string  `json:"ingredients"`
		Instructions  *string  `json:"instructions"`
		Tags          []string `json:"tags" validate:"omitempty,max=20,dive,max=40"`
		CommitMessage string   `json:"commit_message" validate:"max=200"`
	}

	ForkRecipeResponse struct {
		Recipe         Recipe `json:"recipe"`
		ForkedRecipeID string `json:"forked_recipe_id"`
	}

	// RecipeListResponse carries the page and limit actually served, after defaults and clamping.
	RecipeListResponse struct {
		Recipes []Recipe `json:"recipes"`
		Total   int64    `json:"total"`
		Page    int      `json:"page"`
		Limit   int      `json:"limit"`
	}
)
