package recipe

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"reciperepo/domain"
	"reciperepo/entities"
	"reciperepo/pkg/profile"
	"time"
)

type (
	RecipeRepository interface {
		GetRecipeByID(ctx context.Context, id uuid.UUID) (*entities.Recipe, error)
		ListRecipes(ctx context.Context, query ListQuery) ([]*entities.Recipe, int64, error)
		CreateRecipe(ctx context.Context, author *entities.Profile, draft RecipeDraft) (*entities.Recipe, error)
		ReviseRecipe(ctx context.Context, recipe *entities.Recipe, revision RecipeRevision) error
		UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImage string) error
		CountRecipesWithCover(ctx context.Context, coverImage string) (int64, error)

		IsStarred(ctx context.Context, recipeID, userID uuid.UUID) (bool, error)
		AddStar(ctx context.Context, recipeID, userID uuid.UUID) (int, bool, error)
		RemoveStar(ctx context.Context, recipeID, userID uuid.UUID) (int, error)

		HasForked(ctx context.Context, recipeID, userID uuid.UUID) (bool, error)
		ForkRecipe(ctx context.Context, original *entities.Recipe, forker *entities.Profile, commitMessage string) (*entities.Recipe, int, error)
	}

	// ListQuery is a resolved RecipeFilter: windows are already turned into a lower bound.
	ListQuery struct {
		Trending     bool
		UpdatedSince *time.Time
		AuthorID     *uuid.UUID
		StarredBy    *uuid.UUID
		Offset       int
		Limit        int
	}

	RecipeDraft struct {
		Recipe        *entities.Recipe
		Ingredients   []entities.Ingredient
		Steps         []entities.Step
		Tags          []entities.RecipeTag
		CommitMessage string
	}

	// RecipeRevision replaces only the child collections that are non-nil.
	RecipeRevision struct {
		Name        string
		Description string
		Ingredients []entities.Ingredient
		Steps       []entities.Step
		Tags        []entities.RecipeTag
		Version     entities.RecipeVersion
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func withAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_num asc")
		}).
		Preload("Tags").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq asc").Order("created_at asc").Order("id asc")
		}).
		Preload("Versions.Author")
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uuid.UUID) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := withAggregate(r.db.WithContext(ctx)).Where("recipes.id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) ListRecipes(ctx context.Context, query ListQuery) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64

	base := r.db.WithContext(ctx).Model(&entities.Recipe{})
	if query.StarredBy != nil {
		base = base.
			Joins("JOIN stars ON stars.recipe_id = recipes.id").
			Where("stars.user_id = ?", *query.StarredBy)
	}
	if query.AuthorID != nil {
		base = base.Where("recipes.author_id = ?", *query.AuthorID)
	}
	if query.UpdatedSince != nil {
		base = base.Where("recipes.updated_at >= ?", *query.UpdatedSince)
	}

	if err := base.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}

	ordered := base.Session(&gorm.Session{}).Select("recipes.*")
	if query.Trending {
		ordered = ordered.
			Order("recipes.stars desc").
			Order("recipes.forks desc").
			Order("recipes.updated_at desc")
	} else {
		ordered = ordered.Order("recipes.created_at desc")
	}

	if err := withAggregate(ordered).
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// CreateRecipe writes the profile, recipe, children and the initial version in one transaction.
// Failures are reported as *domain.CreationError naming the stage that failed.
func (r *recipeRepository) CreateRecipe(ctx context.Context, author *entities.Profile, draft RecipeDraft) (*entities.Recipe, error) {
	recipe := draft.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := profile.EnsureProfileTx(tx, author); err != nil {
			return &domain.CreationError{Stage: domain.StageProfile, Err: err}
		}

		recipe.AuthorID = author.ID
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return &domain.CreationError{Stage: domain.StageRecipe, Err: err}
		}

		if stage, err := insertChildren(tx, recipe.ID, draft.Ingredients, draft.Steps, draft.Tags); err != nil {
			return &domain.CreationError{Stage: stage, Err: err}
		}

		version := entities.RecipeVersion{
			RecipeID:      recipe.ID,
			AuthorID:      author.ID,
			CommitMessage: draft.CommitMessage,
		}
		if err := appendVersion(tx, &version); err != nil {
			return &domain.CreationError{Stage: domain.StageVersion, Err: err}
		}
		return nil
	})
	if err != nil {
		var creationErr *domain.CreationError
		if !errors.As(err, &creationErr) {
			err = &domain.CreationError{Stage: domain.StageRecipe, Err: err}
		}
		return nil, err
	}
	return recipe, nil
}

// insertChildren returns the stage that failed along with the error.
func insertChildren(tx *gorm.DB, recipeID uuid.UUID, ingredients []entities.Ingredient, steps []entities.Step, tags []entities.RecipeTag) (string, error) {
	if len(ingredients) > 0 {
		for i := range ingredients {
			ingredients[i].RecipeID = recipeID
		}
		if err := tx.Create(&ingredients).Error; err != nil {
			return domain.StageIngredients, err
		}
	}

	if len(steps) > 0 {
		for i := range steps {
			steps[i].RecipeID = recipeID
		}
		if err := tx.Create(&steps).Error; err != nil {
			return domain.StageSteps, err
		}
	}

	if len(tags) > 0 {
		for i := range tags {
			tags[i].RecipeID = recipeID
		}
		if err := tx.Create(&tags).Error; err != nil {
			return domain.StageTags, err
		}
	}
	return "", nil
}

func (r *recipeRepository) ReviseRecipe(ctx context.Context, recipe *entities.Recipe, revision RecipeRevision) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Omit(clause.Associations).Updates(map[string]interface{}{
			"name":        revision.Name,
			"description": revision.Description,
		}).Error; err != nil {
			return err
		}

		if revision.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.Ingredient{}).Error; err != nil {
				return err
			}
		}
		if revision.Steps != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.Step{}).Error; err != nil {
				return err
			}
		}
		if revision.Tags != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeTag{}).Error; err != nil {
				return err
			}
		}
		if _, err := insertChildren(tx, recipe.ID, revision.Ingredients, revision.Steps, revision.Tags); err != nil {
			return err
		}

		version := revision.Version
		version.RecipeID = recipe.ID
		return appendVersion(tx, &version)
	})
}

// appendVersion numbers the version after the recipe's latest one. Timestamps alone can tie
// when two revisions land within the column's precision.
func appendVersion(tx *gorm.DB, version *entities.RecipeVersion) error {
	var last int
	if err := tx.Model(&entities.RecipeVersion{}).
		Where("recipe_id = ?", version.RecipeID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return err
	}
	version.Seq = last + 1
	return tx.Create(version).Error
}

func (r *recipeRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImage string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ?", id).
		Update("cover_image", coverImage).Error
}

func (r *recipeRepository) CountRecipesWithCover(ctx context.Context, coverImage string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("cover_image = ?", coverImage).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *recipeRepository) IsStarred(ctx context.Context, recipeID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Star{}).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddStar reports the recomputed star count and whether a new row was written. A row that already
// exists is not an error.
func (r *recipeRepository) AddStar(ctx context.Context, recipeID, userID uuid.UUID) (int, bool, error) {
	var stars int
	var inserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		star := entities.Star{
			RecipeID:  recipeID,
			UserID:    userID,
			CreatedAt: time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&star)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected > 0

		var err error
		stars, err = syncStarCount(tx, recipeID)
		return err
	})
	return stars, inserted, err
}

func (r *recipeRepository) RemoveStar(ctx context.Context, recipeID, userID uuid.UUID) (int, error) {
	var stars int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("recipe_id = ? AND user_id = ?", recipeID, userID).
			Delete(&entities.Star{}).Error; err != nil {
			return err
		}

		var err error
		stars, err = syncStarCount(tx, recipeID)
		return err
	})
	return stars, err
}

func (r *recipeRepository) HasForked(ctx context.Context, recipeID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Fork{}).
		Where("original_recipe_id = ? AND user_id = ?", recipeID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ForkRecipe copies original into a new recipe owned by forker and records the fork. A second
// fork by the same user fails with domain.ErrAlreadyForked and leaves nothing behind.
func (r *recipeRepository) ForkRecipe(ctx context.Context, original *entities.Recipe, forker *entities.Profile, commitMessage string) (*entities.Recipe, int, error) {
	var copied *entities.Recipe
	var forks int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := profile.EnsureProfileTx(tx, forker); err != nil {
			return err
		}

		originalID := original.ID
		copied = &entities.Recipe{
			AuthorID:     forker.ID,
			Name:         original.Name,
			Description:  original.Description,
			CoverImage:   original.CoverImage,
			ForkedFromID: &originalID,
		}
		if err := tx.Omit(clause.Associations).Create(copied).Error; err != nil {
			return err
		}

		if _, err := insertChildren(tx, copied.ID, copyIngredients(original.Ingredients), copySteps(original.Steps), copyTags(original.Tags)); err != nil {
			return err
		}

		version := entities.RecipeVersion{
			RecipeID:      copied.ID,
			AuthorID:      forker.ID,
			CommitMessage: commitMessage,
		}
		if err := appendVersion(tx, &version); err != nil {
			return err
		}

		fork := entities.Fork{
			OriginalRecipeID: original.ID,
			UserID:           forker.ID,
			ForkedRecipeID:   copied.ID,
			CreatedAt:        time.Now().UTC(),
		}
		if err := tx.Create(&fork).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyForked
			}
			return err
		}

		var err error
		forks, err = syncForkCount(tx, original.ID)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return copied, forks, nil
}

func syncStarCount(tx *gorm.DB, recipeID uuid.UUID) (int, error) {
	var count int64
	if err := tx.Model(&entities.Star{}).Where("recipe_id = ?", recipeID).Count(&count).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&entities.Recipe{}).Where("id = ?", recipeID).UpdateColumn("stars", count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func syncForkCount(tx *gorm.DB, recipeID uuid.UUID) (int, error) {
	var count int64
	if err := tx.Model(&entities.Fork{}).Where("original_recipe_id = ?", recipeID).Count(&count).Error; err != nil {
		return 0, err
	}
	if err := tx.Model(&entities.Recipe{}).Where("id = ?", recipeID).UpdateColumn("forks", count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func copyIngredients(rows []entities.Ingredient) []entities.Ingredient {
	copied := make([]entities.Ingredient, 0, len(rows))
	for _, row := range rows {
		copied = append(copied, entities.Ingredient{
			Position: row.Position,
			Name:     row.Name,
			Quantity: row.Quantity,
			Unit:     row.Unit,
		})
	}
	return copied
}

func copySteps(rows []entities.Step) []entities.Step {
	copied := make([]entities.Step, 0, len(rows))
	for _, row := range rows {
		copied = append(copied, entities.Step{
			OrderNum:    row.OrderNum,
			Description: row.Description,
			Image:       row.Image,
		})
	}
	return copied
}

func copyTags(rows []entities.RecipeTag) []entities.RecipeTag {
	copied := make([]entities.RecipeTag, 0, len(rows))
	for _, row := range rows {
		copied = append(copied, entities.RecipeTag{Tag: row.Tag})
	}
	return copied
}
