package recipe

import (
	"github.com/google/uuid"
	"reciperepo/domain"
	"reciperepo/entities"
	"reciperepo/pkg/profile"
	"sort"
)

func toDomainRecipe(r *entities.Recipe) domain.Recipe {
	recipe := domain.Recipe{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		CoverImage:  r.CoverImage,
		Author:      profile.ToDomainUser(r.Author, r.AuthorID.String()),
		Stars:       max(r.Stars, 0),
		Forks:       max(r.Forks, 0),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Ingredients: toDomainIngredients(r.Ingredients),
		Steps:       toDomainSteps(r.Steps),
		Versions:    toDomainVersions(r.Versions),
	}

	tags := make([]string, 0, len(r.Tags))
	for _, tag := range r.Tags {
		tags = append(tags, tag.Tag)
	}
	recipe.Tags = NormalizeTags(tags)

	if r.ForkedFromID != nil && *r.ForkedFromID != uuid.Nil {
		recipe.ForkedFromID = r.ForkedFromID.String()
	}
	return recipe
}

func toDomainIngredients(rows []entities.Ingredient) []domain.Ingredient {
	sorted := append([]entities.Ingredient(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	ingredients := make([]domain.Ingredient, 0, len(sorted))
	for _, row := range sorted {
		ingredient := domain.Ingredient{
			ID:       row.ID.String(),
			Name:     row.Name,
			Quantity: row.Quantity,
		}
		if row.Unit != nil {
			ingredient.Unit = *row.Unit
		}
		ingredients = append(ingredients, ingredient)
	}
	return ingredients
}

func toDomainSteps(rows []entities.Step) []domain.Step {
	sorted := append([]entities.Step(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderNum < sorted[j].OrderNum })

	steps := make([]domain.Step, 0, len(sorted))
	for _, row := range sorted {
		steps = append(steps, domain.Step{
			ID:          row.ID.String(),
			Order:       row.OrderNum,
			Description: row.Description,
			Image:       row.Image,
		})
	}
	return steps
}

func toDomainVersions(rows []entities.RecipeVersion) []domain.Version {
	sorted := append([]entities.RecipeVersion(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	versions := make([]domain.Version, 0, len(sorted))
	for _, row := range sorted {
		versions = append(versions, domain.Version{
			ID:            row.ID.String(),
			CommitMessage: row.CommitMessage,
			CreatedAt:     row.CreatedAt,
			Author:        profile.ToDomainUser(row.Author, row.AuthorID.String()),
		})
	}
	return versions
}

func toIngredientRows(ingredients []domain.Ingredient) []entities.Ingredient {
	rows := make([]entities.Ingredient, 0, len(ingredients))
	for i, ingredient := range ingredients {
		row := entities.Ingredient{
			Position: i + 1,
			Name:     ingredient.Name,
			Quantity: ingredient.Quantity,
		}
		if ingredient.Unit != "" {
			unit := ingredient.Unit
			row.Unit = &unit
		}
		rows = append(rows, row)
	}
	return rows
}

func toStepRows(steps []domain.Step) []entities.Step {
	rows := make([]entities.Step, 0, len(steps))
	for _, step := range steps {
		rows = append(rows, entities.Step{
			OrderNum:    step.Order,
			Description: step.Description,
			Image:       step.Image,
		})
	}
	return rows
}

func toTagRows(tags []string) []entities.RecipeTag {
	rows := make([]entities.RecipeTag, 0, len(tags))
	for _, tag := range NormalizeTags(tags) {
		rows = append(rows, entities.RecipeTag{Tag: tag})
	}
	return rows
}
