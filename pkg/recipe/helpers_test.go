package recipe

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reciperepo/domain"
	"reciperepo/entities"
	"reciperepo/internal/testutil"
)

func newIdentity(name string) domain.Identity {
	return domain.Identity{
		ID:    uuid.NewString(),
		Email: name + "@example.com",
		Metadata: domain.IdentityMetadata{
			FullName: name,
			Username: name,
		},
	}
}

func newRepository(t *testing.T) (*gorm.DB, RecipeRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	return db, NewRecipeRepository(db)
}

func seedRecipe(t *testing.T, repo RecipeRepository, author domain.Identity, name string) *entities.Recipe {
	t.Helper()

	profileRow := &entities.Profile{
		ID:       uuid.MustParse(author.ID),
		Username: author.Metadata.Username,
		Name:     author.Metadata.FullName,
		Email:    author.Email,
	}
	created, err := repo.CreateRecipe(context.Background(), profileRow, RecipeDraft{
		Recipe:        &entities.Recipe{Name: name, Description: name + " description"},
		Ingredients:   toIngredientRows(ParseIngredients("500 g Bread flour\nSalt")),
		Steps:         toStepRows(ParseSteps("Mix flour.\nKnead dough.")),
		Tags:          toTagRows([]string{"bread"}),
		CommitMessage: domain.InitialCommitMessage,
	})
	require.NoError(t, err)
	return created
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return int(count)
}
