package recipe

import (
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"reciperepo/domain"
	"reciperepo/entities"
	"reciperepo/internal/utils/storage"
)

type fakeNotifier struct {
	mu      sync.Mutex
	sent    []string
	fails   bool
	release chan struct{}
}

func (n *fakeNotifier) NotifyFork(toEmail, recipeName, forkerName, forkedRecipeID string) error {
	if n.release != nil {
		<-n.release
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, toEmail+"|"+recipeName+"|"+forkerName)
	if n.fails {
		return errors.New("smtp down")
	}
	return nil
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

type fakeS3 struct {
	uploaded []string
	deleted  []string
}

func (s *fakeS3) UploadFile(fileName string, file *multipart.FileHeader, folder string, allowExt ...string) (string, error) {
	key := folder + "/" + fileName + ".png"
	s.uploaded = append(s.uploaded, key)
	return key, nil
}

func (s *fakeS3) DeleteFile(objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	return nil
}

func (s *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.example/" + objectKey
}

func (s *fakeS3) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://bucket.example/")
}

var _ storage.AwsS3 = (*fakeS3)(nil)

type serviceFixture struct {
	db       *gorm.DB
	repo     RecipeRepository
	s3       *fakeS3
	notifier *fakeNotifier
	service  RecipeService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, repo := newRepository(t)
	f := &serviceFixture{
		db:       db,
		repo:     repo,
		s3:       &fakeS3{},
		notifier: &fakeNotifier{},
	}
	f.service = NewRecipeService(repo, f.s3, f.notifier, zap.NewNop())
	return f
}

func (f *serviceFixture) create(t *testing.T, author domain.Identity, title string) domain.Recipe {
	t.Helper()
	recipe, err := f.service.CreateRecipe(context.Background(), domain.CreateRecipeRequest{
		Title:        title,
		Description:  "A loaf",
		Ingredients:  "500 g Bread flour\n2 Bell peppers\nSalt",
		Instructions: "Mix flour.\n\nKnead dough.",
		Tags:         []string{"Bread", "bread", "baking"},
	}, author)
	require.NoError(t, err)
	return recipe
}

func imageHeader(contentType string) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: "cover.png",
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newServiceFixture(t)
	alice := newIdentity("alice")

	recipe := f.create(t, alice, "Sourdough")

	assert.Equal(t, "Sourdough", recipe.Name)
	assert.Equal(t, alice.ID, recipe.Author.ID)
	assert.Equal(t, "alice", recipe.Author.Username)
	assert.Equal(t, []domain.Ingredient{
		{Quantity: "500", Unit: "g", Name: "Bread flour"},
		{Quantity: "2", Unit: "Bell", Name: "peppers"},
		{Quantity: "1", Name: "Salt"},
	}, stripIngredientIDs(recipe.Ingredients))
	require.Len(t, recipe.Steps, 2)
	assert.Equal(t, 1, recipe.Steps[0].Order)
	assert.Equal(t, 2, recipe.Steps[1].Order)
	assert.Equal(t, []string{"baking", "bread"}, recipe.Tags)
	require.Len(t, recipe.Versions, 1)
	assert.Equal(t, domain.InitialCommitMessage, recipe.Versions[0].CommitMessage)
	assert.Zero(t, recipe.Stars)
	assert.Zero(t, recipe.Forks)
}

func TestCreateRecipeCreatesProfileFromProviderDefaults(t *testing.T) {
	f := newServiceFixture(t)
	identity := domain.Identity{ID: uuid.NewString(), Email: "anon@example.com"}

	recipe := f.create(t, identity, "Toast")

	assert.Equal(t, "user_"+identity.ID[len(identity.ID)-8:], recipe.Author.Username)
	assert.Equal(t, "New User", recipe.Author.Name)
	assert.Equal(t, domain.GravatarURL(identity.ID), recipe.Author.AvatarURL)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateRecipe(ctx, domain.CreateRecipeRequest{Title: "x", Description: "y"}, domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.service.CreateRecipe(ctx, domain.CreateRecipeRequest{Title: "  ", Description: "y"}, newIdentity("alice"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

type failingCreateRepo struct {
	RecipeRepository
	err error
}

func (r *failingCreateRepo) CreateRecipe(ctx context.Context, author *entities.Profile, draft RecipeDraft) (*entities.Recipe, error) {
	return nil, r.err
}

func TestCreateRecipeSurfacesCreationFailure(t *testing.T) {
	cause := errors.New("insert failed")
	repo := &failingCreateRepo{err: &domain.CreationError{Stage: domain.StageIngredients, Err: cause}}
	service := NewRecipeService(repo, nil, nil, nil)

	_, err := service.CreateRecipe(context.Background(), domain.CreateRecipeRequest{Title: "x", Description: "y"}, newIdentity("alice"))

	assert.ErrorIs(t, err, domain.ErrCreationFailed)
	assert.ErrorIs(t, err, cause)
	var creationErr *domain.CreationError
	require.ErrorAs(t, err, &creationErr)
	assert.Equal(t, domain.StageIngredients, creationErr.Stage)
}

func TestLoadRecipeNotFound(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.LoadRecipe(context.Background(), uuid.NewString(), "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	_, err = f.service.LoadRecipe(context.Background(), "not-a-uuid", "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestLoadRecipeStoreUnavailable(t *testing.T) {
	f := newServiceFixture(t)
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = f.service.LoadRecipe(context.Background(), uuid.NewString(), "")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestToggleStarIsIdempotentPerPair(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	recipe := f.create(t, newIdentity("alice"), "Sourdough")
	bob := newIdentity("bob")

	starred, err := f.service.ToggleStar(ctx, recipe.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, starred.Starred)
	assert.Equal(t, 1, starred.Stars)

	unstarred, err := f.service.ToggleStar(ctx, recipe.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, unstarred.Starred)
	assert.Equal(t, 0, unstarred.Stars)
	assert.Zero(t, countRows(t, f.db, &entities.Star{}, "recipe_id = ?", recipe.ID))
}

func TestToggleStarCountMatchesJoinRows(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	recipe := f.create(t, newIdentity("alice"), "Sourdough")
	users := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}

	for _, user := range users {
		_, err := f.service.ToggleStar(ctx, recipe.ID, user)
		require.NoError(t, err)
	}
	res, err := f.service.ToggleStar(ctx, recipe.ID, users[1])
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stars)
	assert.Equal(t, countRows(t, f.db, &entities.Star{}, "recipe_id = ?", recipe.ID), res.Stars)
}

func TestToggleStarRequiresUser(t *testing.T) {
	f := newServiceFixture(t)
	recipe := f.create(t, newIdentity("alice"), "Sourdough")

	_, err := f.service.ToggleStar(context.Background(), recipe.ID, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Zero(t, countRows(t, f.db, &entities.Star{}, "1 = 1"))

	_, err = f.service.ToggleStar(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

// racingStarRepo reports the star as absent even though another request already inserted it.
type racingStarRepo struct {
	RecipeRepository
}

func (r *racingStarRepo) IsStarred(ctx context.Context, recipeID, userID uuid.UUID) (bool, error) {
	if _, _, err := r.RecipeRepository.AddStar(ctx, recipeID, userID); err != nil {
		return false, err
	}
	return false, nil
}

func TestToggleStarTreatsExistingStarAsStarred(t *testing.T) {
	f := newServiceFixture(t)
	recipe := f.create(t, newIdentity("alice"), "Sourdough")
	service := NewRecipeService(&racingStarRepo{RecipeRepository: f.repo}, nil, nil, nil)
	bob := uuid.NewString()

	res, err := service.ToggleStar(context.Background(), recipe.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stars)
	assert.Equal(t, 1, countRows(t, f.db, &entities.Star{}, "recipe_id = ?", recipe.ID))
}

func TestForkRecipeIsMonotonic(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := newIdentity("alice")
	recipe := f.create(t, alice, "Sourdough")
	bob := newIdentity("bob")

	res, err := f.service.ForkRecipe(ctx, recipe.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Recipe.Forks)
	assert.True(t, res.Recipe.Forked)
	assert.NotEqual(t, recipe.ID, res.ForkedRecipeID)

	_, err = f.service.ForkRecipe(ctx, recipe.ID, bob)
	assert.ErrorIs(t, err, domain.ErrAlreadyForked)

	reloaded, err := f.service.LoadRecipe(ctx, recipe.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Forks)
	assert.Equal(t, countRows(t, f.db, &entities.Fork{}, "original_recipe_id = ?", recipe.ID), reloaded.Forks)

	copied, err := f.service.LoadRecipe(ctx, res.ForkedRecipeID, "")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, copied.Author.ID)
	assert.Equal(t, recipe.ID, copied.ForkedFromID)
	assert.Equal(t, recipe.Ingredients[0].Name, copied.Ingredients[0].Name)
	assert.Equal(t, "Forked from alice/Sourdough", copied.Versions[0].CommitMessage)

	require.Eventually(t, func() bool { return len(f.notifier.messages()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "alice@example.com|Sourdough|bob", f.notifier.messages()[0])
}

func TestForkRecipeDoesNotWaitForNotification(t *testing.T) {
	f := newServiceFixture(t)
	f.notifier.release = make(chan struct{})
	recipe := f.create(t, newIdentity("alice"), "Sourdough")

	done := make(chan error, 1)
	go func() {
		_, err := f.service.ForkRecipe(context.Background(), recipe.ID, newIdentity("bob"))
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("fork blocked on the notifier")
	}
	assert.Empty(t, f.notifier.messages())

	close(f.notifier.release)
	require.Eventually(t, func() bool { return len(f.notifier.messages()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestForkRecipeNotificationFailureIsNotFatal(t *testing.T) {
	_, repo := newRepository(t)
	core, logs := observer.New(zap.WarnLevel)
	notifier := &fakeNotifier{fails: true}
	service := NewRecipeService(repo, &fakeS3{}, notifier, zap.New(core))

	recipe, err := service.CreateRecipe(context.Background(), domain.CreateRecipeRequest{
		Title:        "Sourdough",
		Description:  "A loaf",
		Ingredients:  "500 g Bread flour",
		Instructions: "Mix flour.",
	}, newIdentity("alice"))
	require.NoError(t, err)

	_, err = service.ForkRecipe(context.Background(), recipe.ID, newIdentity("bob"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("send fork notification").Len() == 1
	}, time.Second, 10*time.Millisecond)
	entry := logs.FilterMessage("send fork notification").All()[0]
	assert.Equal(t, recipe.ID, entry.ContextMap()["recipe_id"])
}

func TestForkRecipeErrors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	recipe := f.create(t, newIdentity("alice"), "Sourdough")

	_, err := f.service.ForkRecipe(ctx, recipe.ID, domain.Identity{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.service.ForkRecipe(ctx, uuid.NewString(), newIdentity("bob"))
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestListRecipesFilters(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := newIdentity("alice")
	bob := newIdentity("bob")
	first := f.create(t, alice, "First")
	f.create(t, bob, "Second")

	_, err := f.service.ToggleStar(ctx, first.ID, bob.ID)
	require.NoError(t, err)

	trending, err := f.service.ListRecipes(ctx, domain.RecipeFilter{Sort: domain.SortTrending, Window: domain.WindowDay}, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, trending.Total)
	assert.Equal(t, "First", trending.Recipes[0].Name)
	assert.True(t, trending.Recipes[0].Starred)
	assert.False(t, trending.Recipes[1].Starred)

	mine, err := f.service.ListRecipes(ctx, domain.RecipeFilter{AuthorID: alice.ID}, "")
	require.NoError(t, err)
	require.Len(t, mine.Recipes, 1)
	assert.Equal(t, "First", mine.Recipes[0].Name)

	starred, err := f.service.ListRecipes(ctx, domain.RecipeFilter{StarredBy: bob.ID}, "")
	require.NoError(t, err)
	require.Len(t, starred.Recipes, 1)
	assert.Equal(t, first.ID, starred.Recipes[0].ID)
}

func TestListRecipesRejectsUnknownFilters(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.ListRecipes(ctx, domain.RecipeFilter{Sort: "random"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	_, err = f.service.ListRecipes(ctx, domain.RecipeFilter{Sort: domain.SortTrending, Window: "year"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)

	_, err = f.service.ListRecipes(ctx, domain.RecipeFilter{AuthorID: "nope"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestResolveFilterWindows(t *testing.T) {
	now := time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)
	s := &recipeService{now: func() time.Time { return now }}

	tests := []struct {
		filter domain.RecipeFilter
		want   *time.Time
	}{
		{domain.RecipeFilter{Sort: domain.SortTrending, Window: domain.WindowDay}, ptr(now.AddDate(0, 0, -1))},
		{domain.RecipeFilter{Sort: domain.SortTrending, Window: domain.WindowWeek}, ptr(now.AddDate(0, 0, -7))},
		{domain.RecipeFilter{Sort: domain.SortTrending, Window: domain.WindowMonth}, ptr(now.AddDate(0, -1, 0))},
		{domain.RecipeFilter{Sort: domain.SortTrending}, ptr(now.AddDate(0, 0, -7))},
		{domain.RecipeFilter{Sort: domain.SortTrending, Window: domain.WindowAll}, nil},
		{domain.RecipeFilter{Sort: domain.SortRecent, Window: domain.WindowDay}, nil},
	}

	for _, tt := range tests {
		query, err := s.resolveFilter(tt.filter)
		require.NoError(t, err)
		if tt.want == nil {
			assert.Nil(t, query.UpdatedSince, "%+v", tt.filter)
			continue
		}
		require.NotNil(t, query.UpdatedSince, "%+v", tt.filter)
		assert.True(t, tt.want.Equal(*query.UpdatedSince), "%+v", tt.filter)
	}
}

func TestResolveFilterPagination(t *testing.T) {
	s := &recipeService{now: time.Now}

	query, err := s.resolveFilter(domain.RecipeFilter{Page: 3, Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, maxLimit, query.Limit)
	assert.Equal(t, 2*maxLimit, query.Offset)

	query, err = s.resolveFilter(domain.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultLimit, query.Limit)
	assert.Zero(t, query.Offset)
}

func TestListRecipesReportsResolvedPage(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.create(t, newIdentity("alice"), "Only")

	res, err := f.service.ListRecipes(ctx, domain.RecipeFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, defaultPage, res.Page)
	assert.Equal(t, defaultLimit, res.Limit)

	res, err = f.service.ListRecipes(ctx, domain.RecipeFilter{Page: 2, Limit: 1000}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, maxLimit, res.Limit)
	assert.Empty(t, res.Recipes)
	assert.EqualValues(t, 1, res.Total)
}

func TestUpdateRecipe(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := newIdentity("alice")
	recipe := f.create(t, alice, "Sourdough")

	title := "Rye sourdough"
	instructions := "Mix.\nRest.\nBake."
	updated, err := f.service.UpdateRecipe(ctx, recipe.ID, domain.UpdateRecipeRequest{
		Title:         &title,
		Instructions:  &instructions,
		CommitMessage: "more steps",
	}, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, "Rye sourdough", updated.Name)
	assert.Equal(t, "A loaf", updated.Description)
	assert.Len(t, updated.Steps, 3)
	assert.Len(t, updated.Ingredients, 3)
	require.Len(t, updated.Versions, 2)
	assert.Equal(t, "more steps", updated.Versions[1].CommitMessage)
	assert.Equal(t, alice.ID, updated.Versions[1].Author.ID)

	updated, err = f.service.UpdateRecipe(ctx, recipe.ID, domain.UpdateRecipeRequest{}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UpdateCommitMessage, updated.Versions[2].CommitMessage)
}

func TestUpdateRecipeOwnerOnly(t *testing.T) {
	f := newServiceFixture(t)
	recipe := f.create(t, newIdentity("alice"), "Sourdough")

	_, err := f.service.UpdateRecipe(context.Background(), recipe.ID, domain.UpdateRecipeRequest{}, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUploadCoverImage(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := newIdentity("alice")
	recipe := f.create(t, alice, "Sourdough")

	first, err := f.service.UploadCoverImage(ctx, recipe.ID, imageHeader("image/png"), alice.ID)
	require.NoError(t, err)
	require.Len(t, f.s3.uploaded, 1)
	assert.Equal(t, "https://bucket.example/"+f.s3.uploaded[0], first.CoverImage)

	second, err := f.service.UploadCoverImage(ctx, recipe.ID, imageHeader("image/jpeg"), alice.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.CoverImage, second.CoverImage)
	assert.Equal(t, []string{f.s3.uploaded[0]}, f.s3.deleted)
}

func TestUploadCoverImageKeepsImageSharedWithFork(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := newIdentity("alice")
	recipe := f.create(t, alice, "Sourdough")

	_, err := f.service.UploadCoverImage(ctx, recipe.ID, imageHeader("image/png"), alice.ID)
	require.NoError(t, err)
	_, err = f.service.ForkRecipe(ctx, recipe.ID, newIdentity("bob"))
	require.NoError(t, err)

	_, err = f.service.UploadCoverImage(ctx, recipe.ID, imageHeader("image/png"), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, f.s3.deleted)
}

func TestUploadCoverImageErrors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	alice := newIdentity("alice")
	recipe := f.create(t, alice, "Sourdough")

	_, err := f.service.UploadCoverImage(ctx, recipe.ID, imageHeader("text/plain"), alice.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidImageFormat)

	_, err = f.service.UploadCoverImage(ctx, recipe.ID, imageHeader("image/png"), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	disabled := NewRecipeService(f.repo, nil, nil, nil)
	_, err = disabled.UploadCoverImage(ctx, recipe.ID, imageHeader("image/png"), alice.ID)
	assert.ErrorIs(t, err, domain.ErrStorageNotConfigured)
}

func TestCloneToTextByID(t *testing.T) {
	f := newServiceFixture(t)
	recipe := f.create(t, newIdentity("alice"), "Sourdough")

	text, err := f.service.CloneToText(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Recipe: Sourdough\n\nIngredients:\n- 500 g Bread flour\n"))
	assert.Contains(t, text, "\n- 2 Bell peppers\n- 1 Salt\n\nInstructions:\n1. Mix flour.\n2. Knead dough.")

	_, err = f.service.CloneToText(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func stripIngredientIDs(ingredients []domain.Ingredient) []domain.Ingredient {
	out := make([]domain.Ingredient, len(ingredients))
	for i, ingredient := range ingredients {
		ingredient.ID = ""
		out[i] = ingredient
	}
	return out
}

func ptr[T any](v T) *T { return &v }
