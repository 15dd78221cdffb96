package recipe

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"mime/multipart"
	"reciperepo/domain"
	"reciperepo/entities"
	"reciperepo/internal/utils/storage"
	"reciperepo/pkg/profile"
	"strings"
	"time"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	coverFolder = "recipes"
)

type (
	RecipeService interface {
		LoadRecipe(ctx context.Context, recipeID string, viewerID string) (domain.Recipe, error)
		ListRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) (domain.RecipeListResponse, error)
		ToggleStar(ctx context.Context, recipeID string, userID string) (domain.Recipe, error)
		ForkRecipe(ctx context.Context, recipeID string, identity domain.Identity) (domain.ForkRecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, identity domain.Identity) (domain.Recipe, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.Recipe, error)
		UploadCoverImage(ctx context.Context, recipeID string, file *multipart.FileHeader, userID string) (domain.Recipe, error)
		CloneToText(ctx context.Context, recipeID string) (string, error)
	}

	// ForkNotifier is told about every successful fork of somebody else's recipe.
	ForkNotifier interface {
		NotifyFork(toEmail, recipeName, forkerName, forkedRecipeID string) error
	}

	recipeService struct {
		recipeRepository RecipeRepository
		s3               storage.AwsS3
		notifier         ForkNotifier
		logger           *zap.Logger
		now              func() time.Time
	}
)

// NewRecipeService accepts a nil s3 (cover uploads disabled) and a nil notifier.
func NewRecipeService(recipeRepository RecipeRepository, s3 storage.AwsS3, notifier ForkNotifier, logger *zap.Logger) RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recipeService{
		recipeRepository: recipeRepository,
		s3:               s3,
		notifier:         notifier,
		logger:           logger,
		now:              time.Now,
	}
}

func storeError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

// getRecipeRow maps a missing or malformed id to domain.ErrRecipeNotFound.
func (s *recipeService) getRecipeRow(ctx context.Context, recipeID string) (*entities.Recipe, error) {
	id, err := uuid.Parse(recipeID)
	if err != nil {
		return nil, domain.ErrRecipeNotFound
	}

	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, storeError(err)
	}
	return recipe, nil
}

func parseUserID(userID string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return id, nil
}

func (s *recipeService) LoadRecipe(ctx context.Context, recipeID string, viewerID string) (domain.Recipe, error) {
	id, err := uuid.Parse(recipeID)
	if err != nil {
		return domain.Recipe{}, domain.ErrRecipeNotFound
	}
	viewer, viewerErr := uuid.Parse(viewerID)

	var (
		row     *entities.Recipe
		starred bool
		forked  bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		row, err = s.recipeRepository.GetRecipeByID(gctx, id)
		return err
	})
	if viewerErr == nil {
		g.Go(func() error {
			var err error
			starred, err = s.recipeRepository.IsStarred(gctx, id, viewer)
			return err
		})
		g.Go(func() error {
			var err error
			forked, err = s.recipeRepository.HasForked(gctx, id, viewer)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Recipe{}, domain.ErrRecipeNotFound
		}
		return domain.Recipe{}, storeError(err)
	}

	recipe := toDomainRecipe(row)
	recipe.Starred = starred
	recipe.Forked = forked
	return recipe, nil
}

// resolveFilter turns a RecipeFilter into a repository query. Trending defaults to the week window.
func (s *recipeService) resolveFilter(filter domain.RecipeFilter) (ListQuery, error) {
	var query ListQuery

	switch filter.Sort {
	case "", domain.SortRecent:
	case domain.SortTrending:
		query.Trending = true
	default:
		return ListQuery{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidFilter, filter.Sort)
	}

	now := s.now()
	var since time.Time
	switch filter.Window {
	case "":
		if query.Trending {
			since = now.AddDate(0, 0, -7)
		}
	case domain.WindowDay:
		since = now.AddDate(0, 0, -1)
	case domain.WindowWeek:
		since = now.AddDate(0, 0, -7)
	case domain.WindowMonth:
		since = now.AddDate(0, -1, 0)
	case domain.WindowAll:
	default:
		return ListQuery{}, fmt.Errorf("%w: unknown window %q", domain.ErrInvalidFilter, filter.Window)
	}
	if query.Trending && !since.IsZero() {
		query.UpdatedSince = &since
	}

	if filter.AuthorID != "" {
		id, err := uuid.Parse(filter.AuthorID)
		if err != nil {
			return ListQuery{}, fmt.Errorf("%w: author_id", domain.ErrInvalidFilter)
		}
		query.AuthorID = &id
	}
	if filter.StarredBy != "" {
		id, err := uuid.Parse(filter.StarredBy)
		if err != nil {
			return ListQuery{}, fmt.Errorf("%w: starred_by", domain.ErrInvalidFilter)
		}
		query.StarredBy = &id
	}

	page := filter.Page
	if page < 1 {
		page = defaultPage
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	query.Offset = (page - 1) * limit
	query.Limit = limit
	return query, nil
}

func (s *recipeService) ListRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) (domain.RecipeListResponse, error) {
	query, err := s.resolveFilter(filter)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}

	rows, total, err := s.recipeRepository.ListRecipes(ctx, query)
	if err != nil {
		return domain.RecipeListResponse{}, storeError(err)
	}

	recipes := make([]domain.Recipe, len(rows))
	for i, row := range rows {
		recipes[i] = toDomainRecipe(row)
	}

	if viewer, err := uuid.Parse(viewerID); err == nil && len(rows) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for i, row := range rows {
			g.Go(func() error {
				starred, err := s.recipeRepository.IsStarred(gctx, row.ID, viewer)
				if err != nil {
					return err
				}
				forked, err := s.recipeRepository.HasForked(gctx, row.ID, viewer)
				if err != nil {
					return err
				}
				recipes[i].Starred = starred
				recipes[i].Forked = forked
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return domain.RecipeListResponse{}, storeError(err)
		}
	}

	return domain.RecipeListResponse{
		Recipes: recipes,
		Total:   total,
		Page:    query.Offset/query.Limit + 1,
		Limit:   query.Limit,
	}, nil
}

// ToggleStar flips the caller's star. An insert that finds the row already present counts as
// starred, so the outcome always matches what the store holds afterwards.
func (s *recipeService) ToggleStar(ctx context.Context, recipeID string, userID string) (domain.Recipe, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return domain.Recipe{}, err
	}

	row, err := s.getRecipeRow(ctx, recipeID)
	if err != nil {
		return domain.Recipe{}, err
	}

	starred, err := s.recipeRepository.IsStarred(ctx, row.ID, uid)
	if err != nil {
		return domain.Recipe{}, storeError(err)
	}

	if starred {
		if _, err := s.recipeRepository.RemoveStar(ctx, row.ID, uid); err != nil {
			return domain.Recipe{}, storeError(err)
		}
	} else {
		_, inserted, err := s.recipeRepository.AddStar(ctx, row.ID, uid)
		if err != nil {
			return domain.Recipe{}, storeError(err)
		}
		if !inserted {
			s.logger.Debug("star already present", zap.String("recipe_id", recipeID), zap.String("user_id", userID))
		}
	}

	return s.LoadRecipe(ctx, recipeID, userID)
}

func (s *recipeService) ForkRecipe(ctx context.Context, recipeID string, identity domain.Identity) (domain.ForkRecipeResponse, error) {
	uid, err := parseUserID(identity.ID)
	if err != nil {
		return domain.ForkRecipeResponse{}, err
	}

	original, err := s.getRecipeRow(ctx, recipeID)
	if err != nil {
		return domain.ForkRecipeResponse{}, err
	}

	forked, err := s.recipeRepository.HasForked(ctx, original.ID, uid)
	if err != nil {
		return domain.ForkRecipeResponse{}, storeError(err)
	}
	if forked {
		return domain.ForkRecipeResponse{}, domain.ErrAlreadyForked
	}

	forker, err := profile.NewDefaultProfile(identity)
	if err != nil {
		return domain.ForkRecipeResponse{}, err
	}

	author := profile.ToDomainUser(original.Author, original.AuthorID.String())
	commitMessage := fmt.Sprintf("Forked from %s/%s", author.Username, original.Name)

	copied, forks, err := s.recipeRepository.ForkRecipe(ctx, original, forker, commitMessage)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyForked) {
			return domain.ForkRecipeResponse{}, err
		}
		return domain.ForkRecipeResponse{}, storeError(err)
	}

	res, err := s.LoadRecipe(ctx, recipeID, identity.ID)
	if err != nil {
		return domain.ForkRecipeResponse{}, err
	}
	res.Forks = forks

	s.notifyFork(original, forker, copied.ID.String())

	return domain.ForkRecipeResponse{
		Recipe:         res,
		ForkedRecipeID: copied.ID.String(),
	}, nil
}

// notifyFork sends in the background so a slow mail server never holds up the fork.
// Failures are logged and never reach the caller.
func (s *recipeService) notifyFork(original *entities.Recipe, forker *entities.Profile, forkedRecipeID string) {
	if s.notifier == nil || original.Author == nil || original.AuthorID == forker.ID {
		return
	}

	toEmail, recipeName, forkerName := original.Author.Email, original.Name, forker.Name
	recipeID := original.ID.String()
	go func() {
		if err := s.notifier.NotifyFork(toEmail, recipeName, forkerName, forkedRecipeID); err != nil {
			s.logger.Warn("send fork notification",
				zap.String("recipe_id", recipeID),
				zap.Error(err))
		}
	}()
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, identity domain.Identity) (domain.Recipe, error) {
	if identity.ID == "" {
		return domain.Recipe{}, domain.ErrUnauthenticated
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return domain.Recipe{}, fmt.Errorf("%w: title and description are required", domain.ErrInvalidInput)
	}

	author, err := profile.NewDefaultProfile(identity)
	if err != nil {
		return domain.Recipe{}, err
	}

	draft := RecipeDraft{
		Recipe: &entities.Recipe{
			Name:        title,
			Description: description,
		},
		Ingredients:   toIngredientRows(ParseIngredients(req.Ingredients)),
		Steps:         toStepRows(ParseSteps(req.Instructions)),
		Tags:          toTagRows(req.Tags),
		CommitMessage: domain.InitialCommitMessage,
	}

	created, err := s.recipeRepository.CreateRecipe(ctx, author, draft)
	if err != nil {
		s.logger.Error("create recipe", zap.String("user_id", identity.ID), zap.Error(err))
		return domain.Recipe{}, err
	}

	return s.LoadRecipe(ctx, created.ID.String(), identity.ID)
}

func (s *recipeService) ownedRecipe(ctx context.Context, recipeID string, userID string) (*entities.Recipe, uuid.UUID, error) {
	uid, err := parseUserID(userID)
	if err != nil {
		return nil, uuid.Nil, err
	}

	row, err := s.getRecipeRow(ctx, recipeID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if row.AuthorID != uid {
		return nil, uuid.Nil, domain.ErrForbidden
	}
	return row, uid, nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.Recipe, error) {
	row, uid, err := s.ownedRecipe(ctx, recipeID, userID)
	if err != nil {
		return domain.Recipe{}, err
	}

	revision := RecipeRevision{
		Name:        row.Name,
		Description: row.Description,
	}
	if req.Title != nil {
		revision.Name = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		revision.Description = strings.TrimSpace(*req.Description)
	}
	if revision.Name == "" || revision.Description == "" {
		return domain.Recipe{}, fmt.Errorf("%w: title and description are required", domain.ErrInvalidInput)
	}
	if req.Ingredients != nil {
		revision.Ingredients = toIngredientRows(ParseIngredients(*req.Ingredients))
	}
	if req.Instructions != nil {
		revision.Steps = toStepRows(ParseSteps(*req.Instructions))
	}
	if req.Tags != nil {
		revision.Tags = toTagRows(req.Tags)
	}

	commitMessage := strings.TrimSpace(req.CommitMessage)
	if commitMessage == "" {
		commitMessage = domain.UpdateCommitMessage
	}
	revision.Version = entities.RecipeVersion{
		AuthorID:      uid,
		CommitMessage: commitMessage,
	}

	if err := s.recipeRepository.ReviseRecipe(ctx, row, revision); err != nil {
		s.logger.Error("update recipe", zap.String("recipe_id", recipeID), zap.Error(err))
		return domain.Recipe{}, storeError(err)
	}

	return s.LoadRecipe(ctx, recipeID, userID)
}

func (s *recipeService) UploadCoverImage(ctx context.Context, recipeID string, file *multipart.FileHeader, userID string) (domain.Recipe, error) {
	if s.s3 == nil {
		return domain.Recipe{}, domain.ErrStorageNotConfigured
	}

	row, _, err := s.ownedRecipe(ctx, recipeID, userID)
	if err != nil {
		return domain.Recipe{}, err
	}

	if file == nil || !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return domain.Recipe{}, domain.ErrInvalidImageFormat
	}

	objectKey, err := s.s3.UploadFile(uuid.NewString(), file, coverFolder, storage.AllowImage...)
	if err != nil {
		if errors.Is(err, storage.ErrFileTypeNotAllowed) {
			return domain.Recipe{}, domain.ErrInvalidImageFormat
		}
		return domain.Recipe{}, fmt.Errorf("upload cover image: %w", err)
	}

	previous := row.CoverImage
	if err := s.recipeRepository.UpdateCoverImage(ctx, row.ID, s.s3.GetPublicLinkKey(objectKey)); err != nil {
		if delErr := s.s3.DeleteFile(objectKey); delErr != nil {
			s.logger.Warn("delete orphaned cover image", zap.String("key", objectKey), zap.Error(delErr))
		}
		return domain.Recipe{}, storeError(err)
	}

	s.removeUnusedCover(ctx, previous)

	return s.LoadRecipe(ctx, recipeID, userID)
}

// removeUnusedCover deletes the stored object behind link unless a fork still shows it.
func (s *recipeService) removeUnusedCover(ctx context.Context, link string) {
	key := s.s3.GetObjectKeyFromLink(link)
	if key == "" {
		return
	}

	count, err := s.recipeRepository.CountRecipesWithCover(ctx, link)
	if err != nil || count > 0 {
		return
	}
	if err := s.s3.DeleteFile(key); err != nil {
		s.logger.Warn("delete previous cover image", zap.String("key", key), zap.Error(err))
	}
}

func (s *recipeService) CloneToText(ctx context.Context, recipeID string) (string, error) {
	recipe, err := s.LoadRecipe(ctx, recipeID, "")
	if err != nil {
		return "", err
	}
	return CloneToText(recipe), nil
}
