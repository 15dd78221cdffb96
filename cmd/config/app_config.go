package config

import (
	"fmt"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"os"
	"reciperepo/internal/api/handlers"
	"reciperepo/internal/api/routes"
	"reciperepo/internal/middleware"
	"reciperepo/internal/utils"
	"reciperepo/internal/utils/mailing"
	"reciperepo/internal/utils/storage"
	"reciperepo/pkg/jwt"
	"reciperepo/pkg/profile"
	"reciperepo/pkg/recipe"
	"time"
)

func NewApp(db *gorm.DB, log *zap.Logger) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: utils.GetConfig("LOG_LEVEL") == "debug",
	})
	middlewares := middleware.NewMiddleware(utils.GetConfig("APP_URL"))
	validator := utils.Validate

	// setting up access logging and limiter
	if err := os.MkdirAll("./logs", os.ModePerm); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		return nil, fmt.Errorf("open access log: %w", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	if s3 == nil {
		log.Warn("AWS_S3_BUCKET not set, cover image uploads are disabled")
	}
	notifier := mailing.NewForkNotifier()

	// Repository
	profileRepository := profile.NewProfileRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	jwtService := jwt.NewJWTService(utils.GetConfig("JWT_SECRET"), utils.GetConfig("JWT_ISSUER"))
	profileService := profile.NewProfileService(profileRepository, log.Named("profile"))
	recipeService := recipe.NewRecipeService(recipeRepository, s3, notifier, log.Named("recipe"))

	// Handler
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)
	profileHandler := handlers.NewProfileHandler(profileService, validator)
	authHandler := handlers.NewAuthHandler(jwtService)

	// routes
	routesConfig := routes.Config{
		App:            app,
		RecipeHandler:  recipeHandler,
		ProfileHandler: profileHandler,
		AuthHandler:    authHandler,
		Middleware:     middlewares,
		JWTService:     jwtService,
	}
	routesConfig.Setup()
	return app, nil
}
