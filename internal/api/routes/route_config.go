package routes

import (
	"github.com/gofiber/fiber/v2"
	"reciperepo/internal/api/handlers"
	"reciperepo/internal/middleware"
	"reciperepo/pkg/jwt"
)

type Config struct {
	App            *fiber.App
	RecipeHandler  handlers.RecipeHandler
	ProfileHandler handlers.ProfileHandler
	AuthHandler    handlers.AuthHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Recipes()
	c.Profiles()
	c.Auth()
	c.GuestRoute()
}

func (c *Config) Recipes() {
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	recipes := c.App.Group("/api/v1/recipes")
	{
		recipes.Get("", optional, c.RecipeHandler.ListRecipes)
		recipes.Post("", auth, c.RecipeHandler.CreateRecipe)
		recipes.Get("/:id", optional, c.RecipeHandler.GetRecipe)
		recipes.Put("/:id", auth, c.RecipeHandler.UpdateRecipe)
		recipes.Get("/:id/clone", c.RecipeHandler.CloneRecipe)

		recipes.Post("/:id/star", auth, c.RecipeHandler.ToggleStar)
		recipes.Post("/:id/fork", auth, c.RecipeHandler.ForkRecipe)
		recipes.Post("/:id/cover", auth, c.RecipeHandler.UploadCoverImage)
	}
}

func (c *Config) Profiles() {
	profiles := c.App.Group("/api/v1/profiles")
	{
		profiles.Get("/me", c.Middleware.AuthMiddleware(c.JWTService), c.ProfileHandler.GetMyProfile)
		profiles.Put("/me", c.Middleware.AuthMiddleware(c.JWTService), c.ProfileHandler.UpdateMyProfile)
		profiles.Get("/:id", c.ProfileHandler.GetProfile)
	}
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/v1/auth", c.Middleware.AuthMiddleware(c.JWTService))
	auth.Get("/me", c.AuthHandler.Me)
	auth.Post("/signout", c.AuthHandler.SignOut)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}
