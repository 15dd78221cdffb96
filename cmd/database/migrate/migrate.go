package migration

import (
	"fmt"
	"gorm.io/gorm"
	"reciperepo/entities"
)

func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";").Error; err != nil {
			return fmt.Errorf("create uuid-ossp extension: %w", err)
		}
	}

	// profiles first: recipes, versions and stars all reference them
	models := []struct {
		name  string
		model interface{}
	}{
		{"profile", &entities.Profile{}},
		{"recipe", &entities.Recipe{}},
		{"ingredient", &entities.Ingredient{}},
		{"step", &entities.Step{}},
		{"recipe tag", &entities.RecipeTag{}},
		{"recipe version", &entities.RecipeVersion{}},
		{"star", &entities.Star{}},
		{"fork", &entities.Fork{}},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m.model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", m.name, err)
		}
	}
	return nil
}
