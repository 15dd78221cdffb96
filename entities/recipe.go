package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"time"
)

type Recipe struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;index" json:"author_id"`
	Name         string     `gorm:"not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	CoverImage   string     `json:"cover_image,omitempty"`
	Stars        int        `gorm:"not null;default:0;index" json:"stars"`
	Forks        int        `gorm:"not null;default:0" json:"forks"`
	ForkedFromID *uuid.UUID `gorm:"type:uuid" json:"forked_from_id,omitempty"`

	Author      *Profile        `gorm:"foreignKey:AuthorID"`
	Ingredients []Ingredient    `gorm:"foreignKey:RecipeID"`
	Steps       []Step          `gorm:"foreignKey:RecipeID"`
	Tags        []RecipeTag     `gorm:"foreignKey:RecipeID"`
	Versions    []RecipeVersion `gorm:"foreignKey:RecipeID"`
	Timestamp
}

type Ingredient struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID uuid.UUID `gorm:"type:uuid;index" json:"recipe_id"`
	Position int       `json:"position"`
	Name     string    `json:"name"`
	Quantity string    `json:"quantity"`
	Unit     *string   `json:"unit,omitempty"`
}

type Step struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_step_recipe_order" json:"recipe_id"`
	OrderNum    int       `gorm:"column:order_num;uniqueIndex:idx_step_recipe_order" json:"order_num"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `json:"image,omitempty"`
}

type RecipeTag struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_tag_recipe_tag" json:"recipe_id"`
	Tag      string    `gorm:"uniqueIndex:idx_tag_recipe_tag" json:"tag"`
}

// RecipeVersion rows are append-only.
type RecipeVersion struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID      uuid.UUID `gorm:"type:uuid;index;index:idx_version_recipe_seq,priority:1" json:"recipe_id"`
	Seq           int       `gorm:"not null;default:0;index:idx_version_recipe_seq,priority:2" json:"seq"`
	AuthorID      uuid.UUID `gorm:"type:uuid" json:"author_id"`
	CommitMessage string    `json:"commit_message"`
	CreatedAt     time.Time `gorm:"type:timestamp" json:"created_at"`

	Author *Profile `gorm:"foreignKey:AuthorID"`
}

type Star struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_star_recipe_user" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_star_recipe_user" json:"user_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`
}

type Fork struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OriginalRecipeID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_fork_original_user" json:"original_recipe_id"`
	UserID           uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_fork_original_user" json:"user_id"`
	ForkedRecipeID   uuid.UUID `gorm:"type:uuid" json:"forked_recipe_id"`
	CreatedAt        time.Time `gorm:"type:timestamp" json:"created_at"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (s *Step) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (t *RecipeTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (v *RecipeVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (s *Star) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (f *Fork) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
