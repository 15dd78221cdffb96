package entities

import (
	"github.com/google/uuid"
)

// Profile is keyed by the identity provider's user id, so it has no generated default.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Bio       string    `json:"bio,omitempty"`
	Email     string    `json:"-"`

	Timestamp
}
