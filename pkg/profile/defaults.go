package profile

import (
	"github.com/google/uuid"
	"reciperepo/domain"
	"reciperepo/entities"
)

const (
	unknownUsername = "Unknown"
	unknownName     = "Unknown User"
	newUserName     = "New User"
)

// NewDefaultProfile builds the profile row created the first time an identity writes anything.
func NewDefaultProfile(identity domain.Identity) (*entities.Profile, error) {
	id, err := uuid.Parse(identity.ID)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}

	meta := identity.Metadata
	username := meta.Username
	if username == "" {
		username = "user_" + lastN(identity.ID, 8)
	}
	name := meta.FullName
	if name == "" {
		name = meta.Name
	}
	if name == "" {
		name = newUserName
	}
	avatar := meta.AvatarURL
	if avatar == "" {
		avatar = domain.GravatarURL(identity.ID)
	}

	return &entities.Profile{
		ID:        id,
		Username:  username,
		Name:      name,
		AvatarURL: avatar,
		Email:     identity.Email,
	}, nil
}

// ToDomainUser normalizes a possibly missing profile row. fallbackID is the id the caller
// referenced, used when the row itself is absent.
func ToDomainUser(p *entities.Profile, fallbackID string) domain.User {
	user := domain.User{ID: fallbackID}
	if p != nil {
		if p.ID != uuid.Nil {
			user.ID = p.ID.String()
		}
		user.Username = p.Username
		user.Name = p.Name
		user.AvatarURL = p.AvatarURL
		user.Bio = p.Bio
	}
	if user.Username == "" {
		user.Username = unknownUsername
	}
	if user.Name == "" {
		user.Name = unknownName
	}
	if user.AvatarURL == "" {
		user.AvatarURL = domain.GravatarURL(user.ID)
	}
	return user
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
