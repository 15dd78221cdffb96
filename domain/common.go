package domain

import (
	"errors"
)

var (
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedGetToken       = "failed to get token"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageSuccessSignOut       = "signed out successfully"
	MessageSuccessGetIdentity   = "success get identity"

	ErrParseUUID        = errors.New("failed to parse UUID")
	ErrTokenNotFound    = errors.New("failed to token not found")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrUnauthenticated  = errors.New("sign in required")
	ErrForbidden        = errors.New("only the owner can modify this record")
	ErrInvalidInput     = errors.New("invalid input")
	ErrStoreUnavailable = errors.New("recipe store unavailable")
)

type (
	// IdentityMetadata mirrors the user_metadata claim issued by the identity provider.
	IdentityMetadata struct {
		FullName  string `json:"full_name,omitempty"`
		Name      string `json:"name,omitempty"`
		AvatarURL string `json:"avatar_url,omitempty"`
		Username  string `json:"username,omitempty"`
	}

	Identity struct {
		ID       string           `json:"id"`
		Email    string           `json:"email"`
		Metadata IdentityMetadata `json:"user_metadata"`
	}
)

// GravatarURL is the placeholder avatar used when no avatar is known for a user.
func GravatarURL(userID string) string {
	return "https://www.gravatar.com/avatar/" + userID + "?d=mp"
}
