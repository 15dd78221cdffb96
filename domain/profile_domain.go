package domain

import (
	"errors"
)

var (
	MessageSuccessGetProfile    = "success get profile"
	MessageSuccessUpdateProfile = "profile updated successfully"

	MessageFailedGetProfile    = "failed to load profile"
	MessageFailedUpdateProfile = "failed to update profile"

	ErrProfileNotFound = errors.New("profile not found")
)

type (
	User struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
		Bio       string `json:"bio,omitempty"`
	}

	UpdateProfileRequest struct {
		Username  string `json:"username" validate:"required,max=39"`
		Name      string `json:"name" validate:"required,max=100"`
		Bio       string `json:"bio" validate:"max=500"`
		AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	}
)
