package handler

import (
	"math"

	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/service"
)

const profilePicPath = "/me/profile-pic"

type userResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Provider    string  `json:"provider"`
	ProfilePic  *string `json:"profilePic"`
}

// newUserResponse never carries the password hash or federated id.
func newUserResponse(u model.User) userResponse {
	var pic *string
	if u.ProfilePic != nil {
		p := *u.ProfilePic
		if service.IsStoredProfilePic(p) {
			p = profilePicPath
		}
		pic = &p
	}

	return userResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Provider:    string(u.Provider),
		ProfilePic:  pic,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func newTokenResponse(t model.AccessToken) tokenResponse {
	return tokenResponse{
		AccessToken: t.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(math.Round(t.ExpiresAt.Sub(t.IssuedAt).Seconds())),
	}
}
