// User account entity and the views derived from it.
// Shared by the db, service and handler layers, so it lives in model.

package model

import "time"

// User - stored account record
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Avatar       string
	CoverImage   string
	PasswordHash string

	// Latest issued refresh token; empty after logout
	RefreshToken string

	// Video ids, most recent last
	WatchHistory []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch - partial update; nil fields are left untouched.
// A non-nil empty RefreshToken clears the stored token.
type UserPatch struct {
	FullName     *string
	Email        *string
	Avatar       *string
	CoverImage   *string
	PasswordHash *string
	RefreshToken *string
}

// UserView - safe outward view without password hash and refresh token
type UserView struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	WatchHistory []string  `json:"watchHistory"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) View() UserView {
	history := u.WatchHistory
	if history == nil {
		history = []string{}
	}
	return UserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Avatar:       u.Avatar,
		CoverImage:   u.CoverImage,
		WatchHistory: history,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// StringPtr is a helper for building patches.
func StringPtr(s string) *string {
	return &s
}
