package model

// MediaSource - uploaded file stored on local disk until it is pushed to the media host
type MediaSource struct {
	Path        string
	Filename    string
	ContentType string
}

func (m *MediaSource) Present() bool {
	return m != nil && m.Path != ""
}

// RegisterInput - registration fields after multipart parsing
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *MediaSource
	CoverImage *MediaSource
}

// LoginRequest - either email or username identifies the account
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName" form:"fullName"`
	Email    string `json:"email" form:"email"`
}

// Session - result of a successful login
type Session struct {
	User         UserView `json:"user"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
}

// TokenPair - result of a successful refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
