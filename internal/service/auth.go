package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/config"
	"github.com/vidhub/backend/internal/db"
	"github.com/vidhub/backend/internal/logger"
	"github.com/vidhub/backend/internal/model"
	"github.com/vidhub/backend/internal/password"
	"github.com/vidhub/backend/internal/token"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

var (
	ErrMissingFields        = apperr.Validation("all fields are required")
	ErrIdentifierRequired   = apperr.Validation("username or email is required")
	ErrAvatarRequired       = apperr.Validation("avatar file is required")
	ErrCoverImageRequired   = apperr.Validation("cover image file is required")
	ErrUserExists           = apperr.Conflict("user with email or username already exists")
	ErrEmailTaken           = apperr.Conflict("email is already in use")
	ErrUserNotFound         = apperr.NotFound("user does not exist")
	ErrInvalidCredentials   = apperr.Unauthorized("invalid user credentials")
	ErrInvalidOldPassword   = apperr.Unauthorized("invalid old password")
	ErrRefreshTokenRequired = apperr.Unauthorized("unauthorized request")
	ErrInvalidRefreshToken  = apperr.Unauthorized("invalid refresh token")
	ErrRefreshTokenReused   = apperr.Unauthorized("refresh token is expired or used")
	ErrInvalidAccessToken   = apperr.Unauthorized("invalid access token")

	ErrMisconfigured = errors.New("auth config invalid")
)

// UserStore - credential store consumed by AuthService
type UserStore interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user model.User) (*model.User, error)
	UpdateFields(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
}

// MediaUploader - pushes a local file to the media host and returns its URL
type MediaUploader interface {
	Upload(ctx context.Context, src model.MediaSource) (string, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type TokenManager interface {
	IssueAccessToken(claim token.AccessClaim) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyAccessToken(tokenStr string) (token.AccessClaim, error)
	VerifyRefreshToken(tokenStr string) (string, error)
}

type CookieConfig struct {
	Path          string
	Domain        string
	Secure        bool
	SameSite      http.SameSite
	AccessMaxAge  int
	RefreshMaxAge int
}

type AuthService struct {
	store     UserStore
	media     MediaUploader
	hasher    PasswordHasher
	tokens    TokenManager
	log       *logger.Logger
	cookieCfg CookieConfig

	// removeFile releases local upload files; os.Remove outside tests
	removeFile func(name string) error
}

func NewAuthService(store UserStore, media MediaUploader, cfg config.AuthConfig, production bool, log *logger.Logger) (*AuthService, error) {
	tokens, err := token.NewManager(token.Config{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMisconfigured, err)
	}

	cookieSecure, err := parseBool(cfg.CookieSecure, production)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SECURE", ErrMisconfigured)
	}

	cookieSameSite, err := parseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid AUTH_COOKIE_SAMESITE", ErrMisconfigured)
	}

	if cookieSameSite == http.SameSiteNoneMode && !cookieSecure {
		return nil, fmt.Errorf("%w: SameSite=None requires Secure cookie", ErrMisconfigured)
	}

	cookiePath := cfg.CookiePath
	if strings.TrimSpace(cookiePath) == "" {
		cookiePath = "/"
	}

	if log == nil {
		log = logger.Nop()
	}

	return &AuthService{
		store:  store,
		media:  media,
		hasher: password.NewHasher(cfg.BcryptCost),
		tokens: tokens,
		log:    log,
		cookieCfg: CookieConfig{
			Path:          cookiePath,
			Domain:        cfg.CookieDomain,
			Secure:        cookieSecure,
			SameSite:      cookieSameSite,
			AccessMaxAge:  int(cfg.AccessTokenExpiry.Seconds()),
			RefreshMaxAge: int(cfg.RefreshTokenExpiry.Seconds()),
		},
		removeFile: os.Remove,
	}, nil
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

// =====================================================================
// Registration
// =====================================================================

func (s *AuthService) Register(ctx context.Context, in model.RegisterInput) (model.UserView, error) {
	defer s.releaseUploads(in.Avatar, in.CoverImage)

	fullName := strings.TrimSpace(in.FullName)
	email := normalizeIdentifier(in.Email)
	username := normalizeIdentifier(in.Username)
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return model.UserView{}, ErrMissingFields
	}

	_, err := s.store.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		return model.UserView{}, ErrUserExists
	case !errors.Is(err, db.ErrNotFound):
		return model.UserView{}, apperr.Internal("failed to look up user", err)
	}

	if !in.Avatar.Present() {
		return model.UserView{}, ErrAvatarRequired
	}

	avatarURL, err := s.media.Upload(ctx, *in.Avatar)
	if err != nil || avatarURL == "" {
		return model.UserView{}, apperr.Upstream("failed to upload avatar", err)
	}

	// Optional cover image: a failed upload leaves it empty
	coverURL := ""
	if in.CoverImage.Present() {
		url, err := s.media.Upload(ctx, *in.CoverImage)
		if err != nil {
			s.log.Warn("Auth service: cover image upload failed", "username", username, "error", err)
		} else {
			coverURL = url
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.UserView{}, err
	}

	created, err := s.store.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return model.UserView{}, ErrUserExists
		}
		return model.UserView{}, apperr.Internal("something went wrong while registering the user", err)
	}

	user, err := s.store.FindByID(ctx, created.ID)
	if err != nil {
		return model.UserView{}, apperr.Internal("something went wrong while registering the user", err)
	}

	s.log.Info("Auth service: user registered", "user_id", user.ID, "username", user.Username)
	return user.View(), nil
}

// =====================================================================
// Session lifecycle
// =====================================================================

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.Session, error) {
	email := normalizeIdentifier(req.Email)
	username := normalizeIdentifier(req.Username)
	if email == "" && username == "" {
		return model.Session{}, ErrIdentifierRequired
	}

	user, err := s.store.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.Session{}, ErrUserNotFound
		}
		return model.Session{}, apperr.Internal("failed to look up user", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return model.Session{}, ErrInvalidCredentials
	}

	pair, err := s.rotateTokens(ctx, user)
	if err != nil {
		return model.Session{}, err
	}

	s.log.Info("Auth service: user logged in", "user_id", user.ID)
	return model.Session{
		User:         user.View(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	_, err := s.store.UpdateFields(ctx, userID, model.UserPatch{RefreshToken: model.StringPtr("")})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUserNotFound
		}
		return apperr.Internal("failed to clear session", err)
	}

	s.log.Info("Auth service: user logged out", "user_id", userID)
	return nil
}

func (s *AuthService) Refresh(ctx context.Context, incoming string) (model.TokenPair, error) {
	if strings.TrimSpace(incoming) == "" {
		return model.TokenPair{}, ErrRefreshTokenRequired
	}

	// Expired and forged tokens are reported the same way
	userID, err := s.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return model.TokenPair{}, ErrInvalidRefreshToken
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.TokenPair{}, ErrInvalidRefreshToken
		}
		return model.TokenPair{}, apperr.Internal("failed to look up user", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(incoming), []byte(user.RefreshToken)) != 1 {
		s.log.Warn("Auth service: stale refresh token presented", "user_id", user.ID)
		return model.TokenPair{}, ErrRefreshTokenReused
	}

	return s.rotateTokens(ctx, user)
}

// Authenticate resolves an access token to the current user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (model.UserView, error) {
	if strings.TrimSpace(accessToken) == "" {
		return model.UserView{}, ErrRefreshTokenRequired
	}

	claim, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return model.UserView{}, ErrInvalidAccessToken
	}

	user, err := s.store.FindByID(ctx, claim.UserID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return model.UserView{}, ErrInvalidAccessToken
		}
		return model.UserView{}, apperr.Internal("failed to look up user", err)
	}
	return user.View(), nil
}

// rotateTokens issues a fresh pair and stores the refresh token before returning it.
func (s *AuthService) rotateTokens(ctx context.Context, user *model.User) (model.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(token.AccessClaim{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return model.TokenPair{}, apperr.Internal("failed to generate access token", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return model.TokenPair{}, apperr.Internal("failed to generate refresh token", err)
	}

	if _, err := s.store.UpdateFields(ctx, user.ID, model.UserPatch{RefreshToken: &refreshToken}); err != nil {
		return model.TokenPair{}, apperr.Internal("failed to persist refresh token", err)
	}

	return model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// =====================================================================
// Account
// =====================================================================

func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(req.OldPassword, user.PasswordHash) {
		return ErrInvalidOldPassword
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if _, err := s.store.UpdateFields(ctx, userID, model.UserPatch{PasswordHash: &hash}); err != nil {
		return apperr.Internal("failed to update password", err)
	}

	s.log.Info("Auth service: password changed", "user_id", userID)
	return nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (model.UserView, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return model.UserView{}, err
	}
	return user.View(), nil
}

func (s *AuthService) GetWatchHistory(ctx context.Context, userID string) ([]string, error) {
	user, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.View().WatchHistory, nil
}

func (s *AuthService) UpdateAccountDetails(ctx context.Context, userID string, req model.UpdateAccountRequest) (model.UserView, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := normalizeIdentifier(req.Email)
	if fullName == "" || email == "" {
		return model.UserView{}, ErrMissingFields
	}

	user, err := s.store.UpdateFields(ctx, userID, model.UserPatch{FullName: &fullName, Email: &email})
	if err != nil {
		return model.UserView{}, s.updateError(err)
	}
	return user.View(), nil
}

func (s *AuthService) UpdateAvatar(ctx context.Context, userID string, src *model.MediaSource) (model.UserView, error) {
	defer s.releaseUploads(src)

	if !src.Present() {
		return model.UserView{}, ErrAvatarRequired
	}

	url, err := s.media.Upload(ctx, *src)
	if err != nil || url == "" {
		return model.UserView{}, apperr.Upstream("failed to upload avatar", err)
	}

	user, err := s.store.UpdateFields(ctx, userID, model.UserPatch{Avatar: &url})
	if err != nil {
		return model.UserView{}, s.updateError(err)
	}
	return user.View(), nil
}

func (s *AuthService) UpdateCoverImage(ctx context.Context, userID string, src *model.MediaSource) (model.UserView, error) {
	defer s.releaseUploads(src)

	if !src.Present() {
		return model.UserView{}, ErrCoverImageRequired
	}

	url, err := s.media.Upload(ctx, *src)
	if err != nil || url == "" {
		return model.UserView{}, apperr.Upstream("failed to upload cover image", err)
	}

	user, err := s.store.UpdateFields(ctx, userID, model.UserPatch{CoverImage: &url})
	if err != nil {
		return model.UserView{}, s.updateError(err)
	}
	return user.View(), nil
}

func (s *AuthService) findUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal("failed to look up user", err)
	}
	return user, nil
}

func (s *AuthService) updateError(err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, db.ErrDuplicate):
		return ErrEmailTaken
	default:
		return apperr.Internal("failed to update user", err)
	}
}

// releaseUploads deletes local temp files whatever the outcome of the request.
func (s *AuthService) releaseUploads(srcs ...*model.MediaSource) {
	for _, src := range srcs {
		if !src.Present() {
			continue
		}
		if err := s.removeFile(src.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Auth service: failed to remove temp upload", "path", src.Path, "error", err)
		}
	}
}

func normalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}

func parseSameSite(value string) (http.SameSite, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return http.SameSiteLaxMode, nil
	}
	switch value {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite mode %q", value)
	}
}
