package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var (
	ErrMisconfigured = errors.New("token config invalid")
	ErrExpired       = errors.New("token expired")
	ErrInvalid       = errors.New("token invalid")
)

// Config holds signing secrets and lifetimes. Access and refresh tokens must be
// signed with different secrets.
type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration

	// Now overrides the clock used for issuing and validation; nil means time.Now.
	Now func() time.Time
}

// AccessClaim is the identity embedded in an access token.
type AccessClaim struct {
	UserID   string
	Email    string
	Username string
	FullName string
}

type accessClaims struct {
	UserID    string `json:"_id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID    string `json:"_id"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 access and refresh tokens.
type Manager struct {
	cfg Config
	now func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: access and refresh secrets are required", ErrMisconfigured)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("%w: token lifetimes must be positive", ErrMisconfigured)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{cfg: cfg, now: now}, nil
}

func (m *Manager) AccessTTL() time.Duration {
	return m.cfg.AccessTTL
}

func (m *Manager) RefreshTTL() time.Duration {
	return m.cfg.RefreshTTL
}

func (m *Manager) IssueAccessToken(claim AccessClaim) (string, error) {
	if claim.UserID == "" {
		return "", fmt.Errorf("%w: access claim without user id", ErrMisconfigured)
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID:    claim.UserID,
		Email:     claim.Email,
		Username:  claim.Username,
		FullName:  claim.FullName,
		TokenType: typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claim.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTTL)),
		},
	})

	signed, err := token.SignedString([]byte(m.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs a minimal claim carrying only the user id. Every
// token gets a fresh jti so consecutive rotations never collide.
func (m *Manager) IssueRefreshToken(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: refresh claim without user id", ErrMisconfigured)
	}

	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		UserID:    userID,
		TokenType: typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.RefreshTTL)),
		},
	})

	signed, err := token.SignedString([]byte(m.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

func (m *Manager) VerifyAccessToken(tokenStr string) (AccessClaim, error) {
	claims := &accessClaims{}
	if err := m.parse(tokenStr, m.cfg.AccessSecret, claims); err != nil {
		return AccessClaim{}, err
	}
	if claims.TokenType != typeAccess || claims.UserID == "" {
		return AccessClaim{}, ErrInvalid
	}

	return AccessClaim{
		UserID:   claims.UserID,
		Email:    claims.Email,
		Username: claims.Username,
		FullName: claims.FullName,
	}, nil
}

// VerifyRefreshToken returns the user id embedded in a refresh token.
func (m *Manager) VerifyRefreshToken(tokenStr string) (string, error) {
	claims := &refreshClaims{}
	if err := m.parse(tokenStr, m.cfg.RefreshSecret, claims); err != nil {
		return "", err
	}
	if claims.TokenType != typeRefresh || claims.UserID == "" {
		return "", ErrInvalid
	}
	return claims.UserID, nil
}

func (m *Manager) parse(tokenStr, secret string, claims jwt.Claims) error {
	if tokenStr == "" {
		return ErrInvalid
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid {
		return ErrInvalid
	}
	return nil
}
