package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/model"
	"github.com/vidhub/backend/internal/service"
)

var errInvalidRequest = apperr.Validation("invalid request")

type AuthHandler struct {
	svc     *service.AuthService
	tempDir string
}

// NewAuthHandler - multipart files are written under tempDir (OS temp dir when empty)
func NewAuthHandler(svc *service.AuthService, tempDir string) *AuthHandler {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &AuthHandler{svc: svc, tempDir: tempDir}
}

// Register godoc
// @Summary Register a new user
// @Description Multipart form with profile fields, a mandatory avatar and an optional cover image.
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} model.APIResponse{data=model.UserView}
// @Failure 400 {object} model.APIResponse
// @Failure 409 {object} model.APIResponse
// @Failure 502 {object} model.APIResponse
// @Failure 500 {object} model.APIResponse
// @Router /api/v1/users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	avatar, err := h.saveUpload(c, "avatar")
	if err != nil {
		writeError(c, err)
		return
	}
	cover, err := h.saveUpload(c, "coverImage")
	if err != nil {
		removeUpload(avatar)
		writeError(c, err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), model.RegisterInput{
		FullName:   c.PostForm("fullName"),
		Email:      c.PostForm("email"),
		Username:   c.PostForm("username"),
		Password:   c.PostForm("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeOK(c, http.StatusCreated, user, "user registered successfully")
}

// Login godoc
// @Summary Login
// @Description Either email or username identifies the account. Sets accessToken and refreshToken cookies.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Credentials"
// @Success 200 {object} model.APIResponse{data=model.Session}
// @Failure 400 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Failure 404 {object} model.APIResponse
// @Failure 500 {object} model.APIResponse
// @Router /api/v1/users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, errInvalidRequest)
		return
	}

	session, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookies(c, session.AccessToken, session.RefreshToken)
	writeOK(c, http.StatusOK, session, "user logged in successfully")
}

// Logout godoc
// @Summary Logout
// @Description Clears the stored refresh token and both session cookies.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := GetAuthUser(c)
	if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}

	h.clearSessionCookies(c)
	writeOK(c, http.StatusOK, gin.H{}, "user logged out")
}

// RefreshToken godoc
// @Summary Rotate the refresh token
// @Description Reads the refreshToken cookie, falling back to the JSON body.
// @Tags users
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} model.APIResponse{data=model.TokenPair}
// @Failure 401 {object} model.APIResponse
// @Failure 500 {object} model.APIResponse
// @Router /api/v1/users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	incoming, _ := c.Cookie(service.RefreshCookieName)
	if incoming == "" {
		var req model.RefreshRequest
		_ = c.ShouldBind(&req)
		incoming = req.RefreshToken
	}

	pair, err := h.svc.Refresh(c.Request.Context(), incoming)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookies(c, pair.AccessToken, pair.RefreshToken)
	writeOK(c, http.StatusOK, pair, "access token refreshed")
}

// ChangePassword godoc
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} model.APIResponse
// @Failure 400 {object} model.APIResponse
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/users/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, errInvalidRequest)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), GetAuthUser(c).ID, req); err != nil {
		writeError(c, err)
		return
	}

	writeOK(c, http.StatusOK, gin.H{}, "password changed successfully")
}

// CurrentUser godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse{data=model.UserView}
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/users/current-user [get]
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	user, err := h.svc.GetCurrentUser(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccountDetails godoc
// @Summary Update full name and email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.UpdateAccountRequest true "New account details"
// @Success 200 {object} model.APIResponse{data=model.UserView}
// @Failure 400 {object} model.APIResponse
// @Failure 409 {object} model.APIResponse
// @Router /api/v1/users/update-account-details [patch]
func (h *AuthHandler) UpdateAccountDetails(c *gin.Context) {
	var req model.UpdateAccountRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, errInvalidRequest)
		return
	}

	user, err := h.svc.UpdateAccountDetails(c.Request.Context(), GetAuthUser(c).ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatar godoc
// @Summary Replace the avatar
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} model.APIResponse{data=model.UserView}
// @Failure 400 {object} model.APIResponse
// @Failure 502 {object} model.APIResponse
// @Router /api/v1/users/update-avatar [patch]
func (h *AuthHandler) UpdateAvatar(c *gin.Context) {
	src, err := h.saveUpload(c, "avatar")
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.svc.UpdateAvatar(c.Request.Context(), GetAuthUser(c).ID, src)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, user, "avatar image updated successfully")
}

// UpdateCoverImage godoc
// @Summary Replace the cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} model.APIResponse{data=model.UserView}
// @Failure 400 {object} model.APIResponse
// @Failure 502 {object} model.APIResponse
// @Router /api/v1/users/update-cover-image [patch]
func (h *AuthHandler) UpdateCoverImage(c *gin.Context) {
	src, err := h.saveUpload(c, "coverImage")
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.svc.UpdateCoverImage(c.Request.Context(), GetAuthUser(c).ID, src)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, user, "cover image updated successfully")
}

// WatchHistory godoc
// @Summary List watched video ids
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse{data=[]string}
// @Failure 401 {object} model.APIResponse
// @Router /api/v1/users/history [get]
func (h *AuthHandler) WatchHistory(c *gin.Context) {
	history, err := h.svc.GetWatchHistory(c.Request.Context(), GetAuthUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	writeOK(c, http.StatusOK, history, "watch history fetched successfully")
}

// saveUpload stores a multipart file under tempDir. A missing field yields (nil, nil).
func (h *AuthHandler) saveUpload(c *gin.Context, field string) (*model.MediaSource, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindValidation, "invalid multipart form", err)
	}

	dst := filepath.Join(h.tempDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return nil, apperr.Internal("failed to store upload", err)
	}

	return &model.MediaSource{
		Path:        dst,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
	}, nil
}

func removeUpload(src *model.MediaSource) {
	if src.Present() {
		_ = os.Remove(src.Path)
	}
}

func (h *AuthHandler) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(service.AccessCookieName, accessToken, cfg.AccessMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
	c.SetCookie(service.RefreshCookieName, refreshToken, cfg.RefreshMaxAge, cfg.Path, cfg.Domain, cfg.Secure, true)
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	cfg := h.svc.CookieConfig()
	c.SetSameSite(cfg.SameSite)
	c.SetCookie(service.AccessCookieName, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
	c.SetCookie(service.RefreshCookieName, "", -1, cfg.Path, cfg.Domain, cfg.Secure, true)
}
