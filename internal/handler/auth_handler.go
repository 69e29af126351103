package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/embassy-gov/portal-api/internal/middleware"
	"github.com/embassy-gov/portal-api/internal/models"
	"github.com/embassy-gov/portal-api/internal/service"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/response"
)

// AuthHandler wires HTTP endpoints to the auth service. The token pair is
// exchanged exclusively through httpOnly SameSite=Lax cookies.
type AuthHandler struct {
	service       *service.AuthService
	tokens        *service.TokenService
	secureCookies bool
}

// NewAuthHandler creates a new handler. secureCookies should be true in
// production so cookies are HTTPS-only.
func NewAuthHandler(svc *service.AuthService, tokens *service.TokenService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: svc, tokens: tokens, secureCookies: secureCookies}
}

// Register godoc
// @Summary Register account
// @Description Create a new account; the configured admin email receives the admin role
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password; sets the token pair cookies
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, middleware.AccessTokenCookie, res.AccessToken, int(h.tokens.AccessTTL().Seconds()))
	h.setCookie(c, middleware.RefreshTokenCookie, res.RefreshToken, int(h.tokens.RefreshTTL().Seconds()))

	response.JSON(c, http.StatusOK, res.User, nil)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh cookie for a new access cookie; the refresh token is not rotated
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(middleware.RefreshTokenCookie)
	if err != nil || raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "refresh token required"))
		return
	}

	accessToken, expiresAt, err := h.service.Refresh(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setCookie(c, middleware.AccessTokenCookie, accessToken, int(h.tokens.AccessTTL().Seconds()))

	response.JSON(c, http.StatusOK, gin.H{"expires_at": expiresAt}, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Clears the session; always succeeds so the client ends up logged out locally
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		h.service.Logout(c.Request.Context(), raw)
	}

	h.clearCookie(c, middleware.AccessTokenCookie)
	h.clearCookie(c, middleware.RefreshTokenCookie)

	response.JSON(c, http.StatusOK, gin.H{"message": "logged out"}, nil)
}

// LogoutAll godoc
// @Summary Invalidate every session
// @Description Clears all persisted refresh tokens; other users lose refresh capability, not their current access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	if err := h.service.LogoutAll(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}

	h.clearCookie(c, middleware.AccessTokenCookie)
	h.clearCookie(c, middleware.RefreshTokenCookie)

	response.JSON(c, http.StatusOK, gin.H{"message": "all sessions invalidated"}, nil)
}

// Me godoc
// @Summary Get current user
// @Description Returns the stored profile for the authenticated principal
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal := principalFromContext(c)
	if principal == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.service.Me(c.Request.Context(), principal.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user, nil)
}

// ForgotPassword godoc
// @Summary Forgot password
// @Description Initiates the reset flow; the response never reveals whether the account exists
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ForgotPasswordRequest true "Forgot password payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "email required"))
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "if the email exists, a reset link will be sent"}, nil)
}

// ResetPassword godoc
// @Summary Reset password
// @Description Completes the reset flow with the emailed token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ResetPasswordRequest true "Reset password payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"message": "password updated"}, nil)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.secureCookies, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", "", h.secureCookies, true)
}
