package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/embassy-gov/portal-api/internal/models"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/mailer"
)

const resetTokenTTL = 30 * time.Minute

type authUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetRefreshToken(ctx context.Context, id, token string, now time.Time) error
	ClearRefreshTokenIfMatch(ctx context.Context, id, token string) error
	ClearAllRefreshTokens(ctx context.Context) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

// LoginResult carries the issued token pair alongside the public user shape.
type LoginResult struct {
	User             models.UserInfo
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService provides the account session lifecycle.
type AuthService struct {
	repo       authUserRepository
	tokens     *TokenService
	mail       mailer.Mailer
	validator  *validator.Validate
	logger     *zap.Logger
	adminEmail string
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, tokens *TokenService, mail mailer.Mailer, validate *validator.Validate, logger *zap.Logger, adminEmail string) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if mail == nil {
		mail = mailer.Noop{}
	}
	return &AuthService{
		repo:       repo,
		tokens:     tokens,
		mail:       mail,
		validator:  validate,
		logger:     logger,
		adminEmail: strings.ToLower(adminEmail),
	}
}

// NewValidator returns a validator with the portal's custom rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("password", validPassword)
	return v
}

// validPassword requires at least 8 characters with upper, lower, digit and
// special classes all present.
func validPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if len(value) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// Register creates a new account. The role is derived once here: the
// configured admin email gets the admin role, everyone else is a user.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserInfo, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	role := models.RoleUser
	if s.adminEmail != "" && email == s.adminEmail {
		role = models.RoleAdmin
	}

	user := &models.User{
		GivenName:    strings.TrimSpace(req.GivenName),
		FamilyName:   strings.TrimSpace(req.FamilyName),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	info := user.Info()
	return &info, nil
}

// Login authenticates a user and issues the token pair. Unknown email and
// wrong password are deliberately indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	accessToken, accessExpiry, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, refreshExpiry, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	now := time.Now().UTC()

	// overwriting the stored token invalidates any previous session
	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	return &LoginResult{
		User:             user.Info(),
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The token
// must verify and still equal the value persisted on the user record; that
// match is the revocation mechanism. The refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "session no longer valid")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrUnauthorized, "session no longer valid")
	}

	if !user.Active {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	accessToken, expiresAt, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}
	return accessToken, expiresAt, nil
}

// Logout clears the persisted session for the refresh token's owner. The
// decode is deliberately lenient (expired tokens accepted, errors swallowed)
// because the caller always clears its cookies regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.tokens.DecodeExpiredRefresh(refreshToken)
	if err != nil {
		s.logger.Debug("logout with undecodable refresh token", zap.Error(err))
		return
	}

	if err := s.repo.ClearRefreshTokenIfMatch(ctx, claims.UserID, refreshToken); err != nil {
		s.logger.Warn("failed to clear refresh token on logout", zap.Error(err))
	}
}

// LogoutAll drops every account's persisted refresh token. Other users keep
// working until their access token expires; their next refresh fails.
func (s *AuthService) LogoutAll(ctx context.Context) error {
	if err := s.repo.ClearAllRefreshTokens(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear sessions")
	}
	return nil
}

// Me loads the stored profile for an authenticated principal. A user deleted
// after token issuance yields NotFound.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	info := user.Info()
	return &info, nil
}

// ForgotPassword initiates the reset flow. The response is identical whether
// or not the account exists; a failed mail send never changes the outcome.
func (s *AuthService) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forgot password payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("forgot password lookup failed", zap.Error(err))
		}
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		s.logger.Warn("failed to generate reset token", zap.Error(err))
		return nil
	}

	if err := s.repo.SetResetToken(ctx, user.ID, token, time.Now().UTC().Add(resetTokenTTL)); err != nil {
		s.logger.Warn("failed to persist reset token", zap.Error(err))
		return nil
	}

	if err := s.mail.SendPasswordReset(user.Email, token); err != nil {
		s.logger.Warn("failed to send reset mail", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword completes the reset flow, replacing the password and ending
// the active session.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	user, err := s.repo.FindByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired reset token")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.ResetTokenExpiresAt == nil || time.Now().UTC().After(*user.ResetTokenExpiresAt) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}
	return nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
