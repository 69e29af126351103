package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/embassy-gov/portal-api/internal/models"
	"github.com/embassy-gov/portal-api/pkg/config"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
)

// TokenService signs and verifies the access/refresh token pair. The two
// token kinds use separate secrets so a leaked refresh secret cannot mint
// access tokens and vice versa.
type TokenService struct {
	cfg config.JWTConfig
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// IssueAccessToken mints a short-lived token carrying identity and role.
func (s *TokenService) IssueAccessToken(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessExpiry)

	claims := models.AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.AccessSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken mints a long-lived token carrying only the user identity.
func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.RefreshExpiry)

	claims := models.RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.RefreshSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess parses and validates an access token. All failure modes
// collapse to the same unauthorized error.
func (s *TokenService) VerifyAccess(raw string) (*models.AccessClaims, error) {
	var claims models.AccessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, s.keyFunc(s.cfg.AccessSecret))
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return &claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (s *TokenService) VerifyRefresh(raw string) (*models.RefreshClaims, error) {
	var claims models.RefreshClaims
	token, err := jwt.ParseWithClaims(raw, &claims, s.keyFunc(s.cfg.RefreshSecret))
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return &claims, nil
}

// DecodeExpiredRefresh parses a refresh token while skipping expiry checks.
// Used on logout so an expired session can still be cleared server-side.
// The signature is still verified.
func (s *TokenService) DecodeExpiredRefresh(raw string) (*models.RefreshClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims models.RefreshClaims
	if _, err := parser.ParseWithClaims(raw, &claims, s.keyFunc(s.cfg.RefreshSecret)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &claims, nil
}

// AccessTTL is the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.cfg.AccessExpiry }

// RefreshTTL is the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.cfg.RefreshExpiry }

func (s *TokenService) keyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}
