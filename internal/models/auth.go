package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the payload for creating a new account.
type RegisterRequest struct {
	GivenName  string `json:"given_name" validate:"required,min=2,max=100"`
	FamilyName string `json:"family_name" validate:"required,min=2,max=100"`
	Phone      string `json:"phone" validate:"required,e164"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,password"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest initiates the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// UserInfo describes an account in responses, stripped of credential fields.
type UserInfo struct {
	ID         string   `json:"id"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email"`
	Role       UserRole `json:"role"`
}

// Info projects a stored user into its public shape.
func (u *User) Info() UserInfo {
	return UserInfo{
		ID:         u.ID,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		Phone:      u.Phone,
		Email:      u.Email,
		Role:       u.Role,
	}
}

// AccessClaims is the JWT payload for short-lived access tokens.
type AccessClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the JWT payload for long-lived refresh tokens. It carries
// only the user identity; authorization data is never read from it.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Principal is the authenticated identity attached to a request after the
// access token verifies.
type Principal struct {
	UserID string
	Email  string
	Role   UserRole
}
