package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials. Username may be a university ID, an email
// address or a phone number.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and the account summary.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
	User         UserInfo  `json:"user"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse returns the new access token. Refresh tokens are not
// rotated.
type RefreshTokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// LogoutRequest carries whatever the client presented when logging out. Both
// fields may be empty.
type LogoutRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// UserInfo describes the authenticated account in login responses.
type UserInfo struct {
	ID             string          `json:"id"`
	Username       string          `json:"username"`
	Email          string          `json:"email"`
	Role           *string         `json:"role"`
	StudentProfile *ProfileSummary `json:"student_profile"`
}

// ProfileSummary is the condensed profile embedded in login responses.
type ProfileSummary struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	UniID      string `json:"uni_id"`
	Batch      string `json:"batch"`
	IsVerified bool   `json:"is_verified"`
	IsCR       bool   `json:"is_cr"`
}

// JWTClaims represents the JWT payload for access tokens. The registered ID
// (jti) is what logout revokes.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
