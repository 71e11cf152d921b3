package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the authenticated identity as the rest of the system sees it.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
}

type UserInfo struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	CompanyID *string   `db:"company_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TokenGenerator creates and verifies signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(user *User) (string, error)
	GenerateRefreshToken(user *User) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ServiceAPI performs authentication-related business logic.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims is the signed token payload. CompanyID and Role ride along so the
// tenant resolver can read them from the payload segment without a database
// round trip; verification of the signature stays here.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	CompanyID string `json:"company_id,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)
