package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role identifies which kind of principal is acting.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleLecturer Role = "LECTURER"
)

// Principal is the unified identity behind both admin users and lecturers.
// Admins live in the users table, lecturers in the lecturers table; the
// repository resolves either into this shape so authentication and
// authorization run through a single path.
type Principal struct {
	ID           string  `db:"id" json:"id"`
	Username     string  `db:"username" json:"username"`
	FullName     string  `db:"full_name" json:"full_name"`
	PasswordHash string  `db:"password_hash" json:"-"`
	Role         Role    `db:"role" json:"role"`
	ImagePath    *string `db:"image_path" json:"image_path,omitempty"`
}

// LoginRequest holds credentials for authenticating a principal.
// Type is optional; when present it narrows the lookup to one principal table.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Type     string `json:"type" validate:"omitempty,oneof=admin lecturer"`
	IP       string `json:"-"`
}

// LoginResponse returns the issued token and principal info.
type LoginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
	User        PrincipalInfo `json:"user"`
	Role        string        `json:"role"`
}

// PrincipalInfo describes the authenticated principal in responses.
type PrincipalInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// Token records an issued access token so logout can revoke it and a fresh
// login can displace the previous session.
type Token struct {
	ID          string     `db:"id" json:"id"`
	PrincipalID string     `db:"principal_id" json:"principal_id"`
	Role        Role       `db:"role" json:"role"`
	Revoked     bool       `db:"revoked" json:"revoked"`
	RevokedAt   *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	IPAddress   string     `db:"ip_address" json:"ip_address"`
}

// UpdateProfileRequest carries the self-service profile fields. The avatar
// file travels alongside as multipart and is handled by the service.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=150"`
	Username string `json:"username" validate:"required,min=3,max=50"`
}

// ChangePasswordRequest payload for the profile password endpoint.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	PrincipalID string `json:"principal_id"`
	Role        Role   `json:"role"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	jwt.RegisteredClaims
}
