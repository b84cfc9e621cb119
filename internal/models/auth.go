package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the actor roles the API recognises.
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleSupervisor UserRole = "SUPERVISOR"
	RoleAdmin      UserRole = "ADMIN"
)

// JWTClaims represents the JWT payload for access tokens. Tokens are issued
// by the authentication service; this API only validates them.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
