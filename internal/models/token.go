package models

import "github.com/golang-jwt/jwt/v5"

// TokenRole distinguishes the two actor kinds. Verification never trusts
// the role claim to pick a secret; each surface verifies with the secret
// configured for its own actor kind.
type TokenRole string

const (
	RoleUser    TokenRole = "user"
	RoleStudent TokenRole = "student"
)

// UserClaims is the JWT payload for staff access tokens.
type UserClaims struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   TokenRole `json:"role"`
	jwt.RegisteredClaims
}

// StudentClaims is the JWT payload for student access tokens. The roll
// number rides along for display and debugging; the password never does.
type StudentClaims struct {
	StudentID  string    `json:"student_id"`
	RollNumber string    `json:"roll_number,omitempty"`
	BatchID    string    `json:"batch_id,omitempty"`
	Role       TokenRole `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims is the minimal payload shared by both refresh token kinds:
// only the subject identifier and role are embedded.
type RefreshClaims struct {
	Role TokenRole `json:"role"`
	jwt.RegisteredClaims
}
