// Package auth provides user accounts, JWT sessions, and role-based access
// for the RTCC API.
package auth

import (
	"fmt"
	"time"

	"github.com/CivicMesh/rtcc/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// User represents an RTCC operator account.
type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // Never serialized
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	LastLogin    time.Time   `json:"last_login,omitempty"`
	Disabled     bool        `json:"disabled"`
}

// HashPassword creates a bcrypt hash of the given password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePassword checks that a password meets minimum requirements.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
