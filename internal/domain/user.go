package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is an account that can own events and hold reservations. Emails are stored
// lower-cased and are unique.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser returns a User without credentials. The repository assigns ID on create.
func NewUser(name, email string, createdAt, updatedAt time.Time) *User {
	return &User{
		Name:      name,
		Email:     email,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// PasswordHasher salts, hashes and checks passwords. Compare returns
// ErrInvalidCredentials on mismatch.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer signs bearer tokens for a logged-in user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier checks a bearer token and returns the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository stores accounts. Create fails with ErrDuplicateEmail and lookups
// with ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// AuthService registers users and exchanges credentials for bearer tokens.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (token string, user *User, err error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
