package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"eventhub/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used by the API.
const DefaultBcryptCost = 10

const saltBytes = 32

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PasswordHasher that bcrypts sha256(salt+password).
// Pre-hashing keeps the bcrypt input under its 72 byte limit for long passwords.
func NewBcryptHasher(cost int) domain.PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) GenerateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func derive(salt, password string) []byte {
	sum := sha256.Sum256([]byte(salt + password))
	return []byte(hex.EncodeToString(sum[:]))
}

func (h *bcryptHasher) Hash(salt, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(derive(salt, password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, salt, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), derive(salt, password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return err
}
