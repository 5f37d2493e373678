package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eventhub/internal/domain"
)

const minPasswordLen = 6

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	tokenIssuer    domain.TokenIssuer
	tokenExpiry    time.Duration
	contextTimeout time.Duration
}

// NewAuthService creates an AuthService with the given repository and auth ports.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry, timeout time.Duration) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		hasher:         hasher,
		tokenIssuer:    tokenIssuer,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return "", nil, invalid("name is required")
	}
	if !emailRegexp.MatchString(email) {
		return "", nil, invalid("invalid email format")
	}
	if len(password) < minPasswordLen {
		return "", nil, invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", nil, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	user := domain.NewUser(name, email, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", nil, err
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokenIssuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
