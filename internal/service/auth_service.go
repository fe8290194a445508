package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"passgate/internal/models"
	"passgate/internal/password"
	"passgate/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// TokenConfig configures bearer tokens for the JSON API.
type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// AuthService handles user auth logic
type AuthService struct {
	authRepo repository.Authorization
	hasher   password.Hasher
	tokens   TokenConfig
	now      func() time.Time
}

func NewAuthService(repo repository.Authorization, hasher password.Hasher, tokens TokenConfig) *AuthService {
	return &AuthService{authRepo: repo, hasher: hasher, tokens: tokens, now: time.Now}
}

// NormalizeUsername is the form usernames are stored and looked up in.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

func validateRegistration(username, pw string) error {
	if username == "" || strings.TrimSpace(pw) == "" {
		return invalid(MsgMissingCredentials)
	}
	if utf8.RuneCountInString(username) < minUsernameLen {
		return invalid(MsgUsernameTooShort)
	}
	if utf8.RuneCountInString(pw) < minPasswordLen {
		return invalid(MsgPasswordTooShort)
	}
	return nil
}

// Register validates input, hashes the password and persists a new account.
func (s *AuthService) Register(ctx context.Context, username, pw string) (models.User, error) {
	username = NormalizeUsername(username)
	if err := validateRegistration(username, pw); err != nil {
		return models.User{}, err
	}

	existing, err := s.authRepo.GetByUsername(ctx, username)
	if err != nil {
		return models.User{}, &StorageError{Op: "lookup user", Err: err}
	}
	if existing != nil {
		return models.User{}, ErrDuplicateUsername
	}

	hash, err := s.hasher.Hash(pw)
	if err != nil {
		return models.User{}, &StorageError{Op: "hash password", Err: err}
	}

	u, err := s.authRepo.Create(ctx, username, hash)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, &StorageError{Op: "create user", Err: err}
	}
	return u, nil
}

// Verify checks credentials. Unknown usernames and wrong passwords both yield
// ErrInvalidCredentials.
func (s *AuthService) Verify(ctx context.Context, username, pw string) (models.User, error) {
	username = NormalizeUsername(username)
	if username == "" || strings.TrimSpace(pw) == "" {
		return models.User{}, invalid(MsgMissingCredentials)
	}

	u, err := s.authRepo.GetByUsername(ctx, username)
	if err != nil {
		return models.User{}, &StorageError{Op: "lookup user", Err: err}
	}
	if u == nil {
		s.hasher.CheckAbsent(pw)
		return models.User{}, ErrInvalidCredentials
	}
	if !password.Check(u.PasswordHash, pw) {
		return models.User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, username, pw string) (string, error) {
	u, err := s.Verify(ctx, username, pw)
	if err != nil {
		return "", err
	}
	return s.issueToken(u)
}

// ParseToken parses JWT and returns the identity it was issued for
func (s *AuthService) ParseToken(accessToken string) (Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.tokens.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(u models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokens.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: u.ID,
	})
	signed, err := token.SignedString([]byte(s.tokens.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
