package service

import (
	"context"

	"passgate/internal/models"
	"passgate/internal/password"
	"passgate/internal/repository"
)

// Credentials is the credential store consumed by the web handlers.
type Credentials interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Verify(ctx context.Context, username, password string) (models.User, error)
}

// Tokens issues and checks bearer tokens for the JSON API.
type Tokens interface {
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (Identity, error)
}

type Authorization interface {
	Credentials
	Tokens
}

// Identity is the authenticated caller carried by a token.
type Identity struct {
	UserID   int
	Username string
}

type Service struct {
	Authorization
}

func NewService(repos *repository.Repository, hasher password.Hasher, tokens TokenConfig) *Service {
	return &Service{
		Authorization: NewAuthService(repos.Auth, hasher, tokens),
	}
}
