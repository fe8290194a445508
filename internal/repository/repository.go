package repository

import (
	"context"
	"database/sql"
	"errors"

	"passgate/internal/models"
)

// ErrDuplicateUsername is returned by Create when the UNIQUE constraint on
// users.username rejects the insert.
var ErrDuplicateUsername = errors.New("username already exists")

type Authorization interface {
	Create(ctx context.Context, username, hash string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type Repository struct {
	Auth Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Auth: NewUserRepository(db),
	}
}
