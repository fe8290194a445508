package service

import (
	"errors"
	"fmt"
)

// Messages shown to the user for validation failures.
const (
	MsgMissingCredentials = "Please enter both username and password"
	MsgUsernameTooShort   = "Username must be at least 3 characters long"
	MsgPasswordTooShort   = "Password must be at least 6 characters long"
)

// Domain errors for auth flows.
var (
	ErrDuplicateUsername  = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// ValidationError is malformed, user-correctable input. Message is safe to display.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "validation: " + e.Message }

// StorageError is an unexpected persistence or hashing failure. Its cause is
// for logs only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func invalid(msg string) error { return &ValidationError{Message: msg} }
