package models

// User is a registered account. It is passed around by value and never
// mutated after it has been persisted.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // don’t expose hash
}

