package account

import "time"

// Account is the persisted credential record. PasswordHash is opaque to
// everything except the hasher and must never leave the service layer.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string `json:"-"`
	FullName     string
	Phone        *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
