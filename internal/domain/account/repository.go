package account

import "context"

// Repository is the credential store. Uniqueness of username and email is
// enforced by the store itself; Create returns ErrAccountAlreadyExists when
// an insert violates it.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByUsernameOrEmail(ctx context.Context, identifier string) (*Account, error)
	GetActiveByID(ctx context.Context, id int64) (*Account, error)
}
