package account

import "errors"

var (
	ErrAccountNotFound      = errors.New("user not found")
	ErrAccountAlreadyExists = errors.New("username or email already in use")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrInvalidCredentials   = errors.New("invalid username or password")
)
