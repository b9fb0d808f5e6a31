package account

import (
	"time"

	domainAccount "user-registration/internal/domain/account"
)

type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50,username"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6,bcrypt_max_bytes,password_complexity"`
	FullName string  `json:"fullName" validate:"required,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,mobile_kr"`
}

// LoginRequest accepts either a username or an email in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountResponse is the sanitized projection of an account.
type AccountResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName string  `json:"fullName"`
	Phone    *string `json:"phone"`
}

type ProfileResponse struct {
	AccountResponse
	CreatedAt time.Time `json:"createdAt"`
}

func ToAccountResponse(a *domainAccount.Account) *AccountResponse {
	if a == nil {
		return nil
	}
	return &AccountResponse{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		FullName: a.FullName,
		Phone:    a.Phone,
	}
}

func ToProfileResponse(a *domainAccount.Account) *ProfileResponse {
	if a == nil {
		return nil
	}
	return &ProfileResponse{
		AccountResponse: *ToAccountResponse(a),
		CreatedAt:       a.CreatedAt,
	}
}
