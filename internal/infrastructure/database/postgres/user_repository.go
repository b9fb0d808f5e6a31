package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"user-registration/internal/domain/account"
	"user-registration/internal/infrastructure/database/postgres/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository implements account.Repository on the users table.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) account.Repository {
	return &UserRepository{db: db}
}

// Create inserts acc and fills in the id and timestamps assigned on insert.
// A unique constraint violation on username or email becomes
// account.ErrAccountAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, acc *account.Account) error {
	dbModel := toUserModel(acc)

	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if isUniqueViolation(err) {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	acc.ID = dbModel.ID
	acc.CreatedAt = dbModel.CreatedAt
	acc.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// GetByUsernameOrEmail finds the account whose username equals identifier or
// whose email equals its lower-cased form. Usernames cannot contain '@', so
// at most one row can match.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, identifier string) (*account.Account, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func (r *UserRepository) GetActiveByID(ctx context.Context, id int64) (*account.Account, error) {
	var dbModel models.UserModel
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toAccountEntity(&dbModel), nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Helper functions to convert between domain entities and database models

func toUserModel(a *account.Account) *models.UserModel {
	return &models.UserModel{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		FullName:     a.FullName,
		Phone:        a.Phone,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func toAccountEntity(m *models.UserModel) *account.Account {
	return &account.Account{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		FullName:     m.FullName,
		Phone:        m.Phone,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
