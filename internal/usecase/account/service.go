package account

import (
	"context"
	"errors"
	"sync"
	"time"

	domainAccount "user-registration/internal/domain/account"
	"user-registration/internal/logger"
	appErrors "user-registration/pkg/errors"

	"go.uber.org/zap"
)

// PasswordHasher runs the expensive hash and verify operations, normally on
// a worker pool.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, token string) (bool, error)
}

// Service implements account registration, login and profile lookup.
type Service struct {
	repo    domainAccount.Repository
	hasher  PasswordHasher
	metrics *Metrics

	decoyMu   sync.Mutex
	decoyHash string
}

func NewService(repo domainAccount.Repository, hasher PasswordHasher, metrics *Metrics) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		metrics: metrics,
	}
}

// Register validates req, rejects a username or email that is already
// taken, hashes the password and stores the account. The existence check
// only gives an early answer; the store's unique constraints decide races,
// and a violation there is reported exactly like a pre-check hit.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AccountResponse, error) {
	valid, err := ValidateRegister(*req)
	if err != nil {
		s.metrics.registration(OutcomeInvalid)
		return nil, err
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, valid.Username, valid.Email)
	if err != nil {
		s.metrics.registration(OutcomeError)
		return nil, appErrors.Internal("failed to check existing account", err)
	}
	if exists {
		logger.Warn("Registration attempt with existing username or email",
			zap.String("username", valid.Username),
			zap.String("email", valid.Email),
			zap.String("event", "registration_failed_duplicate"),
		)
		s.metrics.registration(OutcomeConflict)
		return nil, appErrors.ErrAccountAlreadyExists
	}

	start := time.Now()
	hashed, err := s.hasher.Hash(ctx, valid.Password)
	s.metrics.observeHashing("hash", start)
	if err != nil {
		s.metrics.registration(OutcomeError)
		return nil, appErrors.Internal("failed to hash password", err)
	}

	acc := &domainAccount.Account{
		Username:     valid.Username,
		Email:        valid.Email,
		PasswordHash: hashed,
		FullName:     valid.FullName,
		Phone:        valid.Phone,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, domainAccount.ErrAccountAlreadyExists) {
			logger.Warn("Registration lost uniqueness race",
				zap.String("username", valid.Username),
				zap.String("email", valid.Email),
				zap.String("event", "registration_failed_duplicate_on_insert"),
			)
			s.metrics.registration(OutcomeConflictOnInsert)
			return nil, appErrors.ErrAccountAlreadyExists
		}
		s.metrics.registration(OutcomeError)
		return nil, appErrors.Internal("failed to create account", err)
	}

	logger.Info("Account registered successfully",
		zap.Int64("account_id", acc.ID),
		zap.String("username", acc.Username),
		zap.String("email", acc.Email),
		zap.String("event", "account_registered"),
	)
	s.metrics.registration(OutcomeSuccess)

	return ToAccountResponse(acc), nil
}

// Login authenticates by username or email. Unknown identities and wrong
// passwords return the same ErrInvalidCredentials. An inactive account
// returns ErrAccountInactive, which does reveal that the account exists.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AccountResponse, error) {
	valid, err := ValidateLogin(*req)
	if err != nil {
		s.metrics.login(OutcomeInvalid)
		return nil, err
	}

	acc, err := s.repo.GetByUsernameOrEmail(ctx, valid.Username)
	if err != nil {
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			logger.Warn("Login attempt with unknown identity",
				zap.String("identifier", valid.Username),
				zap.String("event", "login_failed_unknown_identity"),
			)
			s.spendVerification(ctx, valid.Password)
			s.metrics.login(OutcomeInvalidCredentials)
			return nil, appErrors.ErrInvalidCredentials
		}
		s.metrics.login(OutcomeError)
		return nil, appErrors.Internal("failed to look up account", err)
	}

	if !acc.IsActive {
		logger.Warn("Login attempt for inactive account",
			zap.Int64("account_id", acc.ID),
			zap.String("event", "login_failed_inactive_account"),
		)
		s.metrics.login(OutcomeInactive)
		return nil, appErrors.ErrAccountInactive
	}

	start := time.Now()
	ok, err := s.hasher.Verify(ctx, valid.Password, acc.PasswordHash)
	s.metrics.observeHashing("verify", start)
	if err != nil {
		s.metrics.login(OutcomeError)
		return nil, appErrors.Internal("failed to verify password", err)
	}
	if !ok {
		logger.Warn("Login attempt with invalid password",
			zap.Int64("account_id", acc.ID),
			zap.String("event", "login_failed_invalid_password"),
		)
		s.metrics.login(OutcomeInvalidCredentials)
		return nil, appErrors.ErrInvalidCredentials
	}

	logger.Info("Account logged in successfully",
		zap.Int64("account_id", acc.ID),
		zap.String("username", acc.Username),
		zap.String("event", "login_success"),
	)
	s.metrics.login(OutcomeSuccess)

	return ToAccountResponse(acc), nil
}

// spendVerification runs one verification against a throwaway hash so an
// unknown identity costs about as much time as a wrong password.
func (s *Service) spendVerification(ctx context.Context, password string) {
	decoy := s.decoy()
	if decoy == "" {
		return
	}

	start := time.Now()
	_, _ = s.hasher.Verify(ctx, password, decoy)
	s.metrics.observeHashing("verify", start)
}

// decoy returns the throwaway hash, computing it on first use. A failed
// attempt is retried by the next caller.
func (s *Service) decoy() string {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()

	if s.decoyHash == "" {
		h, err := s.hasher.Hash(context.Background(), "decoy-password-never-matches")
		if err != nil {
			logger.Error("Failed to prepare decoy hash", zap.Error(err))
			return ""
		}
		s.decoyHash = h
	}
	return s.decoyHash
}

// GetProfile returns the sanitized profile of an active account.
func (s *Service) GetProfile(ctx context.Context, id int64) (*ProfileResponse, error) {
	if id <= 0 {
		s.metrics.profile(OutcomeNotFound)
		return nil, appErrors.ErrAccountNotFound
	}

	acc, err := s.repo.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			s.metrics.profile(OutcomeNotFound)
			return nil, appErrors.ErrAccountNotFound
		}
		s.metrics.profile(OutcomeError)
		return nil, appErrors.Internal("failed to get account", err)
	}

	s.metrics.profile(OutcomeSuccess)
	return ToProfileResponse(acc), nil
}
