package account

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	domainAccount "user-registration/internal/domain/account"
	appErrors "user-registration/pkg/errors"
	"user-registration/pkg/hasher"
)

// memoryRepo enforces username and email uniqueness atomically, like the
// unique constraints of the real table.
type memoryRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts []*domainAccount.Account

	skipPrecheck bool
	existsErr    error
	createErr    error
	getErr       error

	existsCalls int
	createCalls int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{}
}

func (r *memoryRepo) Create(_ context.Context, acc *domainAccount.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++

	if r.createErr != nil {
		return r.createErr
	}
	for _, a := range r.accounts {
		if a.Username == acc.Username || a.Email == acc.Email {
			return domainAccount.ErrAccountAlreadyExists
		}
	}

	r.nextID++
	acc.ID = r.nextID
	acc.CreatedAt = time.Now()
	acc.UpdatedAt = acc.CreatedAt
	stored := *acc
	r.accounts = append(r.accounts, &stored)
	return nil
}

func (r *memoryRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.existsCalls++

	if r.existsErr != nil {
		return false, r.existsErr
	}
	if r.skipPrecheck {
		return false, nil
	}
	for _, a := range r.accounts {
		if a.Username == username || a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (*domainAccount.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, a := range r.accounts {
		if a.Username == identifier || a.Email == strings.ToLower(identifier) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domainAccount.ErrAccountNotFound
}

func (r *memoryRepo) GetActiveByID(_ context.Context, id int64) (*domainAccount.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, a := range r.accounts {
		if a.ID == id && a.IsActive {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domainAccount.ErrAccountNotFound
}

func (r *memoryRepo) deactivate(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			a.IsActive = false
		}
	}
}

func (r *memoryRepo) stored(username string) *domainAccount.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return a
		}
	}
	return nil
}

type failingHasher struct{ err error }

func (f failingHasher) Hash(context.Context, string) (string, error) { return "", f.err }
func (f failingHasher) Verify(context.Context, string, string) (bool, error) {
	return false, f.err
}

func newTestService(t *testing.T, repo domainAccount.Repository) (*Service, *Metrics) {
	t.Helper()
	pool := hasher.NewPool(bcrypt.MinCost, 2)
	t.Cleanup(pool.Stop)
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewService(repo, pool, metrics), metrics
}

func aliceRequest() *RegisterRequest {
	return &RegisterRequest{
		Username: "alice1",
		Email:    "a@x.com",
		Password: "Passw0rd",
		FullName: "Alice A",
	}
}

func TestRegister_EndToEnd(t *testing.T) {
	repo := newMemoryRepo()
	s, metrics := newTestService(t, repo)
	ctx := context.Background()

	resp, err := s.Register(ctx, aliceRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "alice1", resp.Username)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Nil(t, resp.Phone)

	stored := repo.stored("alice1")
	require.NotNil(t, stored)
	assert.NotEqual(t, "Passw0rd", stored.PasswordHash)
	assert.True(t, hasher.Verify("Passw0rd", stored.PasswordHash))
	assert.True(t, stored.IsActive)

	// same username, different email
	dup := aliceRequest()
	dup.Email = "other@x.com"
	_, err = s.Register(ctx, dup)
	assert.ErrorIs(t, err, appErrors.ErrAccountAlreadyExists)

	user, err := s.Login(ctx, &LoginRequest{Username: "alice1", Password: "Passw0rd"})
	require.NoError(t, err)
	assert.Equal(t, resp, user)

	_, wrongPw := s.Login(ctx, &LoginRequest{Username: "alice1", Password: "wrong"})
	_, unknown := s.Login(ctx, &LoginRequest{Username: "nonexistent_user", Password: "wrong"})
	require.Error(t, wrongPw)
	require.Error(t, unknown)
	assert.ErrorIs(t, wrongPw, appErrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), unknown.Error())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.registrations.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.registrations.WithLabelValues(OutcomeConflict)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.logins.WithLabelValues(OutcomeInvalidCredentials)))
}

func TestRegister_Invalid_NoStoreAccess(t *testing.T) {
	repo := newMemoryRepo()
	s, _ := newTestService(t, repo)

	_, err := s.Register(context.Background(), &RegisterRequest{Username: "ab", Email: "bad", Password: "abcdef", FullName: "A"})

	var verr *appErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Zero(t, repo.existsCalls)
	assert.Zero(t, repo.createCalls)
}

func TestRegister_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	repo := newMemoryRepo()
	s, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := s.Register(ctx, aliceRequest())
	require.NoError(t, err)

	dup := aliceRequest()
	dup.Username = "alice2"
	dup.Email = "A@X.COM"
	_, err = s.Register(ctx, dup)
	assert.ErrorIs(t, err, appErrors.ErrAccountAlreadyExists)
}

func TestRegister_ConflictOnInsert(t *testing.T) {
	repo := newMemoryRepo()
	s, metrics := newTestService(t, repo)
	ctx := context.Background()

	_, err := s.Register(ctx, aliceRequest())
	require.NoError(t, err)

	// the pre-check misses the row, as when another request commits between
	// the check and the insert
	repo.skipPrecheck = true
	_, err = s.Register(ctx, aliceRequest())
	assert.ErrorIs(t, err, appErrors.ErrAccountAlreadyExists)
	assert.Equal(t, "username or email already in use", err.Error())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.registrations.WithLabelValues(OutcomeConflictOnInsert)))
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	for round := 0; round < 10; round++ {
		repo := newMemoryRepo()
		repo.skipPrecheck = round%2 == 0
		s, _ := newTestService(t, repo)

		results := make([]error, 2)
		var g errgroup.Group
		for i := range results {
			i := i
			g.Go(func() error {
				req := aliceRequest()
				req.Email = []string{"one@x.com", "two@x.com"}[i]
				_, results[i] = s.Register(context.Background(), req)
				return nil
			})
		}
		require.NoError(t, g.Wait())

		var successes, conflicts int
		for _, err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, appErrors.ErrAccountAlreadyExists):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, conflicts)
	}
}

func TestRegister_ManyConcurrentKeepsKeysUnique(t *testing.T) {
	repo := newMemoryRepo()
	repo.skipPrecheck = true
	s, _ := newTestService(t, repo)

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			req := aliceRequest()
			req.Username = []string{"alice1", "bob_2", "carol3", "dave4"}[i%4]
			req.Email = []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}[(i/4)%4]
			_, _ = s.Register(context.Background(), req)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	usernames := map[string]int{}
	emails := map[string]int{}
	for _, a := range repo.accounts {
		usernames[a.Username]++
		emails[a.Email]++
	}
	for k, n := range usernames {
		assert.Equal(t, 1, n, "username %s", k)
	}
	for k, n := range emails {
		assert.Equal(t, 1, n, "email %s", k)
	}
}

func TestRegister_StoreFailures(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("precheck", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.existsErr = boom
		s, _ := newTestService(t, repo)

		_, err := s.Register(context.Background(), aliceRequest())
		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.CodeInternal, appErr.Code)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("insert", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.createErr = boom
		s, _ := newTestService(t, repo)

		_, err := s.Register(context.Background(), aliceRequest())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, appErrors.ErrAccountAlreadyExists)
	})

	t.Run("hasher", func(t *testing.T) {
		repo := newMemoryRepo()
		s := NewService(repo, failingHasher{err: hasher.ErrPoolStopped}, nil)

		_, err := s.Register(context.Background(), aliceRequest())
		assert.ErrorIs(t, err, hasher.ErrPoolStopped)
		assert.Zero(t, repo.createCalls)
	})
}

func TestLogin_ByEmail(t *testing.T) {
	repo := newMemoryRepo()
	s, _ := newTestService(t, repo)
	ctx := context.Background()

	_, err := s.Register(ctx, aliceRequest())
	require.NoError(t, err)

	resp, err := s.Login(ctx, &LoginRequest{Username: "A@x.com", Password: "Passw0rd"})
	require.NoError(t, err)
	assert.Equal(t, "alice1", resp.Username)
}

func TestLogin_Inactive(t *testing.T) {
	repo := newMemoryRepo()
	s, metrics := newTestService(t, repo)
	ctx := context.Background()

	_, err := s.Register(ctx, aliceRequest())
	require.NoError(t, err)
	repo.deactivate("alice1")

	_, err = s.Login(ctx, &LoginRequest{Username: "alice1", Password: "Passw0rd"})
	assert.ErrorIs(t, err, appErrors.ErrAccountInactive)
	assert.NotEqual(t, appErrors.ErrInvalidCredentials.Error(), err.Error())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.logins.WithLabelValues(OutcomeInactive)))
}

func TestLogin_Invalid(t *testing.T) {
	s, _ := newTestService(t, newMemoryRepo())

	_, err := s.Login(context.Background(), &LoginRequest{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
}

func TestLogin_StoreFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.getErr = errors.New("timeout")
	s, _ := newTestService(t, repo)

	_, err := s.Login(context.Background(), &LoginRequest{Username: "alice1", Password: "x"})
	var appErr *appErrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.CodeInternal, appErr.Code)
}

func TestGetProfile(t *testing.T) {
	repo := newMemoryRepo()
	s, _ := newTestService(t, repo)
	ctx := context.Background()

	req := aliceRequest()
	req.Phone = strPtr("010-1234-5678")
	reg, err := s.Register(ctx, req)
	require.NoError(t, err)

	profile, err := s.GetProfile(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, *reg, profile.AccountResponse)
	assert.False(t, profile.CreatedAt.IsZero())

	_, err = s.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, appErrors.ErrAccountNotFound)

	_, err = s.GetProfile(ctx, 0)
	assert.ErrorIs(t, err, appErrors.ErrAccountNotFound)

	repo.deactivate("alice1")
	_, err = s.GetProfile(ctx, reg.ID)
	assert.ErrorIs(t, err, appErrors.ErrAccountNotFound)
}

func TestGetProfile_StoreFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.getErr = errors.New("timeout")
	s, _ := newTestService(t, repo)

	_, err := s.GetProfile(context.Background(), 1)
	assert.NotErrorIs(t, err, appErrors.ErrAccountNotFound)
	assert.Error(t, err)
}

func TestRegister_PasswordOverBcryptLimitIsInvalid(t *testing.T) {
	repo := newMemoryRepo()
	s, metrics := newTestService(t, repo)

	req := aliceRequest()
	req.Password = "Passw0rd" + strings.Repeat("x", 65)
	_, err := s.Register(context.Background(), req)

	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
	var appErr *appErrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Zero(t, repo.createCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.registrations.WithLabelValues(OutcomeInvalid)))

	req.Password = "Passw0rd" + strings.Repeat("x", 64)
	_, err = s.Register(context.Background(), req)
	assert.NoError(t, err)
}

func TestRegister_HashFailureMessage(t *testing.T) {
	pool := hasher.NewPool(bcrypt.MaxCost+1, 1)
	t.Cleanup(pool.Stop)
	s := NewService(newMemoryRepo(), pool, nil)

	_, err := s.Register(context.Background(), aliceRequest())
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to hash password"))
	assert.ErrorAs(t, err, new(bcrypt.InvalidCostError))
}

// flakyHasher fails its first Hash call and counts Verify calls.
type flakyHasher struct {
	PasswordHasher
	mu        sync.Mutex
	hashCalls int
	verifies  int
}

func (h *flakyHasher) Hash(ctx context.Context, password string) (string, error) {
	h.mu.Lock()
	h.hashCalls++
	first := h.hashCalls == 1
	h.mu.Unlock()
	if first {
		return "", errors.New("transient")
	}
	return h.PasswordHasher.Hash(ctx, password)
}

func (h *flakyHasher) Verify(ctx context.Context, password, token string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(ctx, password, token)
}

func TestLogin_UnknownIdentityRetriesDecoy(t *testing.T) {
	pool := hasher.NewPool(bcrypt.MinCost, 1)
	t.Cleanup(pool.Stop)
	h := &flakyHasher{PasswordHasher: pool}
	s := NewService(newMemoryRepo(), h, nil)
	ctx := context.Background()

	_, err := s.Login(ctx, &LoginRequest{Username: "ghost", Password: "Passw0rd"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Zero(t, h.verifies)

	_, err = s.Login(ctx, &LoginRequest{Username: "ghost", Password: "Passw0rd"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, 1, h.verifies)
	assert.Equal(t, 2, h.hashCalls)

	_, err = s.Login(ctx, &LoginRequest{Username: "ghost", Password: "Passw0rd"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Equal(t, 2, h.verifies)
	assert.Equal(t, 2, h.hashCalls)
}
