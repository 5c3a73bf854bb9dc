package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// fakeAccountRepo is an in-memory AccountRepository honoring the same
// sentinel-error contract as the Postgres implementation.
type fakeAccountRepo struct {
	accounts map[string]*domain.Account

	insertErr error
	updateErr error
	findErr   error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (f *fakeAccountRepo) FindAll(_ context.Context) ([]domain.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]domain.Account, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	account, ok := f.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (f *fakeAccountRepo) Insert(_ context.Context, account *domain.Account) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, a := range f.accounts {
		if a.Email == account.Email {
			return repository.ErrDuplicateEmail
		}
	}
	account.ID = uuid.NewString()
	copied := *account
	f.accounts[account.ID] = &copied
	return nil
}

func (f *fakeAccountRepo) UpdateFields(_ context.Context, id string, fields repository.AccountFields) (bool, error) {
	if f.updateErr != nil {
		return false, f.updateErr
	}
	account, ok := f.accounts[id]
	if !ok {
		return false, nil
	}
	if fields.Name != nil {
		account.Name = *fields.Name
	}
	if fields.Email != nil {
		account.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		account.PasswordHash = *fields.PasswordHash
	}
	return true, nil
}

func (f *fakeAccountRepo) DeleteByID(_ context.Context, id string) (bool, error) {
	if _, ok := f.accounts[id]; !ok {
		return false, nil
	}
	delete(f.accounts, id)
	return true, nil
}

// stubHasher is a deterministic PasswordHasher for tests.
type stubHasher struct {
	hashErr error
}

func (s *stubHasher) Hash(plain string) (string, error) {
	if s.hashErr != nil {
		return "", s.hashErr
	}
	return "hashed:" + plain, nil
}

func (s *stubHasher) Verify(hashed, plain string) error {
	if hashed != "hashed:"+plain {
		return errors.New("mismatch")
	}
	return nil
}

func newTestService(repo *fakeAccountRepo) *service.AccountService {
	return service.NewAccountService(service.AccountDependencies{
		AccountRepo: repo,
		Hasher:      &stubHasher{},
		Dispatcher:  events.NewInMemoryDispatcher(),
	})
}

func mustCreate(t *testing.T, svc *service.AccountService, name, email, password string) *domain.Account {
	t.Helper()
	account, err := svc.CreateAccount(context.Background(), name, email, password)
	require.NoError(t, err)
	require.NotNil(t, account)
	return account
}

func TestAccountService_CreateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh email succeeds and round-trips", func(t *testing.T) {
		repo := newFakeAccountRepo()
		svc := newTestService(repo)

		created := mustCreate(t, svc, "Ann", "ann@x.com", "secret1")
		require.NotEmpty(t, created.ID)
		assert.NotEqual(t, "secret1", created.PasswordHash)

		fetched, err := svc.GetAccount(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", fetched.Name)
		assert.Equal(t, "ann@x.com", fetched.Email)
	})

	t.Run("duplicate email fails with conflict", func(t *testing.T) {
		repo := newFakeAccountRepo()
		svc := newTestService(repo)
		mustCreate(t, svc, "Ann", "ann@x.com", "secret1")

		_, err := svc.CreateAccount(ctx, "Bob", "ann@x.com", "secret2")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
		assert.Len(t, repo.accounts, 1)
	})

	t.Run("storage-level duplicate surfaces as conflict", func(t *testing.T) {
		// simulates losing the check-then-act race: the pre-check passes
		// but the insert hits the unique index
		repo := newFakeAccountRepo()
		repo.insertErr = repository.ErrDuplicateEmail
		svc := newTestService(repo)

		_, err := svc.CreateAccount(ctx, "Ann", "ann@x.com", "secret1")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})

	t.Run("insert failure is a storage error", func(t *testing.T) {
		repo := newFakeAccountRepo()
		repo.insertErr = errors.New("connection reset")
		svc := newTestService(repo)

		_, err := svc.CreateAccount(ctx, "Ann", "ann@x.com", "secret1")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageError))
	})
}

func TestAccountService_GetAccount(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	svc := newTestService(repo)
	created := mustCreate(t, svc, "Ann", "ann@x.com", "secret1")

	t.Run("existing id", func(t *testing.T) {
		account, err := svc.GetAccount(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, account.ID)
	})

	t.Run("unknown id fails with not found", func(t *testing.T) {
		_, err := svc.GetAccount(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("malformed id fails with invalid argument", func(t *testing.T) {
		_, err := svc.GetAccount(ctx, "not-a-uuid")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArgument))
	})

	t.Run("storage failure is not reported as not found", func(t *testing.T) {
		repo.findErr = errors.New("connection reset")
		defer func() { repo.findErr = nil }()

		_, err := svc.GetAccount(ctx, created.ID)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeStorageError))
	})
}

func TestAccountService_FindAccountByEmail(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	svc := newTestService(repo)
	mustCreate(t, svc, "Ann", "ann@x.com", "secret1")

	t.Run("existing email", func(t *testing.T) {
		account, err := svc.FindAccountByEmail(ctx, "ann@x.com")
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, "Ann", account.Name)
	})

	t.Run("absent email is not an error", func(t *testing.T) {
		account, err := svc.FindAccountByEmail(ctx, "nobody@x.com")
		require.NoError(t, err)
		assert.Nil(t, account)
	})
}

func TestAccountService_UpdateAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("updates name and email only", func(t *testing.T) {
		repo := newFakeAccountRepo()
		svc := newTestService(repo)
		created := mustCreate(t, svc, "Ann", "ann@x.com", "secret1")
		originalHash := repo.accounts[created.ID].PasswordHash

		require.NoError(t, svc.UpdateAccount(ctx, created.ID, "Annie", "annie@x.com"))

		updated := repo.accounts[created.ID]
		assert.Equal(t, "Annie", updated.Name)
		assert.Equal(t, "annie@x.com", updated.Email)
		assert.Equal(t, originalHash, updated.PasswordHash)
	})

	t.Run("unknown id fails with not found and leaves store unchanged", func(t *testing.T) {
		repo := newFakeAccountRepo()
		svc := newTestService(repo)
		mustCreate(t, svc, "Ann", "ann@x.com", "secret1")

		err := svc.UpdateAccount(ctx, uuid.NewString(), "Bob", "bob@x.com")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

		accounts, listErr := svc.ListAccounts(ctx)
		require.NoError(t, listErr)
		require.Len(t, accounts, 1)
		assert.Equal(t, "Ann", accounts[0].Name)
	})

	t.Run("malformed id fails with invalid argument", func(t *testing.T) {
		svc := newTestService(newFakeAccountRepo())
		err := svc.UpdateAccount(ctx, "42", "Bob", "bob@x.com")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArgument))
	})

	t.Run("storage-level email collision surfaces as conflict", func(t *testing.T) {
		repo := newFakeAccountRepo()
		svc := newTestService(repo)
		created := mustCreate(t, svc, "Ann", "ann@x.com", "secret1")

		repo.updateErr = repository.ErrDuplicateEmail
		err := svc.UpdateAccount(ctx, created.ID, "Ann", "taken@x.com")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("existing id removes the account", func(t *testing.T) {
		repo := newFakeAccountRepo()
		svc := newTestService(repo)
		created := mustCreate(t, svc, "Ann", "ann@x.com", "secret1")

		require.NoError(t, svc.DeleteAccount(ctx, created.ID))

		accounts, err := svc.ListAccounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("unknown id fails with not found", func(t *testing.T) {
		svc := newTestService(newFakeAccountRepo())
		err := svc.DeleteAccount(ctx, uuid.NewString())
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("malformed id fails with invalid argument", func(t *testing.T) {
		svc := newTestService(newFakeAccountRepo())
		err := svc.DeleteAccount(ctx, "not-a-uuid")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArgument))
	})
}

func TestAccountService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fakeAccountRepo, *service.AccountService, *domain.Account) {
		t.Helper()
		repo := newFakeAccountRepo()
		svc := newTestService(repo)
		created := mustCreate(t, svc, "Ann", "ann@x.com", "secret1")
		return repo, svc, created
	}

	t.Run("length bounds are inclusive", func(t *testing.T) {
		cases := []struct {
			name     string
			password string
			wantCode string
		}{
			{"five chars rejected", "12345", apperrors.CodeInvalidPassword},
			{"six chars accepted", "123456", ""},
			{"thirty-two chars accepted", "12345678901234567890123456789012", ""},
			{"thirty-three chars rejected", "123456789012345678901234567890123", apperrors.CodeInvalidPassword},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, svc, created := setup(t)
				err := svc.ChangePassword(ctx, created.ID, "secret1", tc.password, tc.password)
				if tc.wantCode == "" {
					require.NoError(t, err)
				} else {
					require.Error(t, err)
					assert.True(t, apperrors.HasCode(err, tc.wantCode))
				}
			})
		}
	})

	t.Run("confirmation mismatch rejected before credential check", func(t *testing.T) {
		_, svc, created := setup(t)

		// even a wrong old password reports the mismatch, not unauthorized
		err := svc.ChangePassword(ctx, created.ID, "wrong-old", "newpass1", "newpass2")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidPassword))
	})

	t.Run("correct old password rotates the hash", func(t *testing.T) {
		repo, svc, created := setup(t)

		require.NoError(t, svc.ChangePassword(ctx, created.ID, "secret1", "newpass1", "newpass1"))

		hasher := &stubHasher{}
		stored := repo.accounts[created.ID].PasswordHash
		assert.NoError(t, hasher.Verify(stored, "newpass1"))
		assert.Error(t, hasher.Verify(stored, "secret1"))
	})

	t.Run("wrong old password fails unauthorized and keeps the hash", func(t *testing.T) {
		repo, svc, created := setup(t)
		before := repo.accounts[created.ID].PasswordHash

		err := svc.ChangePassword(ctx, created.ID, "wrong", "newpass2", "newpass2")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
		assert.Equal(t, before, repo.accounts[created.ID].PasswordHash)
	})

	t.Run("unknown id fails unauthorized, not not-found", func(t *testing.T) {
		_, svc, _ := setup(t)
		err := svc.ChangePassword(ctx, uuid.NewString(), "secret1", "newpass1", "newpass1")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	})

	t.Run("malformed id fails unauthorized, not not-found", func(t *testing.T) {
		_, svc, _ := setup(t)
		err := svc.ChangePassword(ctx, "not-a-uuid", "secret1", "newpass1", "newpass1")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	})

	t.Run("commit failure is an internal error", func(t *testing.T) {
		repo, svc, created := setup(t)
		repo.updateErr = errors.New("write failed")

		err := svc.ChangePassword(ctx, created.ID, "secret1", "newpass1", "newpass1")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInternalError))
	})

	t.Run("rotate then retry with stale credentials", func(t *testing.T) {
		_, svc, created := setup(t)

		require.NoError(t, svc.ChangePassword(ctx, created.ID, "secret1", "newpass1", "newpass1"))

		err := svc.ChangePassword(ctx, created.ID, "secret1", "newpass2", "newpass2")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

		require.NoError(t, svc.ChangePassword(ctx, created.ID, "newpass1", "newpass2", "newpass2"))
	})
}

func TestAccountService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	repo := newFakeAccountRepo()
	dispatcher := events.NewInMemoryDispatcher()

	var seen []events.EventType
	record := func(_ context.Context, event events.Event) error {
		seen = append(seen, event.Type)
		return nil
	}
	dispatcher.Subscribe(events.EventAccountCreated, record)
	dispatcher.Subscribe(events.EventAccountDeleted, record)
	dispatcher.Subscribe(events.EventPasswordChanged, record)

	svc := service.NewAccountService(service.AccountDependencies{
		AccountRepo: repo,
		Hasher:      &stubHasher{},
		Dispatcher:  dispatcher,
	})

	created, err := svc.CreateAccount(ctx, "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.ChangePassword(ctx, created.ID, "secret1", "newpass1", "newpass1"))
	require.NoError(t, svc.DeleteAccount(ctx, created.ID))

	assert.Equal(t, []events.EventType{
		events.EventAccountCreated,
		events.EventPasswordChanged,
		events.EventAccountDeleted,
	}, seen)
}
