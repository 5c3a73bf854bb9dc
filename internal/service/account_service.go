package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// Password policy bounds applied during the change-password workflow.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 32
)

// AccountService coordinates account lifecycle and credential workflows.
// It owns the business invariants: unique email on creation, password
// policy, and authenticated password change. It never retries; every
// failure is terminal for the calling operation.
type AccountService struct {
	accounts   repository.AccountRepository
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
}

// AccountDependencies bundles collaborator requirements for the service.
type AccountDependencies struct {
	AccountRepo repository.AccountRepository
	Hasher      auth.PasswordHasher
	Dispatcher  events.Dispatcher
}

// NewAccountService builds the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	return &AccountService{
		accounts:   deps.AccountRepo,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
	}
}

// ListAccounts returns all accounts.
func (s *AccountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.FindAll(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	return accounts, nil
}

// GetAccount fetches a single account by id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewInvalidArgument("malformed account id")
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewNotFound("account", map[string]any{"id": id})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return account, nil
}

// FindAccountByEmail looks up an account by email. An absent account is
// not an error: it returns (nil, nil).
func (s *AccountService) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewStorageError(err)
	}
	return account, nil
}

// CreateAccount registers a new account after checking email uniqueness.
// The pre-check and insert are not atomic; the accounts table carries a
// unique index on email, and a losing concurrent insert surfaces here as
// a conflict rather than a storage failure.
func (s *AccountService) CreateAccount(ctx context.Context, name, email, password string) (*domain.Account, error) {
	existing, err := s.FindAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflict("email already in use", nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, apperrors.NewStorageError(err)
	}

	s.publish(ctx, events.EventAccountCreated, account.ID, events.AccountCreatedPayload{
		Name:  account.Name,
		Email: account.Email,
	})
	return account, nil
}

// UpdateAccount performs a partial update of name and email. It does not
// touch the password hash and does not re-check email uniqueness; the
// storage-level unique index still rejects a colliding email, which is
// reported as a conflict.
func (s *AccountService) UpdateAccount(ctx context.Context, id, name, email string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewInvalidArgument("malformed account id")
	}

	applied, err := s.accounts.UpdateFields(ctx, id, repository.AccountFields{
		Name:  &name,
		Email: &email,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return apperrors.NewConflict("email already in use", nil)
		}
		return apperrors.NewStorageError(err)
	}
	if !applied {
		return apperrors.NewNotFound("account", map[string]any{"id": id})
	}

	s.publish(ctx, events.EventAccountUpdated, id, events.AccountUpdatedPayload{
		Name:  name,
		Email: email,
	})
	return nil
}

// DeleteAccount permanently removes an account.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewInvalidArgument("malformed account id")
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewNotFound("account", map[string]any{"id": id})
		}
		return apperrors.NewStorageError(err)
	}

	applied, err := s.accounts.DeleteByID(ctx, id)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	if !applied {
		return apperrors.NewNotFound("account", map[string]any{"id": id})
	}

	s.publish(ctx, events.EventAccountDeleted, id, events.AccountDeletedPayload{
		Email: account.Email,
	})
	return nil
}

// ChangePassword rotates an account's credential. The workflow is a
// linear sequence of checkpoints, each a terminal exit:
//
//  1. new password length within policy bounds
//  2. new password equals its confirmation
//  3. account resolves (a miss is reported as unauthorized, not
//     not-found, so the caller cannot tell a wrong id from a wrong
//     credential)
//  4. old password verifies against the stored hash
//  5. new hash committed to storage
func (s *AccountService) ChangePassword(ctx context.Context, id, oldPassword, newPassword, newPasswordConfirm string) error {
	if len(newPassword) < MinPasswordLength || len(newPassword) > MaxPasswordLength {
		return apperrors.NewInvalidPassword("new password length must be between 6 and 32 characters")
	}
	if newPassword != newPasswordConfirm {
		return apperrors.NewInvalidPassword("new password confirmation does not match")
	}

	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return apperrors.NewStorageError(err)
	}

	if err := s.hasher.Verify(account.PasswordHash, oldPassword); err != nil {
		return apperrors.NewUnauthorized("old password does not match current password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	applied, err := s.accounts.UpdateFields(ctx, id, repository.AccountFields{
		PasswordHash: &hash,
	})
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !applied {
		return apperrors.NewInternalError(errors.New("password update applied to no rows"))
	}

	s.publish(ctx, events.EventPasswordChanged, id, nil)
	return nil
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, accountID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
