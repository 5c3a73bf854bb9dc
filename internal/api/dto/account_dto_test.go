package dto_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

func TestValidate_CreateAccountRequest(t *testing.T) {
	valid := dto.CreateAccountRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"}

	cases := []struct {
		name    string
		mutate  func(*dto.CreateAccountRequest)
		wantErr bool
	}{
		{"valid", func(*dto.CreateAccountRequest) {}, false},
		{"missing name", func(r *dto.CreateAccountRequest) { r.Name = "" }, true},
		{"name too long", func(r *dto.CreateAccountRequest) { r.Name = strings.Repeat("a", 101) }, true},
		{"name at max length", func(r *dto.CreateAccountRequest) { r.Name = strings.Repeat("a", 100) }, false},
		{"bad email", func(r *dto.CreateAccountRequest) { r.Email = "not-an-email" }, true},
		{"password too short", func(r *dto.CreateAccountRequest) { r.Password = "12345" }, true},
		{"password too long", func(r *dto.CreateAccountRequest) { r.Password = strings.Repeat("x", 33) }, true},
		{"password at bounds", func(r *dto.CreateAccountRequest) { r.Password = strings.Repeat("x", 32) }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			err := dto.Validate(req)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ChangePasswordRequest(t *testing.T) {
	t.Run("confirmation must match", func(t *testing.T) {
		err := dto.Validate(dto.ChangePasswordRequest{
			OldPassword:        "secret1",
			NewPassword:        "newpass1",
			NewPasswordConfirm: "newpass2",
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("matching confirmation passes", func(t *testing.T) {
		err := dto.Validate(dto.ChangePasswordRequest{
			OldPassword:        "secret1",
			NewPassword:        "newpass1",
			NewPasswordConfirm: "newpass1",
		})
		assert.NoError(t, err)
	})
}

func TestNewAccountResponse_ExcludesCredentialMaterial(t *testing.T) {
	account := &domain.Account{
		ID:           "id-1",
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: "$2a$10$abcdef",
	}

	resp := dto.NewAccountResponse(account)
	assert.Equal(t, account.ID, resp.ID)
	assert.Equal(t, account.Name, resp.Name)
	assert.Equal(t, account.Email, resp.Email)
}
