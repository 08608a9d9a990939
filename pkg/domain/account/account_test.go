package account_test

import (
	"testing"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/amirasaad/wallet/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	acc, err := account.New().
		WithID(id).
		WithEmail("  ada@example.com ").
		WithHandle("@Ada_Lovelace").
		Build()
	require.NoError(t, err)
	assert.Equal(t, id, acc.ID)
	assert.Equal(t, "ada@example.com", acc.Email)
	assert.Equal(t, "ada_lovelace", acc.Handle)
	assert.False(t, acc.HasPin())
	assert.False(t, acc.CreatedAt.IsZero())
}

func TestBuilder_Invalid(t *testing.T) {
	t.Parallel()
	_, err := account.New().Build()
	require.ErrorIs(t, err, account.ErrMissingEmail)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = account.New().WithID(uuid.Nil).WithEmail("a@b.co").Build()
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = account.New().WithEmail("a@b.co").WithHandle("ab").Build()
	require.ErrorIs(t, err, account.ErrInvalidHandle)
}

func TestNormalizeHandle(t *testing.T) {
	t.Parallel()
	valid := map[string]string{
		"john.doe":      "john.doe",
		"  JOHN_DOE99 ": "john_doe99",
		"@abcdef":       "abcdef",
	}
	for in, want := range valid {
		got, err := account.NormalizeHandle(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "abc", "has space", "dash-name", "emoji😀name", "a234567890123456789012345678901234"} {
		_, err := account.NormalizeHandle(bad)
		assert.ErrorIs(t, err, account.ErrInvalidHandle, bad)
	}
}

func TestHasPin(t *testing.T) {
	t.Parallel()
	acc, err := account.New().WithEmail("a@b.co").WithPinHash([]byte("hash")).Build()
	require.NoError(t, err)
	assert.True(t, acc.HasPin())
}
