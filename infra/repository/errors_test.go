package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/wallet/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("some other error")
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{
			name:     "nil error returns nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "duplicate key error maps to ErrAlreadyExists",
			input:    gorm.ErrDuplicatedKey,
			expected: domain.ErrAlreadyExists,
		},
		{
			name:     "record not found error maps to ErrNotFound",
			input:    gorm.ErrRecordNotFound,
			expected: domain.ErrNotFound,
		},
		{
			name:     "postgres unique violation maps to ErrAlreadyExists",
			input:    fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}),
			expected: domain.ErrAlreadyExists,
		},
		{
			name:     "other postgres error is returned as is",
			input:    &pgconn.PgError{Code: "40001"},
			expected: nil,
		},
		{
			name:     "wrapped record not found error maps correctly",
			input:    errors.Join(errors.New("outer error"), gorm.ErrRecordNotFound),
			expected: domain.ErrNotFound,
		},
		{
			name:     "non-GORM error returns original",
			input:    other,
			expected: other,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			switch {
			case tt.input == nil:
				require.NoError(t, result)
			case tt.expected == nil:
				require.Error(t, result)
				assert.Equal(t, tt.input.Error(), result.Error())
			default:
				assert.ErrorIs(t, result, tt.expected)
			}
		})
	}
}

func TestRemap(t *testing.T) {
	t.Parallel()

	assert.NoError(t, remap(nil, domain.ErrRecordNotFound, nil))
	assert.ErrorIs(t, remap(gorm.ErrRecordNotFound, domain.ErrRecordNotFound, nil), domain.ErrRecordNotFound)
	assert.ErrorIs(t, remap(gorm.ErrDuplicatedKey, nil, domain.ErrDuplicateReference), domain.ErrDuplicateReference)
	// no replacement configured keeps the generic error
	assert.ErrorIs(t, remap(gorm.ErrDuplicatedKey, domain.ErrRecordNotFound, nil), domain.ErrAlreadyExists)
}
