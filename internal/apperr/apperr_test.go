package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := InvalidTransition("Book already lent out.")

	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "Book already lent out.", MessageOf(err))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain", NotFound("book %s not found", "x"), KindNotFound},
		{"wrapped", fmt.Errorf("lend: %w", Conflict("stale")), KindConflict},
		{"with cause", Wrap(KindInvalidInput, errors.New("parse"), "bad date"), KindInvalidInput},
		{"foreign", errors.New("db down"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestWrap_Unwraps(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindNotFound, cause, "volume not found")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "boom")
}
