package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodePropagation(t *testing.T) {
	t.Run("New carries its code", func(t *testing.T) {
		err := New(CodeNotFound, "report not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})

	t.Run("Wrap keeps the original in the chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "renderer call failed")
		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate ref")
		outer := Wrap(inner, CodeInternal, "failed to issue invoice")
		assert.Equal(t, CodeInternal, CodeOf(outer))
	})

	t.Run("fmt wrapping preserves the code", func(t *testing.T) {
		err := fmt.Errorf("confirm: %w", New(CodeInvalidState, "already confirmed"))
		assert.True(t, HasCode(err, CodeInvalidState))
	})

	t.Run("uncoded errors default to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
		assert.False(t, HasCode(errors.New("boom"), CodeNotFound))
	})

	t.Run("Wrap of nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})
}
