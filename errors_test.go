package fastigo_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastigo-dev/fastigo"
)

func TestError(t *testing.T) {
	t.Parallel()

	t.Run("string_renders_code_and_message", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "FileError: file not found", fastigo.ErrFileNotFound.String())
	})

	t.Run("with_message_copies", func(t *testing.T) {
		t.Parallel()

		custom := fastigo.ErrBadRequest.WithMessage("name is required")
		assert.Equal(t, "name is required", custom.Message)
		assert.Equal(t, http.StatusBadRequest, custom.Status)
		assert.Equal(t, http.StatusText(http.StatusBadRequest), fastigo.ErrBadRequest.Message, "original untouched")
	})

	t.Run("survives_wrapping", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("loading avatar: %w", fastigo.ErrFileNotFound)
		assert.ErrorIs(t, wrapped, fastigo.ErrFileNotFound)

		var e fastigo.Error
		require.True(t, errors.As(wrapped, &e))
		assert.Equal(t, http.StatusNotFound, e.Status)
	})

	t.Run("registration_sentinels_wrap", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("module setup: %w", fastigo.ErrDuplicateRoute)
		assert.ErrorIs(t, wrapped, fastigo.ErrDuplicateRoute)
	})
}
