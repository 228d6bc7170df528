package worksync

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError(t *testing.T) {
	t.Run("wraps with context", func(t *testing.T) {
		err := WrapError(ErrAuthFailed, "clone failed")
		require.Error(t, err)
		assert.Equal(t, "clone failed: authentication failed", err.Error())
		assert.ErrorIs(t, err, ErrAuthFailed)
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapError(nil, "ignored"))
	})
}

func TestWrapErrorf(t *testing.T) {
	t.Run("formats context", func(t *testing.T) {
		err := WrapErrorf(ErrResolveFailed, "branch %q not found", "main")
		require.Error(t, err)
		assert.Equal(t, `branch "main" not found: cannot resolve revision`, err.Error())
		assert.ErrorIs(t, err, ErrResolveFailed)
	})

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, WrapErrorf(nil, "ignored %d", 1))
	})
}

func TestClassifyTransportErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "authentication required", in: transport.ErrAuthenticationRequired, want: ErrAuthFailed},
		{name: "authorization failed", in: transport.ErrAuthorizationFailed, want: ErrAuthFailed},
		{name: "repository not found", in: transport.ErrRepositoryNotFound, want: ErrNotFound},
		{
			name: "wrapped authentication required",
			in:   fmt.Errorf("fetch: %w", transport.ErrAuthenticationRequired),
			want: ErrAuthFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyTransportErr(tt.in), tt.want)
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, classifyTransportErr(nil))
	})

	t.Run("unknown errors pass through unchanged", func(t *testing.T) {
		unknown := errors.New("connection reset")
		assert.Equal(t, unknown, classifyTransportErr(unknown))
	})
}
