package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSigner(t *testing.T) {
	signer := NewSigner(testSecret, "clinic")

	t.Run("round trip", func(t *testing.T) {
		value, err := signer.Sign("abc", time.Now().Add(time.Minute))
		require.NoError(t, err)

		id, err := signer.Verify(value)
		require.NoError(t, err)
		assert.Equal(t, "abc", id)
	})

	t.Run("tampered", func(t *testing.T) {
		value, err := signer.Sign("abc", time.Now().Add(time.Minute))
		require.NoError(t, err)

		_, err = signer.Verify(value[:len(value)-2] + "xx")
		assert.ErrorIs(t, err, ErrInvalidCookie)
	})

	t.Run("other secret", func(t *testing.T) {
		value, err := NewSigner("ffffffffffffffffffffffffffffffff", "clinic").Sign("abc", time.Now().Add(time.Minute))
		require.NoError(t, err)

		_, err = signer.Verify(value)
		assert.ErrorIs(t, err, ErrInvalidCookie)
	})

	t.Run("expired", func(t *testing.T) {
		value, err := signer.Sign("abc", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = signer.Verify(value)
		assert.ErrorIs(t, err, ErrInvalidCookie)
	})
}
