package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashCompareRoundTrip(t *testing.T) {
	hash, err := Hash("correct horse battery")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse battery", hash)
	require.NoError(t, Compare(hash, "correct horse battery"))
	require.Error(t, Compare(hash, "wrong password"))
}

func TestHashRejectsShortPassword(t *testing.T) {
	_, err := Hash("short")
	require.ErrorIs(t, err, ErrTooShort)
}
