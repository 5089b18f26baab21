package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	require.True(t, Verify(hash, "correct horse battery staple"))
	require.False(t, Verify(hash, "wrong password"))
}

func TestHashIsSalted(t *testing.T) {
	t.Parallel()

	first, err := Hash("same password")
	require.NoError(t, err)
	second, err := Hash("same password")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, Verify(first, "same password"))
	require.True(t, Verify(second, "same password"))
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	require.False(t, Verify("", "password"))
	require.False(t, Verify("not-a-hash", "password"))
	require.False(t, Verify("$argon2id$v=19$m=65536,t=3,p=4$bad", "password"))
}
