package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("builds paseto codec", func(t *testing.T) {
		codec, err := NewCodec("paseto", testSecret)
		require.NoError(t, err)
		require.IsType(t, &PasetoCodec{}, codec)
	})

	t.Run("builds jwt codec", func(t *testing.T) {
		codec, err := NewCodec("jwt", testSecret)
		require.NoError(t, err)
		require.IsType(t, &JWTCodec{}, codec)
	})

	t.Run("rejects unknown codec name", func(t *testing.T) {
		_, err := NewCodec("biscuit", testSecret)
		require.Error(t, err)
	})

	t.Run("paseto rejects short key", func(t *testing.T) {
		_, err := NewCodec("paseto", []byte("too-short"))
		require.Error(t, err)
	})

	t.Run("jwt rejects empty secret", func(t *testing.T) {
		_, err := NewCodec("jwt", nil)
		require.Error(t, err)
	})
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"paseto", "jwt"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name, testSecret)
			require.NoError(t, err)

			subject := uuid.New()
			expires := time.Now().Add(time.Hour)

			tokenStr, err := codec.Encode(subject, expires, TypeRefresh)
			require.NoError(t, err)
			require.NotEmpty(t, tokenStr)

			claims, err := codec.Decode(tokenStr)
			require.NoError(t, err)
			require.Equal(t, subject, claims.Subject)
			require.Equal(t, TypeRefresh, claims.Type)
			require.WithinDuration(t, expires, claims.ExpiresAt, time.Second)
			require.WithinDuration(t, time.Now(), claims.IssuedAt, time.Minute)
		})
	}
}

func TestCodecRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"paseto", "jwt"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name, testSecret)
			require.NoError(t, err)

			_, err = codec.Decode("not-a-token")
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodecRejectsWrongKey(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"paseto", "jwt"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name, testSecret)
			require.NoError(t, err)

			other, err := NewCodec(name, []byte("ffffffffffffffffffffffffffffffff"))
			require.NoError(t, err)

			tokenStr, err := codec.Encode(uuid.New(), time.Now().Add(time.Hour), TypeAccess)
			require.NoError(t, err)

			_, err = other.Decode(tokenStr)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodecRejectsExpired(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"paseto", "jwt"} {
		t.Run(name, func(t *testing.T) {
			codec, err := NewCodec(name, testSecret)
			require.NoError(t, err)

			tokenStr, err := codec.Encode(uuid.New(), time.Now().Add(-time.Minute), TypeAccess)
			require.NoError(t, err)

			_, err = codec.Decode(tokenStr)
			require.ErrorIs(t, err, ErrExpiredToken)
		})
	}
}

func TestCodecsAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	pasetoCodec, err := NewCodec("paseto", testSecret)
	require.NoError(t, err)
	jwtCodec, err := NewCodec("jwt", testSecret)
	require.NoError(t, err)

	tokenStr, err := jwtCodec.Encode(uuid.New(), time.Now().Add(time.Hour), TypeAccess)
	require.NoError(t, err)

	_, err = pasetoCodec.Decode(tokenStr)
	require.ErrorIs(t, err, ErrInvalidToken)
}
