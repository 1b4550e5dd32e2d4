package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestVault(t *testing.T) *Vault {
	t.Helper()
	salt, err := NewSalt()
	require.NoError(t, err)
	// low iteration count keeps the suite fast
	v, err := Open("correct horse battery", salt, Params{Iterations: 1000})
	require.NoError(t, err)
	return v
}

func TestOpenRejectsBadInputs(t *testing.T) {
	t.Parallel()

	salt, err := NewSalt()
	require.NoError(t, err)

	_, err = Open("", salt, DefaultParams())
	require.ErrorIs(t, err, ErrKeyDerivation)

	_, err = Open("pw", []byte("short"), DefaultParams())
	require.ErrorIs(t, err, ErrKeyDerivation)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()
	v := openTestVault(t)

	for _, s := range []string{"", "42.50", "STARBUCKS #1234 MELBOURNE", "émigré café"} {
		ct, err := v.Encrypt(s)
		require.NoError(t, err)
		pt, err := v.Decrypt(ct)
		require.NoError(t, err)
		require.Equal(t, s, pt)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	t.Parallel()
	v := openTestVault(t)

	a, err := v.Encrypt("same plaintext")
	require.NoError(t, err)
	b, err := v.Encrypt("same plaintext")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptDetectsTampering(t *testing.T) {
	t.Parallel()
	v := openTestVault(t)

	ct, err := v.Encrypt("sensitive")
	require.NoError(t, err)
	raw, err := base64.StdEncoding.DecodeString(ct)
	require.NoError(t, err)

	// flip one byte at every position, nonce included
	for i := range raw {
		mutated := make([]byte, len(raw))
		copy(mutated, raw)
		mutated[i] ^= 0x01
		_, err := v.Decrypt(base64.StdEncoding.EncodeToString(mutated))
		require.ErrorIs(t, err, ErrDecrypt, "byte %d", i)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	t.Parallel()
	v := openTestVault(t)

	_, err := v.Decrypt("not base64 at all!!!")
	require.ErrorIs(t, err, ErrDecrypt)

	_, err = v.Decrypt(base64.StdEncoding.EncodeToString([]byte("tiny")))
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptWithWrongKey(t *testing.T) {
	t.Parallel()

	salt, err := NewSalt()
	require.NoError(t, err)
	a, err := Open("password one", salt, Params{Iterations: 1000})
	require.NoError(t, err)
	b, err := Open("password two", salt, Params{Iterations: 1000})
	require.NoError(t, err)

	ct, err := a.Encrypt("secret")
	require.NoError(t, err)
	_, err = b.Decrypt(ct)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestLockBarrier(t *testing.T) {
	t.Parallel()
	v := openTestVault(t)

	ct, err := v.Encrypt("before lock")
	require.NoError(t, err)

	v.Lock()
	require.True(t, v.Locked())

	_, err = v.Encrypt("after lock")
	require.ErrorIs(t, err, ErrLocked)
	_, err = v.Decrypt(ct)
	require.ErrorIs(t, err, ErrLocked)
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	stored, err := HashPassword("MyPassword123")
	require.NoError(t, err)
	require.Contains(t, stored, "$")

	require.True(t, VerifyPassword("MyPassword123", stored))
	require.False(t, VerifyPassword("WrongPass", stored))
	require.False(t, VerifyPassword("", stored))
	require.False(t, VerifyPassword("MyPassword123", ""))
	require.False(t, VerifyPassword("MyPassword123", "invalid-format"))

	// random salt means identical passwords hash differently
	again, err := HashPassword("MyPassword123")
	require.NoError(t, err)
	require.NotEqual(t, stored, again)

	_, err = HashPassword("")
	require.ErrorIs(t, err, ErrKeyDerivation)
}
