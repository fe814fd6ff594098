package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountNumberRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	number := AccountNumber(pub)
	recovered, err := ParseAccountNumber(number)
	require.NoError(t, err)

	assert.Equal(t, pub, recovered)
}

func TestParseAccountNumberRejectsTampering(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	number := AccountNumber(pub)

	// flip one character somewhere in the middle
	tampered := []byte(number)
	if tampered[10] == '2' {
		tampered[10] = '3'
	} else {
		tampered[10] = '2'
	}

	_, err = ParseAccountNumber(string(tampered))
	assert.Error(t, err)
}

func TestParseAccountNumberRejectsGarbage(t *testing.T) {
	_, err := ParseAccountNumber("not-base58-0OIl")
	assert.Error(t, err)

	_, err = ParseAccountNumber("abc")
	assert.Error(t, err)
}

func TestRegisterAccount(t *testing.T) {
	a := newTestAuthority(t)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	number, err := a.RegisterAccount(pub, ed25519.Sign(priv, RegistrationMessage(pub)))
	require.NoError(t, err)
	assert.Equal(t, AccountNumber(pub), number)

	stored, err := a.AccountKey(number)
	require.NoError(t, err)
	assert.Equal(t, pub, stored)
}

func TestRegisterAccountRejectsBadProof(t *testing.T) {
	a := newTestAuthority(t)

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	// signed by a different key
	_, err = a.RegisterAccount(pub, ed25519.Sign(otherPriv, RegistrationMessage(pub)))
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAccountKeyUnknown(t *testing.T) {
	a := newTestAuthority(t)

	_, err := a.AccountKey("unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
