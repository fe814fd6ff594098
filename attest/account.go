package attest

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/boltdb/bolt"
	"golang.org/x/crypto/sha3"
)

// account number layout: header(2) | keytype(1) | pubkey(32) | checksum(4)
var (
	accountHeader = []byte{0x5a, 0x1e}
	keyTypeEd     = byte(0x01)
)

// AccountNumber encodes an ed25519 public key into the base58 account
// number callers are identified by.
func AccountNumber(pub ed25519.PublicKey) string {
	var b bytes.Buffer

	b.Write(accountHeader)
	b.WriteByte(keyTypeEd)
	b.Write(pub)

	checksum := sha3.Sum256(b.Bytes())
	b.Write(checksum[:4])

	return toBase58(b.Bytes())
}

// ParseAccountNumber recovers the public key from an account number,
// verifying the checksum.
func ParseAccountNumber(number string) (ed25519.PublicKey, error) {
	raw, err := fromBase58(number)
	if err != nil {
		return nil, fmt.Errorf("invalid account number: %v", err)
	}

	want := len(accountHeader) + 1 + ed25519.PublicKeySize + 4
	if len(raw) != want {
		return nil, fmt.Errorf("invalid account number: expected %d bytes, got %d", want, len(raw))
	}

	payload, checksum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.HasPrefix(payload, accountHeader) {
		return nil, fmt.Errorf("invalid account number: bad header")
	}
	if payload[len(accountHeader)] != keyTypeEd {
		return nil, fmt.Errorf("invalid account number: unsupported key type %d", payload[len(accountHeader)])
	}

	sum := sha3.Sum256(payload)
	if !bytes.Equal(sum[:4], checksum) {
		return nil, fmt.Errorf("invalid account number: checksum mismatch")
	}

	return ed25519.PublicKey(payload[len(accountHeader)+1:]), nil
}

// RegistrationMessage is what a key signs to prove possession when
// registering its account.
func RegistrationMessage(pub ed25519.PublicKey) []byte {
	return append([]byte("review-attest:register:"), pub...)
}

// RegisterAccount stores the public key for a new caller identity. The
// signature must be the key's own signature over its registration
// message; this keeps third parties from registering keys they do not
// hold.
func (a *Authority) RegisterAccount(pub ed25519.PublicKey, signature []byte) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid public key length %d", len(pub))
	}
	if !ed25519.Verify(pub, RegistrationMessage(pub), signature) {
		return "", ErrNotAuthorized
	}

	number := AccountNumber(pub)
	err := a.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).Put([]byte(number), pub)
	})
	if err != nil {
		return "", fmt.Errorf("failed to store the account: %v", err)
	}

	return number, nil
}

// AccountKey looks up the registered public key for an account number.
func (a *Authority) AccountKey(number string) (ed25519.PublicKey, error) {
	var pub []byte

	err := a.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketAccounts).Get([]byte(number))
		if v != nil {
			pub = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get the account: %v", err)
	}

	if pub == nil {
		return nil, fmt.Errorf("account %s not registered: %w", number, ErrNotFound)
	}

	return ed25519.PublicKey(pub), nil
}
