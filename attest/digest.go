package attest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// DigestSize is the byte length of a content digest.
const DigestSize = 64

// Digest is the canonical SHA3-512 hash of a piece of review content.
// It is the registry key and the seed for the derived asset identity.
type Digest [DigestSize]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes the hex form produced by Digest.String.
func ParseDigest(s string) (Digest, error) {
	var d Digest

	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest: %v", err)
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("invalid digest: expected %d bytes, got %d", DigestSize, len(raw))
	}

	copy(d[:], raw)
	return d, nil
}

// ContentDescriptor identifies a piece of review content. The content
// itself is never stored; only its digest enters the system.
type ContentDescriptor struct {
	Platform string `json:"platform"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// DigestContent serializes the descriptor into its canonical byte form
// and hashes it. Deterministic: byte-identical descriptors always
// produce the same digest, across processes and across time.
func DigestContent(c ContentDescriptor) Digest {
	h := sha3.New512()

	// length-prefixed fields so that ("ab","c") and ("a","bc")
	// cannot collide
	for _, field := range []string{c.Platform, c.Subject, c.Body} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
