package attest

import "errors"

// Every failure of a lifecycle operation maps to exactly one of these.
// Operations never partially commit: an error means the registry, the
// asset store, and the event logs are all unchanged.
var (
	ErrNotAuthorized  = errors.New("caller is not authorized for this operation")
	ErrDuplicateKey   = errors.New("content digest is already registered")
	ErrNameCollision  = errors.New("derived asset identity already exists")
	ErrNotFound       = errors.New("no attestation for this digest")
	ErrAlreadyRevoked = errors.New("burn capability has already been consumed")
)
