package attest

import (
	"github.com/boltdb/bolt"
)

// The registry is the explicit digest → asset-id index: the single
// source of truth for "does this review already exist". Its writes are
// *bolt.Tx scoped so the lifecycle controller composes the duplicate
// check, the issuance, and the insert into one transaction; there is no
// window where a second submission with the same digest can race past
// the check.

// registryContains is the tx-scoped membership test.
func registryContains(tx *bolt.Tx, d Digest) bool {
	return tx.Bucket(bucketRegistry).Get(d[:]) != nil
}

// registryInsert adds a mapping, failing with DuplicateKey if the
// digest is already present.
func registryInsert(tx *bolt.Tx, d Digest, id AssetID) error {
	b := tx.Bucket(bucketRegistry)
	if b.Get(d[:]) != nil {
		return ErrDuplicateKey
	}
	return b.Put(d[:], []byte(id))
}

// registryRemove deletes a mapping and returns the removed asset id,
// failing with NotFound if the digest is absent.
func registryRemove(tx *bolt.Tx, d Digest) (AssetID, error) {
	b := tx.Bucket(bucketRegistry)

	v := b.Get(d[:])
	if v == nil {
		return "", ErrNotFound
	}
	id := AssetID(v)

	if err := b.Delete(d[:]); err != nil {
		return "", err
	}
	return id, nil
}

// registryLookup resolves a digest to its live asset id without
// modifying anything.
func registryLookup(tx *bolt.Tx, d Digest) (AssetID, bool) {
	v := tx.Bucket(bucketRegistry).Get(d[:])
	if v == nil {
		return "", false
	}
	return AssetID(v), true
}

// Exists reports whether a live attestation is registered for the
// digest. Open to any caller.
func (a *Authority) Exists(d Digest) (bool, error) {
	var found bool
	err := a.db.View(func(tx *bolt.Tx) error {
		found = registryContains(tx, d)
		return nil
	})
	return found, err
}

// Count reports the number of live attestations. Open to any caller.
func (a *Authority) Count() (int, error) {
	var n int
	err := a.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketRegistry).Stats().KeyN
		return nil
	})
	return n, err
}

// Lookup returns the live asset record for a digest, or NotFound.
func (a *Authority) Lookup(d Digest) (*Asset, error) {
	var asset *Asset

	err := a.db.View(func(tx *bolt.Tx) error {
		id, ok := registryLookup(tx, d)
		if !ok {
			return ErrNotFound
		}

		var err error
		asset, err = getAsset(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return asset, nil
}
