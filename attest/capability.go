package attest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
)

// Capability handles are minted once, alongside the asset they govern,
// and never leave this package. The burn capability is consumed by
// exactly one successful revocation; the mutation capabilities exist
// for future metadata updates and are never exercised by the current
// operations.

// capabilityRecord is the persisted form, one per live asset.
type capabilityRecord struct {
	AssetID       AssetID `json:"asset_id"`
	MutationToken string  `json:"mutation_token"`
	BurnToken     string  `json:"burn_token"`
	PropertyToken string  `json:"property_token,omitempty"`
}

// BurnCapability authorizes the destruction of one asset. It is a
// move-only handle: Revoke consumes it, and a consumed capability can
// never succeed again.
type BurnCapability struct {
	assetID  AssetID
	token    string
	consumed bool
}

// AssetID reports which asset this capability governs.
func (c *BurnCapability) AssetID() AssetID {
	return c.assetID
}

// MutationCapability authorizes in-place metadata mutation. Held for
// future use; no current operation exercises it.
type MutationCapability struct {
	assetID AssetID
	token   string
}

// AssetID reports which asset this capability governs.
func (c *MutationCapability) AssetID() AssetID {
	return c.assetID
}

func newCapabilityToken() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("unable to generate a capability token: %v", err))
	}
	return hex.EncodeToString(b[:])
}

// mintCapabilities creates and persists the capability set for a newly
// issued asset. withProperty additionally mints the property-mutation
// capability used by structured-metadata assets.
func mintCapabilities(tx *bolt.Tx, id AssetID, withProperty bool) (*capabilityRecord, error) {
	rec := &capabilityRecord{
		AssetID:       id,
		MutationToken: newCapabilityToken(),
		BurnToken:     newCapabilityToken(),
	}
	if withProperty {
		rec.PropertyToken = newCapabilityToken()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := tx.Bucket(bucketCapabilities).Put([]byte(id), data); err != nil {
		return nil, err
	}

	return rec, nil
}

// loadBurnCapability reconstructs the burn handle for a live asset.
// Fails with AlreadyRevoked when the capability record is gone, which
// means the asset was already destroyed.
func loadBurnCapability(tx *bolt.Tx, id AssetID) (*BurnCapability, error) {
	data := tx.Bucket(bucketCapabilities).Get([]byte(id))
	if data == nil {
		return nil, ErrAlreadyRevoked
	}

	var rec capabilityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt capability record for %s: %v", id, err)
	}

	return &BurnCapability{assetID: rec.AssetID, token: rec.BurnToken}, nil
}

// consume marks the handle spent and deletes the persisted capability
// set. Deleting the record before the asset record guarantees no
// capability ever dangles after its asset is gone.
func (c *BurnCapability) consume(tx *bolt.Tx) error {
	if c.consumed {
		return ErrAlreadyRevoked
	}
	if err := tx.Bucket(bucketCapabilities).Delete([]byte(c.assetID)); err != nil {
		return err
	}
	c.consumed = true
	return nil
}
