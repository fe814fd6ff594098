package attest

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"golang.org/x/crypto/sha3"
)

// AssetID is the unique identity of an issued attestation asset,
// derived deterministically from the collection name and the content
// digest. Identical content always derives the same id, which is what
// makes duplicate submission structurally detectable.
type AssetID string

// Asset is the non-fungible record issued per accepted review. The
// endorsement is the issuing authority's ed25519 signature over
// id|owner|digest, verifiable off-system against the collection's
// issuer account.
type Asset struct {
	ID          AssetID           `json:"id"`
	Digest      string            `json:"digest"`
	Owner       string            `json:"owner"`
	Category    string            `json:"category,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Issuer      string            `json:"issuer"`
	Endorsement string            `json:"endorsement"`
	IssuedAt    time.Time         `json:"issued_at"`
}

// DeriveAssetID computes the asset identity for a digest under a
// collection name. Reproducible off-system: anyone holding the content
// can verify which asset attests it.
func DeriveAssetID(collection string, seed Digest) AssetID {
	h := sha3.New512()
	h.Write([]byte(collection))
	h.Write([]byte{0x00})
	h.Write(seed[:])
	return AssetID(hex.EncodeToString(h.Sum(nil)))
}

func endorsementMessage(id AssetID, owner, digest string) []byte {
	return []byte(strings.Join([]string{string(id), owner, digest}, "|"))
}

// VerifyEndorsement checks an asset's endorsement against an issuing
// identity, normally the collection's issuer account.
func VerifyEndorsement(issuer string, asset *Asset) bool {
	pub, err := ParseAccountNumber(issuer)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(asset.Endorsement)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, endorsementMessage(asset.ID, asset.Owner, asset.Digest), sig)
}

// issueAsset creates the asset record for a digest, transfers it to the
// owner, endorses it, and mints its capability set. Fails with
// NameCollision when an asset with the derived identity exists or ever
// existed: a burned asset's identity slot stays permanently dead.
func (a *Authority) issueAsset(tx *bolt.Tx, seed Digest, owner, category string, labels map[string]string, now time.Time) (*Asset, error) {
	id := DeriveAssetID(a.collection.Name, seed)

	if tx.Bucket(bucketAssets).Get([]byte(id)) != nil {
		return nil, ErrNameCollision
	}
	if tx.Bucket(bucketRetired).Get([]byte(id)) != nil {
		return nil, ErrNameCollision
	}

	asset := &Asset{
		ID:       id,
		Digest:   seed.String(),
		Owner:    owner,
		Category: category,
		Labels:   labels,
		Issuer:   a.issuer,
		IssuedAt: now,
	}
	asset.Endorsement = hex.EncodeToString(a.signAsIssuer(endorsementMessage(id, owner, asset.Digest)))

	data, err := json.Marshal(asset)
	if err != nil {
		return nil, err
	}
	if err := tx.Bucket(bucketAssets).Put([]byte(id), data); err != nil {
		return nil, err
	}

	if _, err := mintCapabilities(tx, id, len(labels) > 0); err != nil {
		return nil, err
	}

	return asset, nil
}

// getAsset loads a live asset record.
func getAsset(tx *bolt.Tx, id AssetID) (*Asset, error) {
	data := tx.Bucket(bucketAssets).Get([]byte(id))
	if data == nil {
		return nil, ErrNotFound
	}

	var asset Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, fmt.Errorf("corrupt asset record for %s: %v", id, err)
	}

	return &asset, nil
}

// burnAsset irreversibly destroys an asset. The capability set (which
// carries the attached metadata handles) is consumed first, then the
// asset record itself is removed and the identity slot tombstoned.
func burnAsset(tx *bolt.Tx, burnCap *BurnCapability) error {
	id := burnCap.AssetID()

	if tx.Bucket(bucketAssets).Get([]byte(id)) == nil {
		return ErrAlreadyRevoked
	}

	if err := burnCap.consume(tx); err != nil {
		return err
	}
	if err := tx.Bucket(bucketAssets).Delete([]byte(id)); err != nil {
		return err
	}
	return tx.Bucket(bucketRetired).Put([]byte(id), []byte{0x01})
}
