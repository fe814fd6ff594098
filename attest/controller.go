package attest

import (
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

// Lifecycle operations. Each runs as a single serialized unit: the
// authority mutex plus one bolt transaction cover the duplicate check,
// the asset mutation, the registry write, and the event append, so a
// concurrent reader sees an attestation fully live or fully absent,
// never in between. Failures roll the whole transaction back.

// Submit issues a new attestation for the content and transfers it to
// the recipient. Self-submission when caller == recipient; sponsored
// submission when the caller is the administrator issuing on the
// recipient's behalf. The recipient must be a registered account.
func (a *Authority) Submit(caller, recipient string, content ContentDescriptor, category string, labels map[string]string) (*Asset, error) {
	if err := a.authorizeSubmit(caller, recipient); err != nil {
		a.log.Warnf("submit rejected: caller=%s recipient=%s: %v", caller, recipient, err)
		return nil, err
	}

	d := DigestContent(content)
	now := time.Now().UTC()

	a.mu.Lock()
	defer a.mu.Unlock()

	var asset *Asset
	err := a.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketAccounts).Get([]byte(recipient)) == nil {
			return fmt.Errorf("recipient %s not registered: %w", recipient, ErrNotFound)
		}

		if registryContains(tx, d) {
			return ErrDuplicateKey
		}

		var err error
		asset, err = a.issueAsset(tx, d, recipient, category, labels, now)
		if err != nil {
			return err
		}

		if err := registryInsert(tx, d, asset.ID); err != nil {
			return err
		}

		return logSubmission(tx, &SubmissionEvent{
			Reviewer:  recipient,
			AssetID:   asset.ID,
			Digest:    asset.Digest,
			Category:  category,
			Labels:    labels,
			Sponsored: caller != recipient,
			Timestamp: now,
		})
	})
	if err != nil {
		return nil, err
	}

	a.log.Infof("issued %s to %s (digest %s)", asset.ID, recipient, asset.Digest)
	return asset, nil
}

// Delete revokes the attestation for a digest: administrator only. The
// burn capability is consumed, the asset and its metadata handles are
// destroyed, and the registry entry removed, all in one transaction.
func (a *Authority) Delete(caller string, d Digest) error {
	if err := a.authorizeDelete(caller); err != nil {
		a.log.Warnf("delete rejected: caller=%s: %v", caller, err)
		return err
	}

	now := time.Now().UTC()

	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.db.Update(func(tx *bolt.Tx) error {
		id, ok := registryLookup(tx, d)
		if !ok {
			return ErrNotFound
		}

		// resolve the owner before destruction, for the event
		asset, err := getAsset(tx, id)
		if err != nil {
			return err
		}

		burnCap, err := loadBurnCapability(tx, id)
		if err != nil {
			return err
		}
		if err := burnAsset(tx, burnCap); err != nil {
			return err
		}

		if _, err := registryRemove(tx, d); err != nil {
			return err
		}

		return logDeletion(tx, &DeletionEvent{
			PriorOwner: asset.Owner,
			AssetID:    id,
			Digest:     asset.Digest,
			Timestamp:  now,
		})
	})
	if err != nil {
		return err
	}

	a.log.Infof("revoked attestation for digest %s", d)
	return nil
}

// DeleteAsset revokes by asset identity instead of digest.
func (a *Authority) DeleteAsset(caller string, id AssetID) error {
	if err := a.authorizeDelete(caller); err != nil {
		return err
	}

	var d Digest
	err := a.db.View(func(tx *bolt.Tx) error {
		asset, err := getAsset(tx, id)
		if err != nil {
			return err
		}
		d, err = ParseDigest(asset.Digest)
		return err
	})
	if err != nil {
		return err
	}

	return a.Delete(caller, d)
}
