package attest

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"
)

// Submission and deletion events form two append-only, monotonically
// sequenced logs. Events are written inside the same transaction as the
// state change they describe, so the log never mentions an operation
// that did not commit.

// SubmissionEvent records an accepted attestation.
type SubmissionEvent struct {
	ID        string            `json:"id"`
	Sequence  uint64            `json:"sequence"`
	Reviewer  string            `json:"reviewer"`
	AssetID   AssetID           `json:"asset_id"`
	Digest    string            `json:"digest"`
	Category  string            `json:"category,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Sponsored bool              `json:"sponsored"`
	Timestamp time.Time         `json:"timestamp"`
}

// DeletionEvent records a revoked attestation.
type DeletionEvent struct {
	ID         string    `json:"id"`
	Sequence   uint64    `json:"sequence"`
	PriorOwner string    `json:"prior_owner"`
	AssetID    AssetID   `json:"asset_id"`
	Digest     string    `json:"digest"`
	Timestamp  time.Time `json:"timestamp"`
}

func appendEvent(tx *bolt.Tx, bucket []byte, assign func(seq uint64), event interface{}) error {
	b := tx.Bucket(bucket)

	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	assign(seq)

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return b.Put(key[:], data)
}

func logSubmission(tx *bolt.Tx, ev *SubmissionEvent) error {
	ev.ID = uuid.NewString()
	return appendEvent(tx, bucketSubmissionEvents, func(seq uint64) { ev.Sequence = seq }, ev)
}

func logDeletion(tx *bolt.Tx, ev *DeletionEvent) error {
	ev.ID = uuid.NewString()
	return appendEvent(tx, bucketDeletionEvents, func(seq uint64) { ev.Sequence = seq }, ev)
}

// SubmissionEvents returns the full submission log in sequence order.
func (a *Authority) SubmissionEvents() ([]SubmissionEvent, error) {
	events := make([]SubmissionEvent, 0)

	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSubmissionEvents).ForEach(func(_, v []byte) error {
			var ev SubmissionEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			events = append(events, ev)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// DeletionEvents returns the full deletion log in sequence order.
func (a *Authority) DeletionEvents() ([]DeletionEvent, error) {
	events := make([]DeletionEvent, 0)

	err := a.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeletionEvents).ForEach(func(_, v []byte) error {
			var ev DeletionEvent
			if err := json.Unmarshal(v, &ev); err != nil {
				return err
			}
			events = append(events, ev)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}
