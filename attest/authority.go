package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/boltdb/bolt"
)

var (
	bucketAccounts         = []byte("accounts")
	bucketRegistry         = []byte("registry")
	bucketAssets           = []byte("assets")
	bucketRetired          = []byte("retired-assets")
	bucketCapabilities     = []byte("capabilities")
	bucketSubmissionEvents = []byte("submission-events")
	bucketDeletionEvents   = []byte("deletion-events")
	bucketAuthority        = []byte("authority")

	keySigningSeed = []byte("signing-seed")
	keyCollection  = []byte("collection")
)

// Collection is the single asset collection all attestations are
// issued under: fixed name, unlimited size, no royalty.
type Collection struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URI         string    `json:"uri"`
	Issuer      string    `json:"issuer"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	collectionName        = "Review Attestations"
	collectionDescription = "Non-fungible attestation records, one per distinct piece of review content"
	collectionURI         = "https://reviewmark.io/attestations"
)

// Authority is the process-wide issuing authority: it owns the bolt
// handle, the delegated signing credential, and the collection record.
// All registry and asset mutation goes through its lifecycle
// operations; nothing else writes those buckets.
type Authority struct {
	mu  sync.Mutex
	db  *bolt.DB
	log *logger.L

	// delegated signing credential; never exposed outside this
	// package, all endorsement goes through signAsIssuer
	signingKey ed25519.PrivateKey

	issuer     string
	admin      string
	collection Collection
}

// Open initializes the issuing authority against a bolt database,
// creating the buckets, the delegated signing identity, and the
// collection record on first run, and reloading them afterwards.
// admin is the account number of the administrative identity; its key
// stays with the administrator, only the public half is registered.
func Open(db *bolt.DB, admin string) (*Authority, error) {
	adminKey, err := ParseAccountNumber(admin)
	if err != nil {
		return nil, fmt.Errorf("invalid admin account: %v", err)
	}

	a := &Authority{
		db:    db,
		log:   logger.New("attest"),
		admin: admin,
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			bucketAccounts, bucketRegistry, bucketAssets, bucketRetired,
			bucketCapabilities, bucketSubmissionEvents, bucketDeletionEvents,
			bucketAuthority,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("unable to create bucket %s: %v", name, err)
			}
		}

		// the administrator resolves like any other caller
		if err := tx.Bucket(bucketAccounts).Put([]byte(admin), adminKey); err != nil {
			return err
		}

		if err := a.loadSigningKey(tx); err != nil {
			return err
		}
		return a.loadCollection(tx)
	})
	if err != nil {
		return nil, err
	}

	a.log.Infof("issuing authority ready: issuer=%s admin=%s collection=%q", a.issuer, a.admin, a.collection.Name)
	return a, nil
}

func (a *Authority) loadSigningKey(tx *bolt.Tx) error {
	b := tx.Bucket(bucketAuthority)

	seed := b.Get(keySigningSeed)
	if seed == nil {
		fresh := make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(fresh); err != nil {
			return fmt.Errorf("unable to generate the signing seed: %v", err)
		}
		if err := b.Put(keySigningSeed, fresh); err != nil {
			return err
		}
		seed = fresh
	}

	a.signingKey = ed25519.NewKeyFromSeed(seed)
	a.issuer = AccountNumber(a.signingKey.Public().(ed25519.PublicKey))
	return nil
}

func (a *Authority) loadCollection(tx *bolt.Tx) error {
	b := tx.Bucket(bucketAuthority)

	if data := b.Get(keyCollection); data != nil {
		return json.Unmarshal(data, &a.collection)
	}

	a.collection = Collection{
		Name:        collectionName,
		Description: collectionDescription,
		URI:         collectionURI,
		Issuer:      a.issuer,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(a.collection)
	if err != nil {
		return err
	}
	return b.Put(keyCollection, data)
}

// Admin returns the administrative identity's account number.
func (a *Authority) Admin() string {
	return a.admin
}

// Issuer returns the delegated signing identity's account number. Its
// public key verifies asset endorsements.
func (a *Authority) Issuer() string {
	return a.issuer
}

// Collection returns the collection record.
func (a *Authority) Collection() Collection {
	return a.collection
}

// signAsIssuer endorses a message with the delegated signing
// credential. The credential itself never leaves the authority.
func (a *Authority) signAsIssuer(message []byte) []byte {
	return ed25519.Sign(a.signingKey, message)
}
