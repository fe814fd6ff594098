package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesCollection(t *testing.T) {
	a := newTestAuthority(t)

	col := a.Collection()
	assert.Equal(t, collectionName, col.Name)
	assert.Equal(t, collectionURI, col.URI)
	assert.Equal(t, a.Issuer(), col.Issuer)
	assert.False(t, col.CreatedAt.IsZero())
}

func TestOpenIsStableAcrossRestarts(t *testing.T) {
	setupLogger(t)
	path := filepath.Join(t.TempDir(), "restart.db")

	db, err := bolt.Open(path, 0600, nil)
	require.NoError(t, err)

	adminPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	admin := AccountNumber(adminPub)

	a1, err := Open(db, admin)
	require.NoError(t, err)

	reviewer, _ := newTestAccount(t, a1)
	_, err = a1.Submit(reviewer, reviewer, testContent, "", nil)
	require.NoError(t, err)

	issuer := a1.Issuer()
	created := a1.Collection().CreatedAt
	require.NoError(t, db.Close())

	db, err = bolt.Open(path, 0600, nil)
	require.NoError(t, err)
	defer db.Close()

	a2, err := Open(db, admin)
	require.NoError(t, err)

	// the delegated signing identity and the collection are created
	// once per deployment, then reloaded
	assert.Equal(t, issuer, a2.Issuer())
	assert.Equal(t, created.Unix(), a2.Collection().CreatedAt.Unix())

	exists, err := a2.Exists(DigestContent(testContent))
	require.NoError(t, err)
	assert.True(t, exists)

	n, _ := a2.Count()
	assert.Equal(t, 1, n)
}

func TestAdminResolvesAsAccount(t *testing.T) {
	a := newTestAuthority(t)

	pub, err := a.AccountKey(a.Admin())
	require.NoError(t, err)
	assert.Equal(t, AccountNumber(pub), a.Admin())
}
