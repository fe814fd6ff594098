package attest

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bitmark-inc/logger"
	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/require"
)

var loggerOnce sync.Once

func setupLogger(t *testing.T) {
	loggerOnce.Do(func() {
		dir, err := os.MkdirTemp("", "attest-log")
		if err != nil {
			t.Fatalf("unable to create log dir: %v", err)
		}
		err = logger.Initialise(logger.Configuration{
			Directory: dir,
			File:      "test.log",
			Size:      1048576,
			Count:     10,
			Levels:    map[string]string{logger.DefaultTag: "error"},
		})
		if err != nil {
			t.Fatalf("unable to init logger: %v", err)
		}
	})
}

func newTestAuthority(t *testing.T) *Authority {
	t.Helper()
	setupLogger(t)

	db, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adminPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	a, err := Open(db, AccountNumber(adminPub))
	require.NoError(t, err)
	return a
}

// newTestAccount registers a fresh reviewer identity and returns its
// account number and private key.
func newTestAccount(t *testing.T, a *Authority) (string, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	number, err := a.RegisterAccount(pub, ed25519.Sign(priv, RegistrationMessage(pub)))
	require.NoError(t, err)

	return number, priv
}
