package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/reviewmark/review-attest/attest"
	"github.com/reviewmark/review-attest/client"
)

var loggerOnce sync.Once

func setupLogger(t *testing.T) {
	loggerOnce.Do(func() {
		dir, err := os.MkdirTemp("", "review-attest-log")
		if err != nil {
			t.Fatalf("unable to create log dir: %v", err)
		}
		initLogger(dir, "error")
		log = logger.New("test")
	})
}

// newTestServer wires the globals the handlers read and serves the
// full route table. Returns the server and the administrator's key.
func newTestServer(t *testing.T) (*httptest.Server, ed25519.PrivateKey) {
	t.Helper()
	setupLogger(t)
	gin.SetMode(gin.TestMode)

	db = openDB(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { db.Close() })

	adminPub, adminPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	authority, err = attest.Open(db, attest.AccountNumber(adminPub))
	require.NoError(t, err)

	r := gin.New()
	registerRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, adminPriv
}

func newReviewerClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	c := client.New(srv.URL, priv)
	account, err := c.Register()
	require.NoError(t, err)
	require.Equal(t, c.Account(), account)

	return c
}

var testReview = attest.ContentDescriptor{
	Platform: "shopfront",
	Subject:  "widget-9",
	Body:     "arrived on time, works as described",
}

func TestHTTPSubmitAndLookup(t *testing.T) {
	srv, _ := newTestServer(t)
	reviewer := newReviewerClient(t, srv)

	assetID, digest, err := reviewer.Submit(testReview, "product", map[string]string{"stars": "5"})
	require.NoError(t, err)
	assert.NotEmpty(t, assetID)

	exists, err := reviewer.Exists(digest)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := reviewer.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// repeat submission is rejected with a stable error code
	_, _, err = reviewer.Submit(testReview, "product", nil)
	var se *client.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.StatusCode)
	assert.Equal(t, "DUPLICATE_KEY", se.Code)
}

func TestHTTPSponsoredSubmit(t *testing.T) {
	srv, adminKey := newTestServer(t)
	admin := client.New(srv.URL, adminKey)
	reviewer := newReviewerClient(t, srv)

	assetID, digest, err := admin.SponsoredSubmit(reviewer.Account(), testReview, "product", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, assetID)

	exists, err := admin.Exists(digest)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHTTPSponsoredSubmitNotAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	reviewer := newReviewerClient(t, srv)
	other := newReviewerClient(t, srv)

	_, _, err := other.SponsoredSubmit(reviewer.Account(), testReview, "", nil)
	var se *client.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "NOT_AUTHORIZED", se.Code)
}

func TestHTTPDelete(t *testing.T) {
	srv, adminKey := newTestServer(t)
	admin := client.New(srv.URL, adminKey)
	reviewer := newReviewerClient(t, srv)

	_, digest, err := reviewer.Submit(testReview, "", nil)
	require.NoError(t, err)

	// the reviewer cannot revoke their own attestation
	err = reviewer.Delete(digest)
	var se *client.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)

	require.NoError(t, admin.Delete(digest))

	exists, err := admin.Exists(digest)
	require.NoError(t, err)
	assert.False(t, exists)

	err = admin.Delete(digest)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, "NOT_FOUND", se.Code)
}

func TestHTTPDeleteSignatureNotReplayable(t *testing.T) {
	srv, adminKey := newTestServer(t)
	admin := client.New(srv.URL, adminKey)
	reviewer := newReviewerClient(t, srv)

	_, digestA, err := reviewer.Submit(testReview, "", nil)
	require.NoError(t, err)
	otherReview := testReview
	otherReview.Body = "broke after a week"
	_, digestB, err := reviewer.Submit(otherReview, "", nil)
	require.NoError(t, err)

	// one valid admin signature for deleting digest A
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := strings.Join([]string{"deleteAttestation", digestA, admin.Account(), ts}, "|")
	sig := hex.EncodeToString(ed25519.Sign(adminKey, []byte(message)))

	doDelete := func(digest string) int {
		req, err := http.NewRequest("DELETE", srv.URL+"/attestations/"+digest, nil)
		require.NoError(t, err)
		req.Header.Add("requester", admin.Account())
		req.Header.Add("timestamp", ts)
		req.Header.Add("signature", sig)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, doDelete(digestA))

	// the captured headers must not authorize deleting anything else
	assert.Equal(t, http.StatusUnauthorized, doDelete(digestB))

	exists, err := admin.Exists(digestB)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHTTPSubmitSignatureBoundToBody(t *testing.T) {
	srv, _ := newTestServer(t)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	reviewer := client.New(srv.URL, priv)
	_, err = reviewer.Register()
	require.NoError(t, err)

	// a genuine signature over one request body, sent with another
	signed := []byte(`{"content":{"platform":"shopfront","subject":"widget-9","body":"five stars"}}`)
	sum := sha3.Sum256(signed)
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := strings.Join([]string{"submitAttestation", hex.EncodeToString(sum[:]), reviewer.Account(), ts}, "|")
	sig := hex.EncodeToString(ed25519.Sign(priv, []byte(message)))

	swapped := []byte(`{"content":{"platform":"shopfront","subject":"widget-9","body":"zero stars"}}`)
	req, err := http.NewRequest("POST", srv.URL+"/attestations", bytes.NewReader(swapped))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("requester", reviewer.Account())
	req.Header.Add("timestamp", ts)
	req.Header.Add("signature", sig)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	n, err := reviewer.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHTTPUnsignedRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/attestations", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPUnknownRequesterRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	// a valid signature from a key that never registered
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	unregistered := client.New(srv.URL, priv)

	_, _, err = unregistered.Submit(testReview, "", nil)
	var se *client.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestHTTPHealthAndCollection(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/collection")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
