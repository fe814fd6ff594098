// Package client is a Go client for the review-attest service. It
// holds the caller's ed25519 key and signs requests with the
// requester/timestamp/signature header scheme the service verifies.
package client

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/reviewmark/review-attest/attest"
)

type Client struct {
	client   *http.Client
	endpoint string

	account string
	key     ed25519.PrivateKey
}

// New creates a client for an identity. The key never leaves the
// process; only signatures do.
func New(endpoint string, key ed25519.PrivateKey) *Client {
	return &Client{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: strings.TrimSuffix(endpoint, "/"),
		account:  attest.AccountNumber(key.Public().(ed25519.PublicKey)),
		key:      key,
	}
}

// Account returns the client identity's account number.
func (c *Client) Account() string {
	return c.account
}

// newSignedRequest signs action, the resource identifiers the request
// targets, and a hash of the body when one is sent, so the signature
// authorizes this request and nothing else.
func (c *Client) newSignedRequest(action, method, path string, body []byte, parts ...string) (*http.Request, error) {
	message := []string{action}
	message = append(message, parts...)

	var reader io.Reader
	if body != nil {
		sum := sha3.Sum256(body)
		message = append(message, hex.EncodeToString(sum[:]))
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message = append(message, c.account, ts)
	sig := hex.EncodeToString(ed25519.Sign(c.key, []byte(strings.Join(message, "|"))))

	req.Header.Add("requester", c.account)
	req.Header.Add("timestamp", ts)
	req.Header.Add("signature", sig)

	return req, nil
}

// ServiceError is a non-2xx response from the service.
type ServiceError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%d %s] %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) submitRequest(req *http.Request, result interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode/100 != 2 {
		var se ServiceError
		if e := json.Unmarshal(data, &se); e != nil {
			return fmt.Errorf("unexpected response: %s", string(data))
		}
		se.StatusCode = resp.StatusCode
		return &se
	}

	if result != nil {
		if err = json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unexpected response: %s", string(data))
		}
	}

	return nil
}

// Register registers the client's public key with the service.
func (c *Client) Register() (string, error) {
	pub := c.key.Public().(ed25519.PublicKey)
	body, err := json.Marshal(map[string]string{
		"public_key": hex.EncodeToString(pub),
		"signature":  hex.EncodeToString(ed25519.Sign(c.key, attest.RegistrationMessage(pub))),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", c.endpoint+"/accounts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		Account string `json:"account"`
	}
	if err := c.submitRequest(req, &result); err != nil {
		return "", err
	}
	return result.Account, nil
}

type submitResult struct {
	AssetID string `json:"asset_id"`
	Digest  string `json:"digest"`
}

// Submit attests a piece of review content in the caller's own name.
func (c *Client) Submit(content attest.ContentDescriptor, category string, labels map[string]string) (assetID, digest string, err error) {
	body, err := json.Marshal(map[string]interface{}{
		"content":  content,
		"category": category,
		"labels":   labels,
	})
	if err != nil {
		return "", "", err
	}

	req, err := c.newSignedRequest("submitAttestation", "POST", "/attestations", body)
	if err != nil {
		return "", "", err
	}

	var result submitResult
	if err := c.submitRequest(req, &result); err != nil {
		return "", "", err
	}
	return result.AssetID, result.Digest, nil
}

// SponsoredSubmit attests content on a reviewer's behalf. Only the
// administrator's client succeeds.
func (c *Client) SponsoredSubmit(recipient string, content attest.ContentDescriptor, category string, labels map[string]string) (assetID, digest string, err error) {
	body, err := json.Marshal(map[string]interface{}{
		"recipient": recipient,
		"content":   content,
		"category":  category,
		"labels":    labels,
	})
	if err != nil {
		return "", "", err
	}

	req, err := c.newSignedRequest("sponsorAttestation", "POST", "/attestations/sponsored", body)
	if err != nil {
		return "", "", err
	}

	var result submitResult
	if err := c.submitRequest(req, &result); err != nil {
		return "", "", err
	}
	return result.AssetID, result.Digest, nil
}

// Delete revokes the attestation for a digest. Administrator only.
func (c *Client) Delete(digest string) error {
	req, err := c.newSignedRequest("deleteAttestation", "DELETE", "/attestations/"+digest, nil, digest)
	if err != nil {
		return err
	}
	return c.submitRequest(req, nil)
}

// DeleteAsset revokes by asset identity. Administrator only.
func (c *Client) DeleteAsset(assetID string) error {
	req, err := c.newSignedRequest("deleteAsset", "DELETE", "/assets/"+assetID, nil, assetID)
	if err != nil {
		return err
	}
	return c.submitRequest(req, nil)
}

// Exists reports whether a live attestation is registered for a digest.
func (c *Client) Exists(digest string) (bool, error) {
	req, err := http.NewRequest("GET", c.endpoint+"/attestations/"+digest, nil)
	if err != nil {
		return false, err
	}

	var result struct {
		Exists bool `json:"exists"`
	}
	if err := c.submitRequest(req, &result); err != nil {
		return false, err
	}
	return result.Exists, nil
}

// Count reports the number of live attestations.
func (c *Client) Count() (int, error) {
	req, err := http.NewRequest("GET", c.endpoint+"/attestations/count", nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Count int `json:"count"`
	}
	if err := c.submitRequest(req, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}
