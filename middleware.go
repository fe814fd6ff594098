package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/sha3"

	"github.com/reviewmark/review-attest/attest"
)

// signatureWindow bounds how stale a signed request may be.
const signatureWindow = 5 * time.Minute

// requireSignature authenticates the caller and binds the signature to
// what the request does. Requests carry three headers: requester
// (account number), timestamp (unix milliseconds) and signature (hex
// ed25519, signed with the requester's registered key). The signed
// message is action, the named route params, a SHA3-256 hash of the
// body for bodied requests, then requester and timestamp, joined with
// "|", so a captured signature cannot be replayed against a different
// resource or payload. The verified account number is stored in the
// context for the handler.
func requireSignature(action string, params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requester := c.GetHeader("requester")
		ts := c.GetHeader("timestamp")
		sig := c.GetHeader("signature")

		if requester == "" || ts == "" || sig == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "missing signature headers"})
			return
		}

		millis, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "invalid timestamp"})
			return
		}
		issued := time.UnixMilli(millis)
		if d := time.Since(issued); d > signatureWindow || d < -signatureWindow {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "signature timestamp out of range"})
			return
		}

		pub, err := authority.AccountKey(requester)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "requester not registered"})
			return
		}

		rawSig, err := hex.DecodeString(sig)
		if err != nil || len(rawSig) != ed25519.SignatureSize {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "malformed signature"})
			return
		}

		parts := []string{action}
		for _, p := range params {
			parts = append(parts, c.Param(p))
		}
		if c.Request.ContentLength != 0 {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "unreadable request body"})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha3.Sum256(body)
			parts = append(parts, hex.EncodeToString(sum[:]))
		}
		parts = append(parts, requester, ts)

		message := strings.Join(parts, "|")
		if !ed25519.Verify(pub, []byte(message), rawSig) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": "NOT_AUTHORIZED", "error": "signature verification failed"})
			return
		}

		c.Set("requester", requester)
		c.Next()
	}
}

func checkErr(c *gin.Context, err error) {
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, attest.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"code": "NOT_AUTHORIZED", "error": err.Error()})
	case errors.Is(err, attest.ErrDuplicateKey):
		c.JSON(http.StatusConflict, gin.H{"code": "DUPLICATE_KEY", "error": err.Error()})
	case errors.Is(err, attest.ErrNameCollision):
		c.JSON(http.StatusConflict, gin.H{"code": "NAME_COLLISION", "error": err.Error()})
	case errors.Is(err, attest.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "error": err.Error()})
	case errors.Is(err, attest.ErrAlreadyRevoked):
		c.JSON(http.StatusGone, gin.H{"code": "ALREADY_REVOKED", "error": err.Error()})
	default:
		log.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "error": err.Error()})
	}
}
