package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
)

type accountRequest struct {
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// handleAccountRegistration registers a reviewer identity. The caller
// submits their ed25519 public key together with a possession proof:
// the key's own signature over its registration message. Keys stay
// with their holders; this service never custodies them.
func handleAccountRegistration() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accountRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": "invalid request body"})
			return
		}

		pub, err := hex.DecodeString(req.PublicKey)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": "invalid public key"})
			return
		}

		sig, err := hex.DecodeString(req.Signature)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": "invalid signature"})
			return
		}

		number, err := authority.RegisterAccount(ed25519.PublicKey(pub), sig)
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"account": number})
	}
}
