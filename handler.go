package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reviewmark/review-attest/attest"
)

type submitRequest struct {
	Content  attest.ContentDescriptor `json:"content"`
	Category string                   `json:"category"`
	Labels   map[string]string        `json:"labels"`
}

type sponsoredSubmitRequest struct {
	Recipient string                   `json:"recipient"`
	Content   attest.ContentDescriptor `json:"content"`
	Category  string                   `json:"category"`
	Labels    map[string]string        `json:"labels"`
}

func handleSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req submitRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": "invalid request body"})
			return
		}

		caller := c.GetString("requester")

		asset, err := authority.Submit(caller, caller, req.Content, req.Category, req.Labels)
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"asset_id": asset.ID, "digest": asset.Digest})
	}
}

func handleSponsoredSubmit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sponsoredSubmitRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": "invalid request body"})
			return
		}
		if req.Recipient == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": "recipient is required"})
			return
		}

		caller := c.GetString("requester")
		if caller != authority.Admin() {
			c.JSON(http.StatusForbidden, gin.H{"code": "NOT_AUTHORIZED", "error": "sponsored submission is restricted to the administrator"})
			return
		}

		asset, err := authority.Submit(caller, req.Recipient, req.Content, req.Category, req.Labels)
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"asset_id": asset.ID, "digest": asset.Digest})
	}
}

func handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := attest.ParseDigest(c.Param("digest"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
			return
		}

		if err := authority.Delete(c.GetString("requester"), d); err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"digest": d.String(), "deleted": true})
	}
}

func handleDeleteAsset() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := attest.AssetID(c.Param("assetId"))

		if err := authority.DeleteAsset(c.GetString("requester"), id); err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"asset_id": id, "deleted": true})
	}
}

func handleLookup() gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := attest.ParseDigest(c.Param("digest"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "error": err.Error()})
			return
		}

		asset, err := authority.Lookup(d)
		if errors.Is(err, attest.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"exists": false})
			return
		}
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"exists": true, "attestation": asset})
	}
}

func handleCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := authority.Count()
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

func handleCollection() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"collection": authority.Collection()})
	}
}

func handleSubmissionEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := authority.SubmissionEvents()
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

func handleDeletionEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := authority.DeletionEvents()
		if err != nil {
			checkErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
