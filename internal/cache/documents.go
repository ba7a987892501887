package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

const documentPrefix = "doc"

// SourceHash is the cache identity of a source file's bytes.
func SourceHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentKey is the key a built document is cached under.
func DocumentKey(sourceHash string) string {
	return CacheKey(documentPrefix, sourceHash)
}

// DocumentCache stores built documents as JSON in a Client.
type DocumentCache struct {
	client Client
	ttl    time.Duration
}

func NewDocumentCache(client Client, ttl time.Duration) *DocumentCache {
	return &DocumentCache{client: client, ttl: ttl}
}

// Get returns the document built from the source with this hash, or
// ErrCacheMiss.
func (c *DocumentCache) Get(ctx context.Context, sourceHash string) (*specs.Document, error) {
	data, err := c.client.Get(ctx, DocumentKey(sourceHash))
	if err != nil {
		return nil, err
	}
	var doc specs.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// An undecodable entry is stale; drop it and report a miss.
		_ = c.client.Delete(ctx, DocumentKey(sourceHash))
		return nil, ErrCacheMiss
	}
	return &doc, nil
}

// Put caches doc under the source hash.
func (c *DocumentCache) Put(ctx context.Context, sourceHash string, doc *specs.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return c.client.Set(ctx, DocumentKey(sourceHash), data, c.ttl)
}

// Purge drops every cached document.
func (c *DocumentCache) Purge(ctx context.Context) error {
	return c.client.DeleteByPrefix(ctx, documentPrefix+":")
}
