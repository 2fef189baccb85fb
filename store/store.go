package store

import (
	"context"
	"time"
)

// Fixed keys for the resume state.
const (
	LastDraftID   = "LastDraftId"
	LastPreviewID = "LastPreviewId"
)

// DraftKey returns the key a draft is persisted under.
func DraftKey(id string) string { return "drafts/" + id }

// ContextStore provides typed state persistence.
//
// The key is an opaque string; the consumer decides the key schema.
// TTL of 0 means no expiration.
type ContextStore[C any] interface {
	// Load retrieves state. Returns (nil, nil) if key doesn't exist.
	Load(ctx context.Context, key string) (*C, error)
	// Save persists state with optional TTL.
	Save(ctx context.Context, key string, val *C, ttl time.Duration) error
	// Delete removes state. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
