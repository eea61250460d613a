// Package blobstore keeps exported documents addressable for a short time so
// an application can preview them without writing files.
package blobstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// DefaultTTL is how long a blob stays retrievable.
const DefaultTTL = 15 * time.Minute

// DefaultBaseURL prefixes blob IDs in references.
const DefaultBaseURL = "/blobs/"

// Ref addresses a stored blob.
type Ref struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int       `json:"size"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Blob is stored content with its media type.
type Blob struct {
	Data        []byte
	ContentType string
}

// Store holds blobs until they expire.
type Store interface {
	Put(ctx context.Context, b Blob) (Ref, error)
	Get(ctx context.Context, id string) (Blob, bool, error) // blob, found, err
	Delete(ctx context.Context, id string) error
}

// Options are shared by the store implementations.
type Options struct {
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
}

func (o Options) resolved() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	return o
}

func (o Options) ref(id string, b Blob, now time.Time) Ref {
	return Ref{
		ID:          id,
		URL:         o.BaseURL + id,
		ContentType: b.ContentType,
		Size:        len(b.Data),
		ExpiresAt:   now.Add(o.TTL),
	}
}

// NewID returns a random 128-bit identifier in hex.
func NewID() string {
	var b [16]byte
	rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
