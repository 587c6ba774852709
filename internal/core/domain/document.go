package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document represents a knowledge-base article that can be retrieved
// and packed into prompt context.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Summary is an optional short abstract.
	Summary string

	// Body is the full article text.
	Body string

	// Tags are free-form labels.
	Tags []string

	// TenantID is the owning organisation. Empty means the document is global
	// and visible to every tenant.
	TenantID string

	// Published controls visibility to retrieval. Drafts are never returned.
	Published bool

	// Embedding is the stored vector, nil when not yet generated.
	Embedding []float32

	// ContentHash is the hash of Title, Summary and Body at the time
	// Embedding was generated.
	ContentHash string

	// CreatedAt is when the document was first stored.
	CreatedAt time.Time

	// UpdatedAt is when the document was last stored.
	UpdatedAt time.Time
}

// IsGlobal reports whether the document belongs to no tenant.
func (d *Document) IsGlobal() bool {
	return d.TenantID == ""
}

// HasEmbedding reports whether a vector is stored for the document.
func (d *Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// EmbeddingText returns the text a document embedding is generated from.
func (d *Document) EmbeddingText() string {
	text := d.Title
	if d.Summary != "" {
		text += "\n\n" + d.Summary
	}
	if d.Body != "" {
		text += "\n\n" + d.Body
	}
	return text
}

// ComputeContentHash hashes the fields that feed the embedding. Any change to
// them produces a different hash and therefore a full re-embed.
func (d *Document) ComputeContentHash() string {
	h := sha256.New()
	h.Write([]byte(d.Title))
	h.Write([]byte{0})
	h.Write([]byte(d.Summary))
	h.Write([]byte{0})
	h.Write([]byte(d.Body))
	return hex.EncodeToString(h.Sum(nil))
}

// NeedsEmbedding reports whether the stored vector is missing or stale.
func (d *Document) NeedsEmbedding() bool {
	return !d.HasEmbedding() || d.ContentHash != d.ComputeContentHash()
}

// EmbeddedDocument pairs a document with its stored vector in whatever
// encoding the store returned it. Parsing is left to the caller so a single
// malformed row can be skipped without failing the whole read.
type EmbeddedDocument struct {
	Document Document

	// RawEmbedding is a native numeric array ([]float32, []float64, []any),
	// a bracketed comma-separated string, or a little-endian float32 blob.
	RawEmbedding any
}
