package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status controls public visibility of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post represents a blog post.
// Content is markdown source. ViewCount and LikeCount are only adjusted through the
// dedicated counter operations, never through a full save.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Status    Status    `json:"status"`
	ViewCount int       `json:"view_count"`
	LikeCount int       `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished reports whether the post is visible on the public feed.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

// Clone returns a deep copy of the post.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	c := *p
	c.Tags = slices.Clone(p.Tags)
	return &c
}

// ValidateDraft checks the fields a caller must supply before a save.
func (p *Post) ValidateDraft() error {
	if p == nil {
		return fmt.Errorf("%w: post cannot be nil", ErrInvalidPost)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidPost)
	}
	if strings.TrimSpace(p.Excerpt) == "" {
		return fmt.Errorf("%w: excerpt cannot be empty", ErrInvalidPost)
	}
	if strings.TrimSpace(p.Content) == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidPost)
	}
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPost, p.Status)
	}
	return nil
}

// Validate checks a stored post. Adapters call it on everything they decode so a
// malformed record fails loudly instead of reaching the renderer half-empty.
func (p *Post) Validate() error {
	if err := p.ValidateDraft(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidPost)
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: post %s has unknown status %q", ErrInvalidPost, p.ID, p.Status)
	}
	if p.ViewCount < 0 || p.LikeCount < 0 {
		return fmt.Errorf("%w: post %s has a negative counter", ErrInvalidPost, p.ID)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("%w: post %s has no created_at", ErrInvalidPost, p.ID)
	}
	return nil
}

// LocalStore persists the whole collection and the pending-sync queue on this host.
type LocalStore interface {
	// ReadAll returns nil with no error when nothing has been stored yet.
	ReadAll(ctx context.Context) ([]*Post, error)
	WriteAll(ctx context.Context, posts []*Post) error

	ReadPending(ctx context.Context) ([]string, error)
	WritePending(ctx context.Context, ids []string) error

	// WriteState stores the collection and the pending queue atomically.
	WriteState(ctx context.Context, posts []*Post, pending []string) error
}

// RemoteStore is the hosted source of truth.
type RemoteStore interface {
	// ListPublished filters on status server-side, newest first.
	ListPublished(ctx context.Context) ([]*Post, error)
	ListAll(ctx context.Context) ([]*Post, error)

	// Upsert inserts or replaces by id and returns the stored representation.
	// Counters are never written by an upsert.
	Upsert(ctx context.Context, p *Post) (*Post, error)
	Delete(ctx context.Context, id string) error

	// IncrementViews must be atomic on the remote side.
	IncrementViews(ctx context.Context, id string) error
	SetLikeCount(ctx context.Context, id string, count int) error

	Ping(ctx context.Context) error
}

// KeyValueStore is a persistent string store, the server-side stand-in for browser storage.
type KeyValueStore interface {
	// Get reports false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetMany(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, key string) error
}
