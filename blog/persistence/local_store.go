package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dfryer1193/folio/blog/domain"
)

var _ domain.LocalStore = (*LocalStore)(nil)

const (
	PostsKey   = "portfolio_blogs"
	PendingKey = "pending_blog_sync"

	// DefaultQuotaBytes matches the usual per-origin browser storage limit.
	DefaultQuotaBytes = 5 << 20
)

// LocalStore keeps the JSON encoded collection and pending queue in a key/value store.
// Quota covers both managed keys together.
type LocalStore struct {
	kv         domain.KeyValueStore
	quotaBytes int
}

// NewLocalStore wraps kv. A non-positive quota disables the size check.
func NewLocalStore(kv domain.KeyValueStore, quotaBytes int) *LocalStore {
	return &LocalStore{
		kv:         kv,
		quotaBytes: quotaBytes,
	}
}

func (s *LocalStore) ReadAll(ctx context.Context) ([]*domain.Post, error) {
	raw, ok, err := s.kv.Get(ctx, PostsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var posts []*domain.Post
	if err := json.Unmarshal([]byte(raw), &posts); err != nil {
		return nil, fmt.Errorf("failed to decode stored posts: %w", err)
	}

	for i, p := range posts {
		if p == nil {
			return nil, fmt.Errorf("%w: stored post %d is null", domain.ErrInvalidPost, i)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("stored post %d: %w", i, err)
		}
	}
	return posts, nil
}

func (s *LocalStore) WriteAll(ctx context.Context, posts []*domain.Post) error {
	encoded, err := encodePosts(posts)
	if err != nil {
		return err
	}
	if err := s.checkQuota(ctx, PostsKey, encoded); err != nil {
		return err
	}
	return s.kv.Set(ctx, PostsKey, encoded)
}

func (s *LocalStore) ReadPending(ctx context.Context) ([]string, error) {
	raw, ok, err := s.kv.Get(ctx, PendingKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode pending queue: %w", err)
	}
	return ids, nil
}

func (s *LocalStore) WritePending(ctx context.Context, ids []string) error {
	encoded, err := encodeIDs(ids)
	if err != nil {
		return err
	}
	if err := s.checkQuota(ctx, PendingKey, encoded); err != nil {
		return err
	}
	return s.kv.Set(ctx, PendingKey, encoded)
}

func (s *LocalStore) WriteState(ctx context.Context, posts []*domain.Post, pending []string) error {
	encodedPosts, err := encodePosts(posts)
	if err != nil {
		return err
	}
	encodedIDs, err := encodeIDs(pending)
	if err != nil {
		return err
	}

	if s.quotaBytes > 0 && len(encodedPosts)+len(encodedIDs) > s.quotaBytes {
		return fmt.Errorf("%w: %d bytes over a %d byte quota",
			domain.ErrQuotaExceeded, len(encodedPosts)+len(encodedIDs), s.quotaBytes)
	}

	return s.kv.SetMany(ctx, map[string]string{
		PostsKey:   encodedPosts,
		PendingKey: encodedIDs,
	})
}

// checkQuota measures value plus whatever the other managed key holds now.
func (s *LocalStore) checkQuota(ctx context.Context, key, value string) error {
	if s.quotaBytes <= 0 {
		return nil
	}

	other := PendingKey
	if key == PendingKey {
		other = PostsKey
	}
	existing, _, err := s.kv.Get(ctx, other)
	if err != nil {
		return err
	}

	if total := len(value) + len(existing); total > s.quotaBytes {
		return fmt.Errorf("%w: %d bytes over a %d byte quota", domain.ErrQuotaExceeded, total, s.quotaBytes)
	}
	return nil
}

func encodePosts(posts []*domain.Post) (string, error) {
	if posts == nil {
		posts = []*domain.Post{}
	}
	b, err := json.Marshal(posts)
	if err != nil {
		return "", fmt.Errorf("failed to encode posts: %w", err)
	}
	return string(b), nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode pending queue: %w", err)
	}
	return string(b), nil
}
