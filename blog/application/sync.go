package application

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"github.com/rs/zerolog/log"
)

// SyncStatus is a point-in-time view of the coordinator.
type SyncStatus struct {
	Online           bool      `json:"online"`
	RemoteConfigured bool      `json:"remote_configured"`
	Degraded         bool      `json:"degraded"`
	Pending          int       `json:"pending"`
	LastSync         time.Time `json:"last_sync,omitzero"`
}

// SyncCoordinator routes each operation to the remote or the local store and owns the
// queue of post ids waiting to be replayed against the remote.
type SyncCoordinator struct {
	local  domain.LocalStore
	remote domain.RemoteStore

	mu       sync.Mutex
	online   bool
	degraded bool
	lastSync time.Time
	pending  map[string]struct{}
	handlers []func(ctx context.Context)

	// one replay at a time
	replayMu sync.Mutex
	now      func() time.Time
}

// NewSyncCoordinator restores the pending queue from local. remote may be nil.
func NewSyncCoordinator(ctx context.Context, local domain.LocalStore, remote domain.RemoteStore, online bool) *SyncCoordinator {
	c := &SyncCoordinator{
		local:   local,
		remote:  remote,
		online:  online,
		pending: make(map[string]struct{}),
		now:     time.Now,
	}

	ids, err := local.ReadPending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to restore pending sync queue")
	}
	for _, id := range ids {
		c.pending[id] = struct{}{}
	}

	return c
}

func (c *SyncCoordinator) RemoteConfigured() bool {
	return c.remote != nil
}

// Online reports whether the remote is configured and believed reachable.
func (c *SyncCoordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remote != nil && c.online
}

// OnReconnect registers fn to run whenever connectivity goes from offline to online.
func (c *SyncCoordinator) OnReconnect(fn func(ctx context.Context)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// SetOnline records a connectivity change. Reconnect handlers run on the caller's goroutine.
func (c *SyncCoordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	reconnected := !c.online && online
	c.online = online
	if online {
		c.degraded = false
	}
	handlers := slices.Clone(c.handlers)
	c.mu.Unlock()

	if !reconnected {
		return
	}

	log.Info().Int("pending", len(c.PendingIDs())).Msg("Remote store reachable again")
	for _, fn := range handlers {
		fn(ctx)
	}
}

// Load lists posts from the remote when online, otherwise from local.
// fromRemote tells the caller whether the result should be mirrored to local.
func (c *SyncCoordinator) Load(ctx context.Context, publishedOnly bool) (posts []*domain.Post, fromRemote bool, err error) {
	if c.Online() {
		if publishedOnly {
			posts, err = c.remote.ListPublished(ctx)
		} else {
			posts, err = c.remote.ListAll(ctx)
		}

		if err == nil {
			c.markSynced()
			return posts, true, nil
		}

		c.markDegraded()
		log.Warn().Err(err).Msg("Remote load failed, falling back to local store")
	}

	posts, err = c.local.ReadAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read local store")
		return nil, false, err
	}
	return posts, false, nil
}

// Save upserts p on the remote when possible. Otherwise p is queued for replay and a copy
// is returned for local persistence. synced reports which path was taken.
func (c *SyncCoordinator) Save(ctx context.Context, p *domain.Post) (stored *domain.Post, synced bool) {
	if c.Online() {
		result, err := c.remote.Upsert(ctx, p)
		if err == nil {
			c.mu.Lock()
			delete(c.pending, p.ID)
			c.lastSync = c.now()
			c.degraded = false
			c.mu.Unlock()
			return result, true
		}

		c.markDegraded()
		log.Warn().Err(err).Str("post", p.ID).Msg("Remote save failed, queued for replay")
	}

	if c.remote != nil {
		c.mu.Lock()
		c.pending[p.ID] = struct{}{}
		c.mu.Unlock()
	}

	return p.Clone(), false
}

// Persist writes the collection and the current pending queue to the local store.
func (c *SyncCoordinator) Persist(ctx context.Context, posts []*domain.Post) error {
	if err := c.local.WriteState(ctx, posts, c.PendingIDs()); err != nil {
		log.Error().Err(err).Int("posts", len(posts)).Msg("Failed to write local store")
		return fmt.Errorf("failed to persist posts locally: %w", err)
	}
	return nil
}

// Delete removes id from the remote when reachable and forgets any queued replay for it.
func (c *SyncCoordinator) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()

	if !c.Online() {
		return domain.ErrRemoteUnavailable
	}

	if err := c.remote.Delete(ctx, id); err != nil {
		c.markDegraded()
		log.Warn().Err(err).Str("post", id).Msg("Remote delete failed")
		return fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}
	return nil
}

func (c *SyncCoordinator) IncrementViews(ctx context.Context, id string) error {
	return c.counter(ctx, id, "view", func(ctx context.Context) error {
		return c.remote.IncrementViews(ctx, id)
	})
}

func (c *SyncCoordinator) SetLikeCount(ctx context.Context, id string, count int) error {
	return c.counter(ctx, id, "like", func(ctx context.Context) error {
		return c.remote.SetLikeCount(ctx, id, count)
	})
}

// counter runs a best-effort counter update. Failures are never queued.
func (c *SyncCoordinator) counter(ctx context.Context, id, kind string, fn func(ctx context.Context) error) error {
	if !c.Online() {
		return domain.ErrRemoteUnavailable
	}

	if err := fn(ctx); err != nil {
		c.markDegraded()
		log.Warn().Err(err).Str("post", id).Str("counter", kind).Msg("Remote counter update dropped")
		return err
	}
	return nil
}

// Replay upserts the current version of every queued post. lookup returns the in-memory
// post for an id; ids it no longer knows are dropped from the queue. Posts that fail
// stay queued. The returned posts are the remote's stored representations.
func (c *SyncCoordinator) Replay(ctx context.Context, lookup func(id string) (*domain.Post, bool)) ([]*domain.Post, error) {
	if c.remote == nil {
		return nil, nil
	}

	c.replayMu.Lock()
	defer c.replayMu.Unlock()

	if !c.Online() {
		return nil, domain.ErrRemoteUnavailable
	}

	var synced []*domain.Post
	var errs []error
	for _, id := range c.PendingIDs() {
		p, ok := lookup(id)
		if !ok {
			c.dequeue(id)
			continue
		}

		stored, err := c.remote.Upsert(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to replay post %s: %w", id, err))
			continue
		}

		c.dequeue(id)
		synced = append(synced, stored)
	}

	if len(errs) > 0 {
		c.markDegraded()
		err := errors.Join(errs...)
		log.Warn().Err(err).Int("synced", len(synced)).Int("failed", len(errs)).Msg("Replay incomplete")
		return synced, err
	}

	c.markSynced()
	if len(synced) > 0 {
		log.Info().Int("synced", len(synced)).Msg("Replayed offline changes")
	}
	return synced, nil
}

// PendingIDs returns the queued ids in sorted order.
func (c *SyncCoordinator) PendingIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.pending))
}

func (c *SyncCoordinator) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return SyncStatus{
		Online:           c.remote != nil && c.online,
		RemoteConfigured: c.remote != nil,
		Degraded:         c.degraded,
		Pending:          len(c.pending),
		LastSync:         c.lastSync,
	}
}

func (c *SyncCoordinator) dequeue(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

func (c *SyncCoordinator) markDegraded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded = true
}

func (c *SyncCoordinator) markSynced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.degraded = false
	c.lastSync = c.now()
}
