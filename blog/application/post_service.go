package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PostService owns the in-memory collection, newest first, and is the only writer to it.
type PostService struct {
	coord *SyncCoordinator

	clock func() time.Time
	newID func() string
	seed  func() ([]*domain.Post, error)

	mu    sync.RWMutex
	posts []*domain.Post

	// orders local writes so the last one carries the newest snapshot
	persistMu sync.Mutex

	// serializes saves, deletes and replays so remote writes land in call order
	writeMu sync.Mutex

	// like updates send the latest in-memory count one at a time
	likeMu sync.Mutex

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

type Option func(*PostService)

func WithClock(clock func() time.Time) Option {
	return func(s *PostService) { s.clock = clock }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *PostService) { s.newID = newID }
}

// WithSeedPosts sets the posts written to an empty local store. nil disables seeding.
func WithSeedPosts(seed func() ([]*domain.Post, error)) Option {
	return func(s *PostService) { s.seed = seed }
}

func NewPostService(coord *SyncCoordinator, opts ...Option) *PostService {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PostService{
		coord:  coord,
		clock:  time.Now,
		newID:  NewPostID,
		ctx:    ctx,
		cancel: cancel,
		wg:     &sync.WaitGroup{},
	}
	for _, opt := range opts {
		opt(s)
	}

	coord.OnReconnect(func(ctx context.Context) {
		if _, err := s.Sync(ctx); err != nil {
			log.Warn().Err(err).Msg("Replay after reconnect incomplete")
		}
	})

	return s
}

// NewPostID builds a client-side id from the current time and a random suffix.
func NewPostID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("blog_%d_%s", time.Now().UnixMilli(), suffix)
}

// Close waits for in-flight counter updates to finish
func (s *PostService) Close() error {
	s.wg.Wait()
	s.cancel()

	return nil
}

// LoadAll replaces the collection with the remote's full list, mirroring it locally,
// or with the local copy when the remote is unreachable. Posts still waiting for replay
// keep their in-memory version.
func (s *PostService) LoadAll(ctx context.Context) error {
	posts, fromRemote, err := s.coord.Load(ctx, false)
	if err != nil {
		return err
	}

	if fromRemote {
		s.replace(s.withPending(posts))
		s.persist(ctx)
		return nil
	}
	return s.loadLocal(ctx, posts)
}

// withPending overlays queued posts from memory onto a remote listing.
func (s *PostService) withPending(posts []*domain.Post) []*domain.Post {
	for _, id := range s.coord.PendingIDs() {
		p, ok := s.Get(id)
		if !ok {
			continue
		}
		if idx := slices.IndexFunc(posts, func(q *domain.Post) bool { return q.ID == id }); idx >= 0 {
			posts[idx] = p
		} else {
			posts = append(posts, p)
		}
	}
	return posts
}

// LoadPublished refreshes the published posts. Drafts already in memory are kept but
// never returned from the public read path, and queued posts keep their in-memory
// version whatever their status. Nothing is mirrored locally since the remote result
// is incomplete.
func (s *PostService) LoadPublished(ctx context.Context) error {
	posts, fromRemote, err := s.coord.Load(ctx, true)
	if err != nil {
		return err
	}
	if !fromRemote {
		return s.loadLocal(ctx, posts)
	}

	pending := s.coord.PendingIDs()

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]*domain.Post, 0, len(posts)+len(s.posts))
	for _, p := range posts {
		if p.IsPublished() && !slices.Contains(pending, p.ID) {
			merged = append(merged, p.Clone())
		}
	}
	for _, p := range s.posts {
		queued := slices.Contains(pending, p.ID)
		if queued || (!p.IsPublished() && !containsID(merged, p.ID)) {
			merged = append(merged, p)
		}
	}
	sortNewestFirst(merged)
	s.posts = merged
	return nil
}

// loadLocal installs posts read from the local store, seeding sample posts when the
// store has never been written.
func (s *PostService) loadLocal(ctx context.Context, posts []*domain.Post) error {
	if posts != nil || s.seed == nil {
		s.replace(posts)
		return nil
	}

	seeded, err := s.seed()
	if err != nil {
		return fmt.Errorf("failed to load sample posts: %w", err)
	}
	log.Info().Int("posts", len(seeded)).Msg("Local store empty, seeding sample posts")
	s.replace(seeded)
	s.persist(ctx)
	return nil
}

// Save creates or updates a post. A missing id creates; an unknown id is created under
// that id. The returned post is a copy of what is now in memory.
// A local persistence failure is logged and does not fail the save.
func (s *PostService) Save(ctx context.Context, draft *domain.Post) (*domain.Post, error) {
	if err := draft.ValidateDraft(); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p := draft.Clone()
	now := s.clock().UTC()

	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	if existing, ok := s.Get(p.ID); ok && p.ID != "" {
		p.CreatedAt = existing.CreatedAt
		p.ViewCount = existing.ViewCount
		p.LikeCount = existing.LikeCount
	} else {
		if p.ID == "" {
			p.ID = s.newID()
		}
		p.CreatedAt = now
		p.ViewCount = 0
		p.LikeCount = 0
	}
	p.UpdatedAt = now

	stored, synced := s.coord.Save(ctx, p)
	if synced {
		// counters are never written by a save, keep the local view of them
		stored.ViewCount = p.ViewCount
		stored.LikeCount = p.LikeCount
	}

	s.upsert(p.ID, stored)
	s.persist(ctx)

	return stored.Clone(), nil
}

// Delete removes the post from memory first, then from whichever stores accept it.
// Deleting an unknown id is a no-op. ErrNotPersisted means neither store took the delete.
func (s *PostService) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := slices.IndexFunc(s.posts, func(p *domain.Post) bool { return p.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.posts = slices.Delete(s.posts, idx, idx+1)
	s.mu.Unlock()

	remoteErr := s.coord.Delete(ctx, id)
	localErr := s.persist(ctx)

	if remoteErr != nil && localErr != nil {
		return fmt.Errorf("%w: post %s: %w", domain.ErrNotPersisted, id, errors.Join(remoteErr, localErr))
	}
	return nil
}

// IncrementView bumps the in-memory count and fires the remote increment without waiting.
func (s *PostService) IncrementView(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	p := s.find(id)
	if p == nil {
		s.mu.Unlock()
		return 0, domain.ErrNotFound
	}
	p.ViewCount++
	count := p.ViewCount
	s.mu.Unlock()

	s.background(func(ctx context.Context) {
		s.coord.IncrementViews(ctx, id)
	})
	s.persist(ctx)

	return count, nil
}

// ToggleLike flips the caller's like state and adjusts the count by one, never below zero.
// It returns the new count and the new liked state.
func (s *PostService) ToggleLike(ctx context.Context, id string, liked bool) (int, bool, error) {
	s.mu.Lock()
	p := s.find(id)
	if p == nil {
		s.mu.Unlock()
		return 0, liked, domain.ErrNotFound
	}
	if liked {
		p.LikeCount = max(0, p.LikeCount-1)
	} else {
		p.LikeCount++
	}
	count := p.LikeCount
	s.mu.Unlock()

	s.background(func(ctx context.Context) {
		s.likeMu.Lock()
		defer s.likeMu.Unlock()
		if current, ok := s.Get(id); ok {
			s.coord.SetLikeCount(ctx, id, current.LikeCount)
		}
	})
	s.persist(ctx)

	return count, !liked, nil
}

// Sync replays the offline queue and folds the stored results back into memory.
// Saves and deletes issued meanwhile wait for it, so a replay never sends or folds back
// an older version over a newer one.
func (s *PostService) Sync(ctx context.Context) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	synced, err := s.coord.Replay(ctx, s.Get)

	for _, stored := range synced {
		current, ok := s.Get(stored.ID)
		if !ok {
			continue
		}
		stored.ViewCount = current.ViewCount
		stored.LikeCount = current.LikeCount
		s.upsert(stored.ID, stored)
	}
	s.persist(ctx)

	return len(synced), err
}

// Get returns a copy of the post with id.
func (s *PostService) Get(id string) (*domain.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.find(id); p != nil {
		return p.Clone(), true
	}
	return nil, false
}

// GetPublished is Get restricted to published posts.
func (s *PostService) GetPublished(id string) (*domain.Post, bool) {
	p, ok := s.Get(id)
	if !ok || !p.IsPublished() {
		return nil, false
	}
	return p, true
}

// All returns copies of every post in collection order.
func (s *PostService) All() []*domain.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePosts(s.posts)
}

// List filters the whole collection.
func (s *PostService) List(query string, status StatusFilter) []*domain.Post {
	return Filter(s.All(), query, status)
}

// Published filters the public collection. Drafts are removed whatever the stores returned.
func (s *PostService) Published(query string) []*domain.Post {
	return Filter(s.All(), query, FilterPublished)
}

// Recent returns up to n published posts.
func (s *PostService) Recent(n int) []*domain.Post {
	published := s.Published("")
	if n >= 0 && len(published) > n {
		published = published[:n]
	}
	return published
}

type Stats struct {
	Posts int `json:"posts"`
	Views int `json:"views"`
	Likes int `json:"likes"`
}

// Stats totals the published posts.
func (s *PostService) Stats() Stats {
	var st Stats
	for _, p := range s.Published("") {
		st.Posts++
		st.Views += p.ViewCount
		st.Likes += p.LikeCount
	}
	return st
}

func (s *PostService) Status() SyncStatus {
	return s.coord.Status()
}

// background runs fn on the service context so Close can wait for it.
func (s *PostService) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *PostService) persist(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	return s.coord.Persist(ctx, s.All())
}

func (s *PostService) replace(posts []*domain.Post) {
	fresh := clonePosts(posts)
	sortNewestFirst(fresh)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = fresh
}

// upsert replaces the entry for id in place, or prepends a new one.
func (s *PostService) upsert(id string, p *domain.Post) {
	p = p.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := slices.IndexFunc(s.posts, func(q *domain.Post) bool { return q.ID == id }); idx >= 0 {
		s.posts[idx] = p
		return
	}
	s.posts = slices.Insert(s.posts, 0, p)
}

// find must be called with mu held
func (s *PostService) find(id string) *domain.Post {
	for _, p := range s.posts {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func containsID(posts []*domain.Post, id string) bool {
	return slices.ContainsFunc(posts, func(p *domain.Post) bool { return p.ID == id })
}

func clonePosts(posts []*domain.Post) []*domain.Post {
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Clone())
	}
	return out
}

func sortNewestFirst(posts []*domain.Post) {
	slices.SortStableFunc(posts, func(a, b *domain.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
