package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"github.com/dfryer1193/folio/blog/persistence"
)

type testEnv struct {
	svc    *PostService
	coord  *SyncCoordinator
	local  *persistence.LocalStore
	remote *fakeRemote
	now    time.Time
}

// newTestEnv wires a service over an in-memory local store. remote may be nil.
func newTestEnv(t *testing.T, remote *fakeRemote, online bool, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()
	local := newLocal(0)

	var rs domain.RemoteStore
	if remote != nil {
		rs = remote
	}
	coord := NewSyncCoordinator(ctx, local, rs, online)

	env := &testEnv{coord: coord, local: local, remote: remote, now: baseTime}

	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		env.now = env.now.Add(time.Minute)
		return env.now
	}
	seq := 0
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}

	opts = append([]Option{WithClock(clock), WithIDGenerator(ids)}, opts...)
	env.svc = NewPostService(coord, opts...)
	t.Cleanup(func() { env.svc.Close() })
	return env
}

func draftInput(title string) *domain.Post {
	return &domain.Post{
		Title:   title,
		Excerpt: "excerpt of " + title,
		Content: "content of " + title,
		Tags:    []string{"x"},
		Status:  domain.StatusDraft,
	}
}

func TestNewPostID(t *testing.T) {
	pattern := regexp.MustCompile(`^blog_\d+_[0-9a-f]{9}$`)
	a, b := NewPostID(), NewPostID()
	if !pattern.MatchString(a) {
		t.Errorf("NewPostID() = %q, want it to match %s", a, pattern)
	}
	if a == b {
		t.Error("Expected distinct ids")
	}
}

func TestPostService_SaveCreate(t *testing.T) {
	env := newTestEnv(t, nil, false)
	ctx := context.Background()

	first, err := env.svc.Save(ctx, draftInput("first"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second, err := env.svc.Save(ctx, draftInput("second"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if first.ID != "id-1" || second.ID != "id-2" {
		t.Errorf("ids = %s, %s, want id-1, id-2", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || !first.CreatedAt.Equal(first.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v, want equal non-zero", first.CreatedAt, first.UpdatedAt)
	}

	// newest first
	if got := postIDs(env.svc.All()); !slices.Equal(got, []string{"id-2", "id-1"}) {
		t.Errorf("All() ids = %v, want [id-2 id-1]", got)
	}

	stored, err := env.local.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if got := postIDs(stored); !slices.Equal(got, []string{"id-2", "id-1"}) {
		t.Errorf("local ids = %v, want [id-2 id-1]", got)
	}
}

func TestPostService_SaveUpdate(t *testing.T) {
	env := newTestEnv(t, nil, false)
	ctx := context.Background()

	created, _ := env.svc.Save(ctx, draftInput("first"))
	env.svc.IncrementView(ctx, created.ID)

	edit := created.Clone()
	edit.Title = "renamed"
	edit.Status = domain.StatusPublished
	edit.CreatedAt = time.Time{}
	edit.ViewCount = 0

	updated, err := env.svc.Save(ctx, edit)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", updated.CreatedAt, created.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want after %v", updated.UpdatedAt, created.UpdatedAt)
	}
	if updated.ViewCount != 1 {
		t.Errorf("ViewCount = %d, want 1 (saves never touch counters)", updated.ViewCount)
	}
	if len(env.svc.All()) != 1 {
		t.Errorf("collection size = %d, want 1", len(env.svc.All()))
	}

	// published back to draft is an ordinary edit
	edit = updated.Clone()
	edit.Status = domain.StatusDraft
	if _, err := env.svc.Save(ctx, edit); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got, _ := env.svc.Get(created.ID); got.Status != domain.StatusDraft {
		t.Errorf("Status = %s, want draft", got.Status)
	}
}

func TestPostService_SaveRejectsInvalid(t *testing.T) {
	remote := newFakeRemote()
	env := newTestEnv(t, remote, true)
	ctx := context.Background()

	tests := []struct {
		name string
		post *domain.Post
	}{
		{name: "nil", post: nil},
		{name: "blank title", post: &domain.Post{Title: "  ", Excerpt: "e", Content: "c"}},
		{name: "missing excerpt", post: &domain.Post{Title: "t", Content: "c"}},
		{name: "missing content", post: &domain.Post{Title: "t", Excerpt: "e"}},
		{name: "bad status", post: &domain.Post{Title: "t", Excerpt: "e", Content: "c", Status: "archived"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.Save(ctx, tt.post); !errors.Is(err, domain.ErrInvalidPost) {
				t.Errorf("Save error = %v, want %v", err, domain.ErrInvalidPost)
			}
		})
	}

	if remote.upsertCount() != 0 {
		t.Errorf("remote upserts = %d, want 0", remote.upsertCount())
	}
	if posts, _ := env.local.ReadAll(ctx); posts != nil {
		t.Errorf("local store written: %v", posts)
	}
}

func TestPostService_OfflineSaveThenReconnect(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	env := newTestEnv(t, remote, false)

	post, err := env.svc.Save(ctx, &domain.Post{
		Title:   "A",
		Excerpt: "B",
		Content: strings.Repeat("word ", 250),
		Tags:    []string{"x"},
		Status:  domain.StatusDraft,
	})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, _ := env.local.ReadAll(ctx)
	if !containsID(stored, post.ID) {
		t.Error("Expected the post in the local store")
	}
	pending, _ := env.local.ReadPending(ctx)
	if !slices.Equal(pending, []string{post.ID}) {
		t.Errorf("stored pending = %v, want [%s]", pending, post.ID)
	}
	if len(env.svc.Published("")) != 0 {
		t.Error("Published() must exclude the draft")
	}
	if remote.upsertCount() != 0 {
		t.Fatalf("remote upserts = %d while offline, want 0", remote.upsertCount())
	}

	env.coord.SetOnline(ctx, true)

	if got := remote.upsertCount(); got != 1 {
		t.Errorf("remote upserts = %d, want exactly 1", got)
	}
	if len(env.coord.PendingIDs()) != 0 {
		t.Errorf("PendingIDs() = %v, want empty", env.coord.PendingIDs())
	}
	pending, _ = env.local.ReadPending(ctx)
	if len(pending) != 0 {
		t.Errorf("stored pending = %v, want empty", pending)
	}

	remotePost, ok := remote.get(post.ID)
	if !ok || remotePost.Status != domain.StatusDraft {
		t.Fatalf("remote post = %+v, want a draft", remotePost)
	}
	published, _ := remote.ListPublished(ctx)
	if containsID(published, post.ID) {
		t.Error("ListPublished() must exclude the draft")
	}
}

func TestPostService_ReplayUsesLatestVersion(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	env := newTestEnv(t, remote, false)

	post, _ := env.svc.Save(ctx, draftInput("v1"))
	edit := post.Clone()
	edit.Title = "v2"
	env.svc.Save(ctx, edit)

	n, err := env.svc.Sync(ctx)
	if !errors.Is(err, domain.ErrRemoteUnavailable) || n != 0 {
		t.Fatalf("Sync offline = %d, %v; want 0, %v", n, err, domain.ErrRemoteUnavailable)
	}

	env.coord.SetOnline(ctx, true)

	if got := remote.upsertCount(); got != 1 {
		t.Errorf("remote upserts = %d, want 1", got)
	}
	if got, _ := remote.get(post.ID); got.Title != "v2" {
		t.Errorf("remote title = %q, want %q", got.Title, "v2")
	}
}

func TestPostService_OnlineSaveFailureQueues(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.setFail(errRemoteDown)
	env := newTestEnv(t, remote, true)

	post, err := env.svc.Save(ctx, draftInput("flaky"))
	if err != nil {
		t.Fatalf("Save must fail soft, got %v", err)
	}
	if !env.svc.Status().Degraded {
		t.Error("Expected degraded status")
	}
	if got := env.coord.PendingIDs(); !slices.Equal(got, []string{post.ID}) {
		t.Errorf("PendingIDs() = %v, want [%s]", got, post.ID)
	}

	remote.setFail(nil)
	n, err := env.svc.Sync(ctx)
	if err != nil || n != 1 {
		t.Errorf("Sync() = %d, %v; want 1, nil", n, err)
	}
}

func TestPostService_LoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("remote is mirrored locally", func(t *testing.T) {
		remote := newFakeRemote()
		remote.put(
			samplePost("old", domain.StatusPublished, baseTime),
			samplePost("new", domain.StatusDraft, baseTime.Add(time.Hour)),
		)
		env := newTestEnv(t, remote, true)

		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if got := postIDs(env.svc.All()); !slices.Equal(got, []string{"new", "old"}) {
			t.Errorf("All() ids = %v, want [new old]", got)
		}
		stored, _ := env.local.ReadAll(ctx)
		if got := postIDs(stored); !slices.Equal(got, []string{"new", "old"}) {
			t.Errorf("local ids = %v, want [new old]", got)
		}
	})

	t.Run("local fallback", func(t *testing.T) {
		remote := newFakeRemote()
		remote.setFail(errRemoteDown)
		env := newTestEnv(t, remote, true)
		env.local.WriteAll(ctx, []*domain.Post{samplePost("cached", domain.StatusPublished, baseTime)})

		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if got := postIDs(env.svc.All()); !slices.Equal(got, []string{"cached"}) {
			t.Errorf("All() ids = %v, want [cached]", got)
		}
	})

	t.Run("queued edits survive a remote reload", func(t *testing.T) {
		remote := newFakeRemote()
		remote.put(samplePost("p1", domain.StatusPublished, baseTime))
		env := newTestEnv(t, remote, true)
		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}

		remote.setFail(errRemoteDown)
		edit, _ := env.svc.Get("p1")
		edit.Title = "edited offline"
		edit.Status = domain.StatusDraft
		env.svc.Save(ctx, edit)
		remote.setFail(nil)

		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if got, _ := env.svc.Get("p1"); got.Title != "edited offline" || got.Status != domain.StatusDraft {
			t.Errorf("p1 = %q/%s, want the queued unpublished edit", got.Title, got.Status)
		}
		if containsID(env.svc.Published(""), "p1") {
			t.Error("Published() must exclude the queued unpublish")
		}
		if got := env.coord.PendingIDs(); !slices.Equal(got, []string{"p1"}) {
			t.Errorf("PendingIDs() = %v, want [p1]", got)
		}
	})

	t.Run("empty local store is seeded", func(t *testing.T) {
		env := newTestEnv(t, nil, false, WithSeedPosts(SamplePosts))

		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(env.svc.All()) != 3 {
			t.Errorf("collection size = %d, want 3", len(env.svc.All()))
		}
		stored, _ := env.local.ReadAll(ctx)
		if len(stored) != 3 {
			t.Errorf("local size = %d, want 3", len(stored))
		}
	})

	t.Run("written empty store is not seeded", func(t *testing.T) {
		env := newTestEnv(t, nil, false, WithSeedPosts(SamplePosts))
		env.local.WriteAll(ctx, nil)

		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(env.svc.All()) != 0 {
			t.Errorf("collection size = %d, want 0", len(env.svc.All()))
		}
	})
}

// leakyRemote ignores the status filter, as a misconfigured backend would
type leakyRemote struct{ *fakeRemote }

func (l leakyRemote) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	return l.fakeRemote.ListAll(ctx)
}

func TestPostService_PublishedNeverIncludesDrafts(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRemote()
	fake.put(
		samplePost("pub", domain.StatusPublished, baseTime),
		samplePost("draft", domain.StatusDraft, baseTime.Add(time.Hour)),
	)

	coord := NewSyncCoordinator(ctx, newLocal(0), leakyRemote{fake}, true)
	svc := NewPostService(coord)
	defer svc.Close()

	if err := svc.LoadPublished(ctx); err != nil {
		t.Fatalf("LoadPublished failed: %v", err)
	}

	for _, query := range []string{"", "title", "draft"} {
		for _, p := range svc.Published(query) {
			if !p.IsPublished() {
				t.Errorf("Published(%q) returned draft %s", query, p.ID)
			}
		}
	}
	if _, ok := svc.GetPublished("draft"); ok {
		t.Error("GetPublished must not return a draft")
	}
	if got := postIDs(svc.Recent(5)); !slices.Equal(got, []string{"pub"}) {
		t.Errorf("Recent() ids = %v, want [pub]", got)
	}
}

func TestPostService_LoadPublishedKeepsLocalDrafts(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	env := newTestEnv(t, remote, false)

	draft, _ := env.svc.Save(ctx, draftInput("mine"))

	remote.put(samplePost("pub", domain.StatusPublished, baseTime))
	env.coord.online = true
	if err := env.svc.LoadPublished(ctx); err != nil {
		t.Fatalf("LoadPublished failed: %v", err)
	}

	if _, ok := env.svc.Get(draft.ID); !ok {
		t.Error("Expected the local draft to survive a published refresh")
	}
	if _, ok := env.svc.Get("pub"); !ok {
		t.Error("Expected the published post to be loaded")
	}
}

func TestPostService_LoadPublishedKeepsQueuedPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("queued published post survives", func(t *testing.T) {
		remote := newFakeRemote()
		env := newTestEnv(t, remote, true)

		remote.setFail(errRemoteDown)
		input := draftInput("fresh")
		input.Status = domain.StatusPublished
		post, _ := env.svc.Save(ctx, input)
		remote.setFail(nil)

		if err := env.svc.LoadPublished(ctx); err != nil {
			t.Fatalf("LoadPublished failed: %v", err)
		}
		if _, ok := env.svc.GetPublished(post.ID); !ok {
			t.Fatal("Expected the queued post to stay in memory")
		}

		n, err := env.svc.Sync(ctx)
		if err != nil || n != 1 {
			t.Errorf("Sync() = %d, %v; want 1, nil", n, err)
		}
		if _, ok := remote.get(post.ID); !ok {
			t.Error("Expected the queued post on the remote after Sync")
		}
		if len(env.coord.PendingIDs()) != 0 {
			t.Errorf("PendingIDs() = %v, want empty", env.coord.PendingIDs())
		}
	})

	t.Run("queued unpublish stays a draft", func(t *testing.T) {
		remote := newFakeRemote()
		remote.put(samplePost("p1", domain.StatusPublished, baseTime))
		env := newTestEnv(t, remote, true)
		if err := env.svc.LoadAll(ctx); err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}

		remote.setFail(errRemoteDown)
		edit, _ := env.svc.Get("p1")
		edit.Title = "hidden"
		edit.Status = domain.StatusDraft
		env.svc.Save(ctx, edit)
		remote.setFail(nil)

		if err := env.svc.LoadPublished(ctx); err != nil {
			t.Fatalf("LoadPublished failed: %v", err)
		}
		got, _ := env.svc.Get("p1")
		if got.Status != domain.StatusDraft || got.Title != "hidden" {
			t.Errorf("p1 = %q/%s, want the queued draft", got.Title, got.Status)
		}
		if containsID(env.svc.Published(""), "p1") {
			t.Error("Published() must exclude the queued draft")
		}

		env.svc.Sync(ctx)
		if stored, _ := remote.get("p1"); stored.Status != domain.StatusDraft {
			t.Errorf("remote status = %s, want draft", stored.Status)
		}
	})
}

func TestPostService_SaveDuringReplay(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	env := newTestEnv(t, remote, false)

	post, _ := env.svc.Save(ctx, draftInput("v1"))
	started, release := remote.holdNextUpsert()

	replayed := make(chan struct{})
	go func() {
		defer close(replayed)
		env.coord.SetOnline(ctx, true)
	}()
	<-started

	saved := make(chan struct{})
	edit := post.Clone()
	edit.Title = "v2"
	go func() {
		defer close(saved)
		if _, err := env.svc.Save(ctx, edit); err != nil {
			t.Errorf("Save failed: %v", err)
		}
	}()

	// give the save time to reach the remote while the replay upsert is held
	time.Sleep(20 * time.Millisecond)
	close(release)
	<-replayed
	<-saved

	if got, _ := env.svc.Get(post.ID); got.Title != "v2" {
		t.Errorf("memory title = %q, want %q", got.Title, "v2")
	}
	if got, _ := remote.get(post.ID); got.Title != "v2" {
		t.Errorf("remote title = %q, want %q", got.Title, "v2")
	}
	if len(env.coord.PendingIDs()) != 0 {
		t.Errorf("PendingIDs() = %v, want empty", env.coord.PendingIDs())
	}
	if got := remote.upsertCount(); got != 2 {
		t.Errorf("remote upserts = %d, want 2", got)
	}
}

func TestPostService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes everywhere", func(t *testing.T) {
		remote := newFakeRemote()
		env := newTestEnv(t, remote, true)
		post, _ := env.svc.Save(ctx, draftInput("doomed"))

		if err := env.svc.Delete(ctx, post.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok := env.svc.Get(post.ID); ok {
			t.Error("Expected post removed from memory")
		}
		if _, ok := remote.get(post.ID); ok {
			t.Error("Expected post removed from remote")
		}
		stored, _ := env.local.ReadAll(ctx)
		if containsID(stored, post.ID) {
			t.Error("Expected post removed from local store")
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		env := newTestEnv(t, newFakeRemote(), true)
		if err := env.svc.Delete(ctx, "missing"); err != nil {
			t.Errorf("Delete error = %v, want nil", err)
		}
	})

	t.Run("offline delete drops the queued save", func(t *testing.T) {
		env := newTestEnv(t, newFakeRemote(), false)
		post, _ := env.svc.Save(ctx, draftInput("queued"))

		if err := env.svc.Delete(ctx, post.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if len(env.coord.PendingIDs()) != 0 {
			t.Errorf("PendingIDs() = %v, want empty", env.coord.PendingIDs())
		}
	})

	t.Run("nothing persisted", func(t *testing.T) {
		coord := NewSyncCoordinator(ctx, newLocal(1), newFakeRemote(), false)
		svc := NewPostService(coord)
		defer svc.Close()
		post, _ := svc.Save(ctx, draftInput("stuck"))

		err := svc.Delete(ctx, post.ID)
		if !errors.Is(err, domain.ErrNotPersisted) {
			t.Errorf("Delete error = %v, want %v", err, domain.ErrNotPersisted)
		}
		if _, ok := svc.Get(post.ID); ok {
			t.Error("Expected in-memory removal even when nothing persisted")
		}
	})
}

func TestPostService_ConcurrentIncrementView(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.gate = make(chan struct{})
	env := newTestEnv(t, remote, true)

	post, _ := env.svc.Save(ctx, draftInput("popular"))

	// neither remote call can finish until the gate opens
	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.svc.IncrementView(ctx, post.ID); err != nil {
				t.Errorf("IncrementView failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, _ := env.svc.Get(post.ID); got.ViewCount != 2 {
		t.Errorf("ViewCount = %d, want 2", got.ViewCount)
	}

	close(remote.gate)
	env.svc.Close()

	if remote.increments != 2 {
		t.Errorf("remote increments = %d, want 2", remote.increments)
	}
	if got, _ := remote.get(post.ID); got.ViewCount != 2 {
		t.Errorf("remote ViewCount = %d, want 2", got.ViewCount)
	}
}

func TestPostService_IncrementViewOffline(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	env := newTestEnv(t, remote, false)
	post, _ := env.svc.Save(ctx, draftInput("quiet"))

	count, err := env.svc.IncrementView(ctx, post.ID)
	if err != nil || count != 1 {
		t.Errorf("IncrementView() = %d, %v; want 1, nil", count, err)
	}
	env.svc.Close()

	if remote.increments != 0 {
		t.Errorf("remote increments = %d, want 0", remote.increments)
	}
	if _, err := env.svc.IncrementView(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("IncrementView(missing) error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestPostService_ToggleLike(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	env := newTestEnv(t, remote, true)
	post, _ := env.svc.Save(ctx, draftInput("liked"))

	count, liked, err := env.svc.ToggleLike(ctx, post.ID, false)
	if err != nil || count != 1 || !liked {
		t.Errorf("ToggleLike(false) = %d, %v, %v; want 1, true, nil", count, liked, err)
	}

	count, liked, err = env.svc.ToggleLike(ctx, post.ID, true)
	if err != nil || count != 0 || liked {
		t.Errorf("ToggleLike(true) = %d, %v, %v; want 0, false, nil", count, liked, err)
	}

	// never below zero
	count, _, _ = env.svc.ToggleLike(ctx, post.ID, true)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}

	env.svc.Close()
	if got, _ := remote.get(post.ID); got.LikeCount != 0 {
		t.Errorf("remote LikeCount = %d, want the in-memory count 0", got.LikeCount)
	}
	if len(remote.likeCounts) != 3 {
		t.Errorf("remote like updates = %d, want 3", len(remote.likeCounts))
	}
	for _, c := range remote.likeCounts {
		if c < 0 {
			t.Errorf("remote like count %d is negative", c)
		}
	}

	if _, _, err := env.svc.ToggleLike(ctx, "missing", false); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ToggleLike(missing) error = %v, want %v", err, domain.ErrNotFound)
	}
}

func TestPostService_StatsAndList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, false)

	a := samplePost("a", domain.StatusPublished, baseTime)
	a.ViewCount, a.LikeCount = 10, 2
	b := samplePost("b", domain.StatusPublished, baseTime.Add(time.Hour))
	b.ViewCount, b.LikeCount = 5, 1
	b.Tags = []string{"JSON"}
	c := samplePost("c", domain.StatusDraft, baseTime.Add(2*time.Hour))
	c.ViewCount = 100
	env.local.WriteAll(ctx, []*domain.Post{a, b, c})
	if err := env.svc.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	want := Stats{Posts: 2, Views: 15, Likes: 3}
	if got := env.svc.Stats(); got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}

	if got := postIDs(env.svc.List("", FilterAll)); !slices.Equal(got, []string{"c", "b", "a"}) {
		t.Errorf("List(all) = %v, want [c b a]", got)
	}
	if got := postIDs(env.svc.List("json", FilterPublished)); !slices.Equal(got, []string{"b"}) {
		t.Errorf("List(json, published) = %v, want [b]", got)
	}
	if got := postIDs(env.svc.Recent(1)); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Recent(1) = %v, want [b]", got)
	}
}

func postIDs(posts []*domain.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}
