package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
)

var _ domain.RemoteStore = (*SupabaseStore)(nil)

const (
	DefaultTable = "blogs"

	incrementViewsRPC = "increment_blog_views"
	maxErrorBody      = 512
)

type SupabaseConfig struct {
	URL        string
	ServiceKey string
	Table      string
	Timeout    time.Duration
}

// SupabaseStore talks to the PostgREST API that Supabase exposes under /rest/v1.
type SupabaseStore struct {
	baseURL string
	key     string
	table   string
	client  *http.Client
}

func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &SupabaseStore{
		baseURL: base.String() + "/rest/v1",
		key:     cfg.ServiceKey,
		table:   table,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// supabaseWrite is the upsert payload. Counters are left out so a save never overwrites them.
type supabaseWrite struct {
	ID        string        `json:"id,omitempty"`
	Title     string        `json:"title"`
	Excerpt   string        `json:"excerpt"`
	Content   string        `json:"content"`
	Tags      []string      `json:"tags"`
	Status    domain.Status `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (s *SupabaseStore) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("status", "eq."+string(domain.StatusPublished))
	q.Set("order", "created_at.desc")
	return s.list(ctx, "listing published posts", q)
}

func (s *SupabaseStore) ListAll(ctx context.Context) ([]*domain.Post, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	return s.list(ctx, "listing posts", q)
}

func (s *SupabaseStore) list(ctx context.Context, op string, q url.Values) ([]*domain.Post, error) {
	var posts []*domain.Post
	if err := s.do(ctx, op, http.MethodGet, s.tableURL(q), nil, nil, &posts); err != nil {
		return nil, err
	}

	for _, p := range posts {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("supabase: %s returned a bad row: %w", op, err)
		}
	}
	return posts, nil
}

func (s *SupabaseStore) Upsert(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	op := fmt.Sprintf("upserting post %s", p.ID)

	body := []supabaseWrite{{
		ID:        p.ID,
		Title:     p.Title,
		Excerpt:   p.Excerpt,
		Content:   p.Content,
		Tags:      p.Tags,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}}
	if body[0].Tags == nil {
		body[0].Tags = []string{}
	}

	q := url.Values{}
	q.Set("on_conflict", "id")
	headers := map[string]string{
		"Prefer": "resolution=merge-duplicates,return=representation",
	}

	var stored []*domain.Post
	if err := s.do(ctx, op, http.MethodPost, s.tableURL(q), headers, body, &stored); err != nil {
		return nil, err
	}
	if len(stored) == 0 || stored[0] == nil {
		return nil, fmt.Errorf("supabase: %s returned no representation", op)
	}
	return stored[0], nil
}

func (s *SupabaseStore) Delete(ctx context.Context, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	return s.do(ctx, fmt.Sprintf("deleting post %s", id), http.MethodDelete, s.tableURL(q), nil, nil, nil)
}

func (s *SupabaseStore) IncrementViews(ctx context.Context, id string) error {
	body := map[string]string{"blog_id_param": id}
	return s.do(ctx, fmt.Sprintf("incrementing views of %s", id), http.MethodPost,
		s.baseURL+"/rpc/"+incrementViewsRPC, nil, body, nil)
}

func (s *SupabaseStore) SetLikeCount(ctx context.Context, id string, count int) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	body := map[string]int{"like_count": max(0, count)}
	return s.do(ctx, fmt.Sprintf("setting like count of %s", id), http.MethodPatch, s.tableURL(q), nil, body, nil)
}

func (s *SupabaseStore) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	return s.do(ctx, "pinging", http.MethodGet, s.tableURL(q), nil, nil, nil)
}

func (s *SupabaseStore) tableURL(q url.Values) string {
	return s.baseURL + "/" + s.table + "?" + q.Encode()
}

func (s *SupabaseStore) do(ctx context.Context, op, method, target string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("supabase: %s failed to encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("supabase: %s failed to build request: %w", op, err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("supabase: %s failed: %w: %w", op, domain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleSupabaseError(op, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("supabase: %s failed to decode response: %w", op, err)
	}
	return nil
}

func handleSupabaseError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("supabase: %s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}
