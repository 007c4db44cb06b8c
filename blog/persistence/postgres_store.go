package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ domain.RemoteStore = (*PostgresStore)(nil)

// PostgresStore is a remote store that talks to the database behind Supabase directly.
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries postgresQueries
}

type postgresQueries struct {
	schema, listPublished, listAll, upsert, delete, incrementViews, setLikeCount string
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if table == "" {
		table = DefaultTable
	}

	return &PostgresStore{
		pool:    pool,
		queries: buildPostgresQueries(pgx.Identifier{table}.Sanitize()),
	}, nil
}

const postColumns = `id, title, excerpt, content, tags, status, view_count, like_count, created_at, updated_at`

func buildPostgresQueries(table string) postgresQueries {
	return postgresQueries{
		schema: fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
				title TEXT NOT NULL,
				excerpt TEXT NOT NULL,
				content TEXT NOT NULL,
				tags TEXT[] NOT NULL DEFAULT '{}',
				status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'published')),
				view_count INTEGER NOT NULL DEFAULT 0 CHECK (view_count >= 0),
				like_count INTEGER NOT NULL DEFAULT 0 CHECK (like_count >= 0),
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, table),

		listPublished: fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE status = 'published'
			ORDER BY created_at DESC`, postColumns, table),

		listAll: fmt.Sprintf(`
			SELECT %s FROM %s
			ORDER BY created_at DESC`, postColumns, table),

		// created_at and the counters survive a conflict
		upsert: fmt.Sprintf(`
			INSERT INTO %s (id, title, excerpt, content, tags, status, created_at, updated_at)
			VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				title = EXCLUDED.title,
				excerpt = EXCLUDED.excerpt,
				content = EXCLUDED.content,
				tags = EXCLUDED.tags,
				status = EXCLUDED.status,
				updated_at = EXCLUDED.updated_at
			RETURNING %s`, table, postColumns),

		delete: fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table),

		incrementViews: fmt.Sprintf(`UPDATE %s SET view_count = view_count + 1 WHERE id = $1`, table),

		setLikeCount: fmt.Sprintf(`UPDATE %s SET like_count = GREATEST(0, $2) WHERE id = $1`, table),
	}
}

// EnsureSchema creates the posts table when it does not exist yet
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, s.queries.schema); err != nil {
		return fmt.Errorf("failed to create posts table: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPublished(ctx context.Context) ([]*domain.Post, error) {
	return s.list(ctx, s.queries.listPublished)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*domain.Post, error) {
	return s.list(ctx, s.queries.listAll)
}

func (s *PostgresStore) list(ctx context.Context, query string) ([]*domain.Post, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := scanStoredPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	row := s.pool.QueryRow(ctx, s.queries.upsert,
		p.ID,
		p.Title,
		p.Excerpt,
		p.Content,
		tags,
		string(p.Status),
		p.CreatedAt,
		p.UpdatedAt,
	)

	stored, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert post %s: %w", p.ID, err)
	}
	return stored, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, s.queries.delete, id); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) IncrementViews(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, s.queries.incrementViews, id); err != nil {
		return fmt.Errorf("failed to increment views of %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) SetLikeCount(ctx context.Context, id string, count int) error {
	if _, err := s.pool.Exec(ctx, s.queries.setLikeCount, id, count); err != nil {
		return fmt.Errorf("failed to set like count of %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

type postRow struct {
	ID        string
	Title     string
	Excerpt   string
	Content   string
	Tags      []string
	Status    string
	ViewCount int
	LikeCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func scanPost(row pgx.Row) (*domain.Post, error) {
	var r postRow
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Excerpt,
		&r.Content,
		&r.Tags,
		&r.Status,
		&r.ViewCount,
		&r.LikeCount,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return r.toDomain(), nil
}

// scanStoredPost is scanPost for listed rows, which must hold a complete post.
func scanStoredPost(row pgx.Row) (*domain.Post, error) {
	p, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("stored post %s: %w", p.ID, err)
	}
	return p, nil
}

func (r *postRow) toDomain() *domain.Post {
	return &domain.Post{
		ID:        r.ID,
		Title:     r.Title,
		Excerpt:   r.Excerpt,
		Content:   r.Content,
		Tags:      r.Tags,
		Status:    domain.Status(r.Status),
		ViewCount: r.ViewCount,
		LikeCount: r.LikeCount,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
