package application

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"gopkg.in/yaml.v3"
)

//go:embed seed/sample_posts.yaml
var samplePostsYAML []byte

type seedPost struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Excerpt   string   `yaml:"excerpt"`
	Content   string   `yaml:"content"`
	Tags      []string `yaml:"tags"`
	Status    string   `yaml:"status"`
	CreatedAt string   `yaml:"created_at"`
	ViewCount int      `yaml:"view_count"`
	LikeCount int      `yaml:"like_count"`
}

// SamplePosts returns the posts used to populate an empty local store.
func SamplePosts() ([]*domain.Post, error) {
	return parseSeedPosts(samplePostsYAML)
}

func parseSeedPosts(data []byte) ([]*domain.Post, error) {
	var raw []seedPost
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sample posts: %w", err)
	}

	posts := make([]*domain.Post, 0, len(raw))
	for _, r := range raw {
		created, err := time.Parse(time.RFC3339, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("sample post %s has a bad created_at: %w", r.ID, err)
		}

		p := &domain.Post{
			ID:        r.ID,
			Title:     r.Title,
			Excerpt:   r.Excerpt,
			Content:   r.Content,
			Tags:      r.Tags,
			Status:    domain.Status(r.Status),
			ViewCount: r.ViewCount,
			LikeCount: r.LikeCount,
			CreatedAt: created,
			UpdatedAt: created,
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}
