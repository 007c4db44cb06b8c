package application

import (
	"fmt"
	"strings"

	"github.com/dfryer1193/folio/blog/domain"
)

// StatusFilter restricts a listing by post status.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPublished StatusFilter = "published"
	FilterDraft     StatusFilter = "draft"
)

// ParseStatusFilter accepts all, published or draft. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPublished, FilterDraft:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q", s)
	}
}

func (f StatusFilter) matches(p *domain.Post) bool {
	switch f {
	case FilterPublished:
		return p.Status == domain.StatusPublished
	case FilterDraft:
		return p.Status == domain.StatusDraft
	default:
		return true
	}
}

// Filter narrows posts by status, then by a case-insensitive substring of the title,
// excerpt, content or any tag. Input order is kept.
func Filter(posts []*domain.Post, query string, status StatusFilter) []*domain.Post {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if !status.matches(p) {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p *domain.Post, q string) bool {
	for _, field := range []string{p.Title, p.Excerpt, p.Content} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
