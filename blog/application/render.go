package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
)

const (
	wordsPerMinute = 200
	displayDate    = "January 2, 2006"
)

// Card is the list view of a post.
type Card struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Excerpt     string        `json:"excerpt"`
	Tags        []string      `json:"tags"`
	Status      domain.Status `json:"status"`
	Date        string        `json:"date"`
	ReadingTime int           `json:"reading_time"`
	Views       int           `json:"views"`
	Likes       int           `json:"likes"`
}

// Modal is the full reader view of a post.
type Modal struct {
	Card
	ContentHTML string `json:"content_html"`
}

// ReadingTime is the word count over 200, rounded up.
func ReadingTime(content string) int {
	words := len(strings.Fields(content))
	return (words + wordsPerMinute - 1) / wordsPerMinute
}

func FormatDate(t time.Time) string {
	return t.Format(displayDate)
}

func RenderCard(p *domain.Post) Card {
	return Card{
		ID:          p.ID,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Tags:        p.Tags,
		Status:      p.Status,
		Date:        FormatDate(p.CreatedAt),
		ReadingTime: ReadingTime(p.Content),
		Views:       p.ViewCount,
		Likes:       p.LikeCount,
	}
}

// RenderCards keeps the order of posts.
func RenderCards(posts []*domain.Post) []Card {
	cards := make([]Card, 0, len(posts))
	for _, p := range posts {
		cards = append(cards, RenderCard(p))
	}
	return cards
}

func RenderModal(p *domain.Post, converter MarkdownConverter) (Modal, error) {
	content, err := converter.Convert(p.Content)
	if err != nil {
		return Modal{}, fmt.Errorf("failed to render post %s: %w", p.ID, err)
	}
	return Modal{
		Card:        RenderCard(p),
		ContentHTML: content,
	}, nil
}
