package api

import (
	"github.com/dfryer1193/folio/blog/application"
)

// PostProto is the body of an admin create or update.
type PostProto struct {
	Title   string   `json:"title" binding:"required"`
	Excerpt string   `json:"excerpt" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags"`
	Status  string   `json:"status"`
}

// Config is served to the browser so the key is not baked into delivered scripts.
type Config struct {
	SupabaseURL        string `json:"supabaseUrl"`
	SupabaseServiceKey string `json:"supabaseServiceKey"`
}

type PostList struct {
	Posts    []application.Card `json:"posts"`
	Degraded bool               `json:"degraded"`
}

type LikeRequest struct {
	Liked bool `json:"liked"`
}

type LikeResponse struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

type ViewResponse struct {
	Views int `json:"views"`
}

type DeleteResponse struct {
	Persisted bool `json:"persisted"`
}

type SyncResponse struct {
	Synced  int    `json:"synced"`
	Pending int    `json:"pending"`
	Error   string `json:"error,omitempty"`
}

type Error struct {
	Error string `json:"error"`
}
