package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dfryer1193/folio/api"
	"github.com/dfryer1193/folio/blog/application"
	"github.com/dfryer1193/folio/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const defaultRecentLimit = 3

func (h *Handler) GetPosts(c *gin.Context) {
	posts := h.posts.Published(c.Query("q"))
	c.JSON(http.StatusOK, api.PostList{
		Posts:    application.RenderCards(posts),
		Degraded: h.posts.Status().Degraded,
	})
}

func (h *Handler) GetRecentPosts(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, api.Error{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	c.JSON(http.StatusOK, api.PostList{
		Posts:    application.RenderCards(h.posts.Recent(limit)),
		Degraded: h.posts.Status().Degraded,
	})
}

func (h *Handler) GetPost(c *gin.Context) {
	post, ok := h.posts.GetPublished(c.Param("postId"))
	if !ok {
		c.JSON(http.StatusNotFound, api.Error{Error: domain.ErrNotFound.Error()})
		return
	}
	h.renderModal(c, post)
}

func (h *Handler) PostView(c *gin.Context) {
	postID := c.Param("postId")
	if _, ok := h.posts.GetPublished(postID); !ok {
		c.JSON(http.StatusNotFound, api.Error{Error: domain.ErrNotFound.Error()})
		return
	}

	views, err := h.posts.IncrementView(c.Request.Context(), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.ViewResponse{Views: views})
}

func (h *Handler) PostLike(c *gin.Context) {
	postID := c.Param("postId")
	if _, ok := h.posts.GetPublished(postID); !ok {
		c.JSON(http.StatusNotFound, api.Error{Error: domain.ErrNotFound.Error()})
		return
	}

	var req api.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	likes, liked, err := h.posts.ToggleLike(c.Request.Context(), postID, req.Liked)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, api.LikeResponse{Likes: likes, Liked: liked})
}

func (h *Handler) renderModal(c *gin.Context, post *domain.Post) {
	modal, err := application.RenderModal(post, h.converter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, modal)
}

// writeError maps domain errors to status codes. Anything unexpected is a 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPost):
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, api.Error{Error: err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, api.Error{Error: err.Error()})
	}
}
