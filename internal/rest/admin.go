package rest

import (
	"errors"
	"net/http"

	"github.com/dfryer1193/folio/api"
	"github.com/dfryer1193/folio/blog/application"
	"github.com/dfryer1193/folio/blog/domain"
	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminListPosts(c *gin.Context) {
	status, err := application.ParseStatusFilter(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.PostList{
		Posts:    application.RenderCards(h.posts.List(c.Query("q"), status)),
		Degraded: h.posts.Status().Degraded,
	})
}

func (h *Handler) AdminGetPost(c *gin.Context) {
	post, ok := h.posts.Get(c.Param("postId"))
	if !ok {
		c.JSON(http.StatusNotFound, api.Error{Error: domain.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) AdminCreatePost(c *gin.Context) {
	h.savePost(c, "", http.StatusCreated)
}

// AdminUpdatePost replaces a post. Updating an id that is gone is a no-op.
func (h *Handler) AdminUpdatePost(c *gin.Context) {
	postID := c.Param("postId")
	if _, ok := h.posts.Get(postID); !ok {
		c.Status(http.StatusNoContent)
		return
	}
	h.savePost(c, postID, http.StatusOK)
}

func (h *Handler) savePost(c *gin.Context, postID string, status int) {
	var proto api.PostProto
	if err := c.ShouldBindJSON(&proto); err != nil {
		c.JSON(http.StatusBadRequest, api.Error{Error: err.Error()})
		return
	}

	saved, err := h.posts.Save(c.Request.Context(), &domain.Post{
		ID:      postID,
		Title:   proto.Title,
		Excerpt: proto.Excerpt,
		Content: proto.Content,
		Tags:    proto.Tags,
		Status:  domain.Status(proto.Status),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, saved)
}

// AdminDeletePost answers 202 when the post left memory but no store took the delete.
func (h *Handler) AdminDeletePost(c *gin.Context) {
	err := h.posts.Delete(c.Request.Context(), c.Param("postId"))
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotPersisted):
		c.JSON(http.StatusAccepted, api.DeleteResponse{Persisted: false})
	default:
		writeError(c, err)
	}
}

func (h *Handler) AdminSync(c *gin.Context) {
	synced, err := h.posts.Sync(c.Request.Context())
	resp := api.SyncResponse{
		Synced:  synced,
		Pending: h.posts.Status().Pending,
	}

	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, domain.ErrRemoteUnavailable):
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
	default:
		resp.Error = err.Error()
		c.JSON(http.StatusBadGateway, resp)
	}
}
