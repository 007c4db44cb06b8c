package rest

import (
	"net/http"

	"github.com/dfryer1193/folio/api"
	"github.com/dfryer1193/folio/blog/application"
	"github.com/dfryer1193/folio/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// Handler serves the post API on top of one PostService.
type Handler struct {
	posts     *application.PostService
	converter application.MarkdownConverter
	config    api.Config
}

func NewHandler(posts *application.PostService, converter application.MarkdownConverter, config api.Config) *Handler {
	return &Handler{
		posts:     posts,
		converter: converter,
		config:    config,
	}
}

// NewApi builds the router. Anything that is not an API route is served from staticRoot,
// except dot-files and the hidden paths.
func NewApi(h *Handler, staticRoot string, hidden ...string) http.Handler {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/config", h.GetConfig)
		apiGroup.GET("/status", h.GetStatus)
		apiGroup.GET("/stats", h.GetStats)
	}

	postsGroup := apiGroup.Group("/posts")
	{
		postsGroup.GET("", h.GetPosts)
		postsGroup.GET("/recent", h.GetRecentPosts)
		postsGroup.GET("/:postId", h.GetPost)
		postsGroup.POST("/:postId/views", h.PostView)
		postsGroup.POST("/:postId/like", h.PostLike)
	}

	adminGroup := apiGroup.Group("/admin")
	{
		adminGroup.GET("/posts", h.AdminListPosts)
		adminGroup.GET("/posts/:postId", h.AdminGetPost)
		adminGroup.POST("/posts", h.AdminCreatePost)
		adminGroup.PUT("/posts/:postId", h.AdminUpdatePost)
		adminGroup.DELETE("/posts/:postId", h.AdminDeletePost)
		adminGroup.POST("/sync", h.AdminSync)
	}

	router.NoRoute(NewStaticServer(staticRoot, hidden...).Serve)

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
}

func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.config)
}

func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.posts.Status())
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.posts.Stats())
}
