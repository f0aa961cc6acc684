package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rssreader/internal/config"
	"rssreader/internal/feed"
	"rssreader/internal/poller"
	"rssreader/internal/reader"
	"rssreader/internal/security"
	"rssreader/internal/storage"
	"rssreader/internal/web"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router        *gin.Engine
	service       *reader.Service
	poller        *poller.Poller
	port          int
	dataDir       string
	swaggerServer *web.SwaggerServer
}

func NewServer(service *reader.Service, bgPoller *poller.Poller, cfg *config.Config) *Server {
	router := gin.Default()

	security.Setup(router, cfg.Security)

	server := &Server{
		router:        router,
		service:       service,
		poller:        bgPoller,
		port:          cfg.Port,
		dataDir:       cfg.DataDir,
		swaggerServer: web.NewSwaggerServer(cfg.EnableSwagger),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	api := s.router.Group("/api/v1")
	{
		api.GET("/feeds", s.listFeeds)
		api.POST("/feeds", s.addFeed)
		api.PUT("/feeds", s.refreshAllFeeds)
		api.POST("/feeds/:id/refresh", s.refreshFeed)
		api.DELETE("/feeds/:id", s.deleteFeed)

		api.GET("/articles", s.listArticles)
		api.GET("/articles/:id/content", s.getArticleContent)
		api.POST("/articles/:id/read", s.markRead)
		api.POST("/articles/:id/unread", s.markUnread)

		// Maintenance operations
		api.POST("/process-downloads", s.processDownloads)
		api.POST("/cleanup", s.cleanup)
		api.POST("/reset-downloads", s.resetDownloads)
	}

	// Archived image bytes, addressed by the identifier embedded in rewritten
	// article HTML.
	s.router.GET("/api/storage/images/:filename", s.serveImage)

	s.swaggerServer.RegisterRoutes(s.router)
}

func (s *Server) Start() error {
	return s.router.Run(":" + strconv.Itoa(s.port))
}

// StartWithContext runs the server and shuts it down when ctx is cancelled.
func (s *Server) StartWithContext(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(s.port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "rss-reader",
		"poller_active":  s.poller.IsPolling(),
		"pipeline_state": s.service.Describe(),
	})
}

func (s *Server) listFeeds(c *gin.Context) {
	feeds, err := s.service.ListFeeds()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, feeds)
}

func (s *Server) addFeed(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	feedID, err := s.service.AddFeed(req.URL)
	if err != nil {
		c.JSON(feedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	newFeed, err := s.service.GetFeed(feedID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, newFeed)
}

func (s *Server) refreshAllFeeds(c *gin.Context) {
	s.service.RefreshAllFeeds()
	c.JSON(http.StatusOK, gin.H{"message": "All feeds refreshed"})
}

func (s *Server) refreshFeed(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	if err := s.service.RefreshFeed(id); err != nil {
		c.JSON(feedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed refreshed"})
}

func (s *Server) deleteFeed(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	if err := s.service.DeleteFeed(id); err != nil {
		c.JSON(feedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed deleted"})
}

func (s *Server) listArticles(c *gin.Context) {
	var feedID int64
	if v := c.Query("feed_id"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed_id"})
			return
		}
		feedID = parsed
	}
	unreadOnly := c.Query("unread") == "true"

	articles, err := s.service.ListArticles(feedID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (s *Server) getArticleContent(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}

	article, content, err := s.service.GetArticleContent(id)
	if err != nil {
		c.JSON(feedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"article":  article,
		"content":  content,
		"archived": article.ArchiveState == "archived",
	})
}

func (s *Server) markRead(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	if err := s.service.MarkRead(id); err != nil {
		c.JSON(feedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article marked as read"})
}

func (s *Server) markUnread(c *gin.Context) {
	id, ok := s.paramID(c)
	if !ok {
		return
	}
	if err := s.service.MarkUnread(id); err != nil {
		c.JSON(feedErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Article marked as unread"})
}

func (s *Server) processDownloads(c *gin.Context) {
	s.service.ProcessUndownloadedArticles()
	c.JSON(http.StatusOK, gin.H{"message": "Processed undownloaded articles"})
}

func (s *Server) cleanup(c *gin.Context) {
	if err := s.service.CleanupOldContent(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Old archived content cleaned up"})
}

func (s *Server) resetDownloads(c *gin.Context) {
	count, err := s.service.ResetArchiveState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Archive state reset",
		"reset_count": count,
	})
}

func (s *Server) serveImage(c *gin.Context) {
	filename := c.Param("filename")
	// Identifiers are flat filenames; anything path-like is rejected.
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image identifier"})
		return
	}
	c.File(filepath.Join(s.dataDir, "storage", "images", filename))
}

func (s *Server) paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// feedErrorStatus maps pipeline error types onto HTTP statuses.
func feedErrorStatus(err error) int {
	var fetchErr *feed.FetchError
	switch {
	case errors.Is(err, storage.ErrDuplicateFeed):
		return http.StatusConflict
	case errors.Is(err, storage.ErrFeedNotFound), errors.Is(err, storage.ErrArticleNotFound):
		return http.StatusNotFound
	case errors.Is(err, feed.ErrNotAFeed), errors.Is(err, feed.ErrEmptyFeed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
