package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/memeboard/memeboard/internal/board"
	"github.com/memeboard/memeboard/internal/config"
	"github.com/memeboard/memeboard/pkg/logger"
	"github.com/memeboard/memeboard/pkg/metrics"
	"github.com/memeboard/memeboard/pkg/middleware"
)

// MemeHandler exposes the feed, upload, vote and delete routes.
type MemeHandler struct {
	cfg *config.Config
	svc *board.Service
}

func NewMemeHandler(cfg *config.Config, svc *board.Service) *MemeHandler {
	return &MemeHandler{cfg: cfg, svc: svc}
}

// Register routes
func (h *MemeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/", h.Home)
	rg.GET("/feed", h.Feed)
	rg.POST("/uploads", middleware.RequireAuth(), h.Upload)
	rg.GET("/uploads/:filename", h.Image)
	rg.POST("/vote/:id", middleware.RequireAuth(), h.Vote)
	rg.POST("/delete/:id", middleware.RequireAdmin(), h.Delete)
}

// Home redirects to the feed.
func (h *MemeHandler) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/feed")
}

// Feed lists all memes newest first, with score and the viewer's own vote.
// Anonymous viewers get my_vote=0 everywhere.
func (h *MemeHandler) Feed(c *gin.Context) {
	viewer := ""
	if p, ok := middleware.PrincipalFrom(c); ok {
		viewer = p.Username
	}
	feed, err := h.svc.Feed(c.Request.Context(), viewer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memes": feed})
}

// Upload accepts a multipart form with `caption` and `image`.
func (h *MemeHandler) Upload(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		logger.Errorf("opening uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	defer f.Close()

	meme, err := h.svc.UploadMeme(c.Request.Context(), p, c.PostForm("caption"),
		file.Filename, f, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.MemesUploaded.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"id":         meme.ID,
		"caption":    meme.Caption,
		"image":      meme.Image,
		"author":     meme.Author,
		"created_at": meme.CreatedAt,
	})
}

// Image serves stored image bytes.
func (h *MemeHandler) Image(c *gin.Context) {
	name := c.Param("filename")
	rc, err := h.svc.OpenImage(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Header("Content-Type", ct)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		logger.Warnf("streaming image %s: %v", name, err)
	}
}

// VoteRequest carries the vote action (form or JSON).
type VoteRequest struct {
	Action string `form:"action" json:"action"`
}

// Vote applies an up/down vote for the authenticated user.
func (h *MemeHandler) Vote(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid meme id %q", c.Param("id"))})
		return
	}
	var req VoteRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meme, err := h.svc.Vote(c.Request.Context(), p, id, req.Action)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.VotesApplied.WithLabelValues(req.Action).Inc()
	c.JSON(http.StatusOK, gin.H{
		"id":      meme.ID,
		"score":   board.Score(meme),
		"my_vote": board.MyVote(meme, p.Username),
	})
}

// Delete removes a meme (admin only).
func (h *MemeHandler) Delete(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid meme id %q", c.Param("id"))})
		return
	}
	if err := h.svc.DeleteMeme(c.Request.Context(), p, id); err != nil {
		writeError(c, err)
		return
	}
	metrics.MemesDeleted.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "meme deleted"})
}
