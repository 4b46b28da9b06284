package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memeboard/memeboard/internal/board"
	"github.com/memeboard/memeboard/internal/config"
	"github.com/memeboard/memeboard/internal/sessions"
	"github.com/memeboard/memeboard/internal/tokens"
	"github.com/memeboard/memeboard/pkg/logger"
	"github.com/memeboard/memeboard/pkg/metrics"
	"github.com/memeboard/memeboard/pkg/middleware"
)

// CredentialsRequest carries registration/login form or JSON fields.
type CredentialsRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg *config.Config
	svc *board.Service
}

func NewAuthHandler(cfg *config.Config, svc *board.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, svc: svc}
}

// Register routes
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.RegisterUser)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", middleware.RequireAuth(), h.Me)
}

// RegisterUser creates a new account.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.RegisterUser(c.Request.Context(), req.Username, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "registered, please log in"})
}

// Login checks credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		writeError(c, err)
		return
	}
	tok, err := tokens.GenerateSessionToken(h.cfg, p, h.cfg.JWT.SessionTTL)
	if err != nil {
		logger.Errorf("minting session token for %s: %v", p.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	c.SetCookie(middleware.SessionCookie, tok, int(h.cfg.JWT.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"username": p.Username, "is_admin": p.IsAdmin()})
}

// Logout blacklists the current session token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw, _ := c.Cookie(middleware.SessionCookie)
	if raw != "" {
		// blacklist for the full session TTL: an upper bound of the token's
		// remaining life, so the entry always outlives the token
		if err := sessions.BlacklistSessionToken(c.Request.Context(), raw, h.cfg.JWT.SessionTTL); err != nil {
			logger.Warnf("blacklisting session token: %v", err)
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, gin.H{"username": p.Username, "is_admin": p.IsAdmin()})
}
