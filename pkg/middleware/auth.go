package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/memeboard/memeboard/internal/config"
	"github.com/memeboard/memeboard/internal/models"
	"github.com/memeboard/memeboard/internal/sessions"
	"github.com/memeboard/memeboard/internal/tokens"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session"

const principalKey = "principal"

// Session resolves the session token (cookie, or Authorization Bearer header
// for API clients) to a Principal in the request context. It never aborts:
// routes that require authentication stack RequireAuth / RequireAdmin on top.
func Session(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if raw == "" {
			c.Next()
			return
		}
		if black, err := sessions.IsSessionTokenBlacklisted(c.Request.Context(), raw); err != nil || black {
			c.Next()
			return
		}
		p, err := tokens.ParseSessionToken(cfg, raw)
		if err != nil {
			c.Next()
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal for the request, if any.
func PrincipalFrom(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// RequireAuth aborts with 401 when the request carries no valid session.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 for anonymous requests and 403 for
// authenticated non-admins.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
