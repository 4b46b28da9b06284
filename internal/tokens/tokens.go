package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/memeboard/memeboard/internal/config"
	"github.com/memeboard/memeboard/internal/models"
)

// GenerateSessionToken creates a signed JWT carrying the authenticated
// principal. The token is what the session cookie holds.
func GenerateSessionToken(cfg *config.Config, p models.Principal, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": p.Username,
		"adm": p.IsAdmin(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ParseSessionToken verifies the signature and expiry of a session token and
// reconstructs the principal it was minted for.
func ParseSessionToken(cfg *config.Config, raw string) (models.Principal, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return models.Principal{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return models.Principal{}, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.Principal{}, fmt.Errorf("token missing sub claim")
	}
	p := models.Principal{Username: sub, Role: models.RoleUser}
	if adm, _ := claims["adm"].(bool); adm {
		p.Role = models.RoleAdmin
	}
	return p, nil
}
