// Package auth provides Gin middleware for enforcing session auth.
package auth

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Cookie names used when the session arrives via cookies instead of a
// bearer header.
const (
	SessionCookie = "session-token"
	RefreshCookie = "refresh-token"
)

// MiddlewareConfig controls auth enforcement behavior.
type MiddlewareConfig struct {
	PublicPaths map[string]bool
	DisableAuth bool

	// RedirectTo, when set, sends unauthenticated callers to this path with
	// the originally requested path preserved in a "redirect" query param
	// instead of answering 401. Used for browser-facing page routes.
	RedirectTo string

	// OnAuthenticated runs after successful verification. Failures are
	// logged, not surfaced; auth itself has already succeeded.
	OnAuthenticated func(c *gin.Context, claims *Claims) error
}

// Middleware enforces session auth and injects claims into the request
// context. Credentials are read from the Authorization header or from the
// session cookie; an expired cookie session is refreshed transparently when
// a refresh cookie is present.
func Middleware(verifier *Verifier, cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.DisableAuth || AuthDisabled() {
			claims := &Claims{
				Subject: "local-dev",
				Issuer:  "local",
				Raw:     map[string]any{"sub": "local-dev"},
			}
			ctx := WithClaims(c.Request.Context(), claims)
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		if cfg.PublicPaths != nil && cfg.PublicPaths[c.FullPath()] {
			c.Next()
			return
		}

		if verifier == nil {
			denyRequest(c, cfg, "auth verifier not configured")
			return
		}

		token, fromCookie := credentialsFromRequest(c)
		if token == "" {
			log.Printf("auth failure: missing credentials path=%s", c.Request.URL.Path)
			denyRequest(c, cfg, "missing credentials")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil && fromCookie && errors.Is(err, jwt.ErrTokenExpired) {
			claims, err = refreshCookieSession(c, verifier)
		}
		if err != nil {
			log.Printf("auth failure: token invalid path=%s err=%v", c.Request.URL.Path, err)
			denyRequest(c, cfg, "invalid token")
			return
		}

		if cfg.OnAuthenticated != nil {
			if err := cfg.OnAuthenticated(c, claims); err != nil {
				log.Printf("post-auth hook failed sub=%s err=%v", claims.Subject, err)
			}
		}

		ctx := WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// credentialsFromRequest prefers a bearer header, then the session cookie.
func credentialsFromRequest(c *gin.Context) (token string, fromCookie bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := extractBearerToken(header); ok {
			return token, false
		}
		return "", false
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}

// refreshCookieSession exchanges the refresh cookie for a new token pair and
// rotates both cookies. The rotation is transparent: on success the request
// proceeds with the refreshed claims, on failure the caller falls through to
// the normal unauthenticated path.
func refreshCookieSession(c *gin.Context, verifier *Verifier) (*Claims, error) {
	refreshToken, err := c.Cookie(RefreshCookie)
	if err != nil || refreshToken == "" {
		return nil, errors.New("no refresh token")
	}

	pair, err := refreshSession(c.Request.Context(), verifier.issuer, refreshToken)
	if err != nil {
		return nil, err
	}

	claims, err := verifier.Verify(pair.AccessToken)
	if err != nil {
		return nil, err
	}

	maxAge := pair.ExpiresIn
	if maxAge <= 0 {
		maxAge = int(time.Until(claims.ExpiresAt).Seconds())
	}
	c.SetCookie(SessionCookie, pair.AccessToken, maxAge, "/", "", true, true)
	c.SetCookie(RefreshCookie, pair.RefreshToken, 30*24*3600, "/", "", true, true)

	return claims, nil
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func denyRequest(c *gin.Context, cfg MiddlewareConfig, message string) {
	if cfg.RedirectTo != "" {
		target := cfg.RedirectTo + "?redirect=" + url.QueryEscape(c.Request.URL.Path)
		c.Redirect(http.StatusFound, target)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
	})
}
