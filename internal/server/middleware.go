package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/partsline/partsline/internal/session"
)

const sessionKey = "session"

func setSession(c *gin.Context, store session.Store) {
	c.Set(sessionKey, store)
}

// GetSession returns the request's token store. Outside the admin group it
// returns an empty store.
func GetSession(c *gin.Context) session.Store {
	if v, ok := c.Get(sessionKey); ok {
		if store, ok := v.(session.Store); ok {
			return store
		}
	}
	return session.None{}
}

// RouteGuard binds the cookie token store to the request and sends requests
// without a token to loginPath. loginPath itself is never redirected.
func RouteGuard(codec *session.CookieCodec, loginPath string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := codec.Bind(c.Writer, c.Request)
		setSession(c, store)

		path := c.Request.URL.Path
		if path == loginPath {
			c.Next()
			return
		}

		if session.StateOf(store) == session.Unauthenticated {
			log.Debug().Str("path", path).Msg("No admin session, redirecting to login")
			redirectToLogin(c, loginPath)
			return
		}

		c.Next()
	}
}

// redirectToLogin aborts with a redirect for pages and a 401 for JSON endpoints
func redirectToLogin(c *gin.Context, loginPath string) {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, adminPrefix+"/api/") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	target := loginPath
	if c.Request.Method == http.MethodGet && path != adminPrefix {
		target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	}
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}

// safeNext returns next when it is a local admin path, otherwise the dashboard
func safeNext(next string) string {
	if next == "" || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return adminPrefix
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return adminPrefix
	}
	if u.Path != adminPrefix && !strings.HasPrefix(u.Path, adminPrefix+"/") {
		return adminPrefix
	}
	if u.Path == loginPath {
		return adminPrefix
	}
	return next
}

// RateLimitMiddleware limits requests per client IP. A limit <= 0 disables it.
func RateLimitMiddleware(requestLimit int, windowLength time.Duration) gin.HandlerFunc {
	if requestLimit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))

	return func(c *gin.Context) {
		passed := false
		limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}
