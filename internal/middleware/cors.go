package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origins is the set of browser origins trusted with credentialed requests.
type Origins map[string]struct{}

// NewOrigins normalizes list into an Origins set. Blank entries are skipped.
func NewOrigins(list []string) Origins {
	o := make(Origins, len(list))
	for _, origin := range list {
		origin = strings.TrimRight(strings.ToLower(strings.TrimSpace(origin)), "/")
		if origin != "" {
			o[origin] = struct{}{}
		}
	}
	return o
}

// Allows reports whether origin is listed.
func (o Origins) Allows(origin string) bool {
	_, ok := o[strings.TrimRight(strings.ToLower(origin), "/")]
	return ok
}

// SameOriginOrAllowed accepts requests without an Origin header (non-browser
// clients), requests whose Origin host is the request host, and listed
// origins.
func (o Origins) SameOriginOrAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return o.Allows(origin)
}

// CORS lets the listed frontends call the API from another origin. Other
// origins get no CORS headers, so browsers keep their responses opaque.
func CORS(allowed Origins) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin == "" || !allowed.Allows(origin) {
			if origin != "" && c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
