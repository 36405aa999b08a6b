package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSOptions controls which browser origins may call the upload API.
// An origin entry of "*" allows any origin, without credentials.
type CORSOptions struct {
	Origins []string
	Methods []string
	Headers []string
	MaxAge  time.Duration
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", requestIDHeader}
)

// CORS answers preflights and decorates responses for the configured origins.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	return CORSWithOptions(CORSOptions{Origins: allowedOrigins, MaxAge: 10 * time.Minute})
}

// CORSWithOptions is CORS with explicit methods, headers and max age.
// Preflights from origins that are not allowed get 403.
func CORSWithOptions(opts CORSOptions) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(opts.Origins))
	wildcard := false
	for _, o := range opts.Origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			wildcard = true
		default:
			origins[o] = struct{}{}
		}
	}
	if len(opts.Methods) == 0 {
		opts.Methods = defaultCORSMethods
	}
	if len(opts.Headers) == 0 {
		opts.Headers = defaultCORSHeaders
	}
	methods := strings.Join(opts.Methods, ",")
	headers := strings.Join(opts.Headers, ", ")
	maxAge := strconv.Itoa(int(opts.MaxAge / time.Second))

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, listed := origins[origin]
		allowed := origin != "" && (listed || wildcard)

		if allowed {
			h := c.Writer.Header()
			h.Add("Vary", "Origin")
			if listed {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			} else {
				h.Set("Access-Control-Allow-Origin", "*")
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Expose-Headers", requestIDHeader)
			if opts.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
		}

		if c.Request.Method == http.MethodOptions {
			if origin != "" && !allowed {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
