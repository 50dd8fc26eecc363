// middleware/security_headers.go
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// SecurityConfig controls the Content-Security-Policy sent with every
// response. ConnectSources must list the origins the browser client may dial,
// including the ws/wss form of each, or CSP blocks the push connection.
type SecurityConfig struct {
	ConnectSources []string
	AllowInlineJS  bool
}

// NewSecurityConfig derives the policy from the CORS allowlist: every allowed
// HTTP origin may also be reached over ws/wss for the push endpoint.
func NewSecurityConfig() SecurityConfig {
	cors := NewCORSConfig()
	sources := make([]string, 0, len(cors.AllowOrigins)*2)
	for _, origin := range cors.AllowOrigins {
		sources = append(sources, origin, websocketOrigin(origin))
	}
	return SecurityConfig{ConnectSources: sources}
}

// websocketOrigin maps an HTTP origin to its websocket scheme
func websocketOrigin(origin string) string {
	switch {
	case strings.HasPrefix(origin, "https://"):
		return "wss://" + strings.TrimPrefix(origin, "https://")
	case strings.HasPrefix(origin, "http://"):
		return "ws://" + strings.TrimPrefix(origin, "http://")
	}
	return origin
}

// SecurityHeaders applies the default policy derived from the CORS allowlist
func SecurityHeaders() echo.MiddlewareFunc {
	return SecurityHeadersWithConfig(NewSecurityConfig())
}

// SecurityHeadersWithConfig sets the standard security headers on every
// response, with the CSP built from config.
func SecurityHeadersWithConfig(config SecurityConfig) echo.MiddlewareFunc {
	csp := buildCSP(config)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Content-Security-Policy", csp)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

			h.Del("Server")
			h.Del("X-Powered-By")

			return next(c)
		}
	}
}

func buildCSP(config SecurityConfig) string {
	csp := []string{
		"default-src 'self'",
		"img-src 'self' data: https:",
		"style-src 'self' 'unsafe-inline'",
	}

	if config.AllowInlineJS {
		csp = append(csp, "script-src 'self' 'unsafe-inline'")
	} else {
		csp = append(csp, "script-src 'self'")
	}

	if len(config.ConnectSources) > 0 {
		csp = append(csp, "connect-src 'self' "+strings.Join(config.ConnectSources, " "))
	}

	return strings.Join(csp, "; ")
}
