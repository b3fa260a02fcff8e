package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var devOrigins = map[string]bool{
	"http://localhost:3000": true,
	"http://127.0.0.1:3000": true,
	"http://localhost:3001": true,
}

// AllowedOrigin reports whether a browser origin may call the API.
// Production accepts only the frontend and its Vercel previews.
func AllowedOrigin(frontendURL string, production bool) func(string) bool {
	frontendURL = strings.TrimRight(frontendURL, "/")
	project := vercelProject(frontendURL)

	return func(origin string) bool {
		if origin == frontendURL {
			return true
		}
		if !production && devOrigins[origin] {
			return true
		}
		// Preview deployments: https://<project>-<hash>.vercel.app
		if project != "" && strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, ".vercel.app") {
			sub := strings.TrimSuffix(strings.TrimPrefix(origin, "https://"), ".vercel.app")
			return strings.HasPrefix(sub, project+"-") || sub == project
		}
		return false
	}
}

// vercelProject derives the preview prefix from the frontend host, e.g.
// https://www.referkaro.com -> referkaro.
func vercelProject(frontendURL string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(frontendURL, "https://"), "http://")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexAny(host, ".:"); i > 0 {
		host = host[:i]
	}
	if host == "localhost" || host == "127" {
		return ""
	}
	return host
}

// CORSMiddleware must be registered before any other middleware.
func CORSMiddleware(frontendURL string, production bool) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  AllowedOrigin(frontendURL, production),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "Cache-Control", "X-Requested-With"},
		ExposeHeaders:    []string{requestIDHeader, "Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
}
