// internal/middleware/cors.go
package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the Mini App frontend origin plus local development.
func CORS(webAppURL string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Page", "X-Per-Page", "X-Total-Pages"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if webAppURL != "" && webAppURL != "http://localhost:3000" {
		cfg.AllowOrigins = append(cfg.AllowOrigins, webAppURL)
	}
	return cors.New(cfg)
}
