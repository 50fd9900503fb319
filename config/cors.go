package config

import (
	"time"

	"github.com/gin-contrib/cors"
)

// CORSConfig is the browser access policy for the given origins. Each
// origin needs an http:// or https:// scheme, or be "*".
func CORSConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
