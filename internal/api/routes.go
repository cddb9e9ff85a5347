package api

import (
	"github.com/gin-gonic/gin"

	"github.com/PlateWatch-ANPR/Ingest-Service/internal/api/handlers"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

func RegisterRoutes(r *gin.Engine, h *handlers.IngestHandler) {
	r.Use(corsMiddleware())

	r.POST("/", h.ProcessImage) // ingest one camera capture
	r.GET("/api/health", h.HealthCheck)
}
