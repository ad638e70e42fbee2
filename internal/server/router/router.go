package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rodrigocheo/Logistica-Inversa/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(scanHandler *handlers.ScanHandler, adminHandler *handlers.AdminHandler, allowOrigins []string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(corsMiddleware(allowOrigins))
	r.SetHTMLTemplate(handlers.HistoricoTemplate())

	r.GET("/health", scanHandler.Health)
	r.POST("/scan", scanHandler.Scan)

	admin := r.Group("/admin")
	admin.POST("/upload-maestro", adminHandler.UploadMaestro)
	admin.GET("/ver-historico", adminHandler.VerHistorico)
	admin.GET("/descargar-historico", adminHandler.DescargarHistorico)
	admin.GET("/historico.csv", adminHandler.HistoricoCSV)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(allowOrigins) == 1 && allowOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = allowOrigins
	}

	return cors.New(cfg)
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
