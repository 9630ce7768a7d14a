// internal/api/api.go
package api

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sirjoon/azure-s3-uploader/internal/api/handlers"
	"github.com/sirjoon/azure-s3-uploader/internal/api/middleware"
	"github.com/sirjoon/azure-s3-uploader/internal/config"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// multipart overhead allowed on top of the file size limit
const formOverheadBytes = 1 << 20

type Services struct {
	Uploads  handlers.Uploader
	Upstream config.UpstreamConfig
}

type RouterOptions struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))
	if opts.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = opts.MaxUploadBytes
	}

	var bodyLimit int64
	if opts.MaxUploadBytes > 0 {
		bodyLimit = opts.MaxUploadBytes + formOverheadBytes
	}

	uploadHandler := handlers.NewUploadHandler(services.Uploads, services.Upstream)
	router.GET("/", uploadHandler.Index)
	router.GET("/health", uploadHandler.Health)
	router.POST("/upload", middleware.BodyLimit(bodyLimit), uploadHandler.Upload)

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	return corsConfig
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
