package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginSwagger "github.com/swaggo/gin-swagger"
	swaggerFiles "github.com/swaggo/files"

	"github.com/Tencent/kgsearch/internal/config"
	_ "github.com/Tencent/kgsearch/internal/docs"
	"github.com/Tencent/kgsearch/internal/handler/middleware"
)

// NewRouter assembles the gin.Engine for the search service, following the
// teacher's router.NewRouter: panic recovery, then CORS, then the health
// check and swagger routes, then the JWT-guarded versioned API group (spec
// §6.1's search endpoint, the system-info surface of SPEC_FULL.md §D.4, and
// the debug query endpoint).
func NewRouter(searchHandler *SearchHandler, systemHandler *SystemHandler, debugHandler *DebugHandler, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(cfg))
	{
		v1.POST("/search", searchHandler.Search)
		v1.GET("/system/info", systemHandler.GetSystemInfo)
		v1.POST("/debug/query", debugHandler.RunQuery)
	}

	return r
}
