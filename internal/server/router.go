package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amolab/amorate-backend/internal/http/handlers"
	"github.com/amolab/amorate-backend/internal/http/middleware"
	"github.com/amolab/amorate-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log       *logger.Logger
	Templates *template.Template

	Upload *handlers.UploadHandler
	Rate   *handlers.RateHandler
	Arena  *handlers.ArenaHandler
	Score  *handlers.ScoreHandler

	UploadDir string
	ScoresDir string

	MaxUploadMB         int64
	SubmitRatePerMinute int
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.CORS())

	r.SetHTMLTemplate(cfg.Templates)
	if cfg.MaxUploadMB > 0 {
		r.MaxMultipartMemory = cfg.MaxUploadMB << 20
	}

	submitLimit := middleware.SubmitRateLimit(cfg.SubmitRatePerMinute, cfg.Log)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/rate")
	})
	r.GET("/healthcheck", handlers.Healthcheck)

	r.GET("/upload", cfg.Upload.Show)
	r.POST("/upload", submitLimit, cfg.Upload.Submit)

	r.GET("/rate", cfg.Rate.Show)
	r.POST("/rate", submitLimit, cfg.Rate.Submit)

	r.GET("/arena", cfg.Arena.Show)
	r.POST("/arena", submitLimit, cfg.Arena.Submit)

	r.GET("/score/:basename", cfg.Score.Show)

	r.Static("/uploads", cfg.UploadDir)
	r.Static("/scores", cfg.ScoresDir)

	return r
}
