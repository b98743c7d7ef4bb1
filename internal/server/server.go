package server

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"profitstat/internal/api"
	"profitstat/internal/config"
)

//go:embed all:dist
var staticFiles embed.FS

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	api    *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	s := &Server{
		router: router,
		api:    api.NewHandler(cfg),
	}

	s.setupRoutes()

	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	// 单页上传表单
	sub, _ := fs.Sub(staticFiles, "dist")
	s.router.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(sub, "index.html")
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// requestLogger 请求日志
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Msg("request")
	}
}
