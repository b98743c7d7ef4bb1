package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"profitstat/internal/config"
	"profitstat/internal/importer"
)

// Handler API 处理器
type Handler struct {
	cfg         *config.AppConfig
	coordinator *importer.Coordinator
	downloads   *downloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(cfg *config.AppConfig) *Handler {
	return &Handler{
		cfg:         cfg,
		coordinator: importer.NewCoordinator(importer.OptionsFromConfig(cfg)),
		downloads:   newDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 上传并统计
	router.POST("/runs", h.CreateRun)

	// 统计结果
	router.GET("/runs/:token/chart", h.GetRunChart)
	router.GET("/runs/:token/download", h.DownloadRun)
}

func (h *Handler) downloadTTL() time.Duration {
	return time.Duration(h.cfg.Server.DownloadTTLMinutes) * time.Minute
}

func (h *Handler) maxUploadBytes() int64 {
	return int64(h.cfg.Server.MaxUploadMB) << 20
}
