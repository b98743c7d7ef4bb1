package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"profitstat/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Service          string              `json:"service"`
	Months           []string            `json:"months"`           // 目标月份标记
	MatchMode        string              `json:"matchMode"`        // substring / exact
	FillScope        string              `json:"fillScope"`        // file / global
	RequiredLabels   map[string][]string `json:"requiredLabels"`   // 必要字段可接受的表头
	PendingDownloads int                 `json:"pendingDownloads"` // 尚未下载的导出
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	p := h.cfg.Pipeline
	c.JSON(http.StatusOK, StatusResponse{
		Service:   "profitstat",
		Months:    p.Months,
		MatchMode: p.MatchMode,
		FillScope: p.FillScope,
		RequiredLabels: map[string][]string{
			model.FieldMonth:       p.MonthLabels,
			model.FieldProjectName: p.ProjectLabels,
			model.FieldChannel:     p.ChannelLabels,
			model.FieldProfit:      p.ProfitLabels,
		},
		PendingDownloads: h.downloads.len(),
	})
}
