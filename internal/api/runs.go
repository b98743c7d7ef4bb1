package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"profitstat/internal/calculator"
	"profitstat/internal/importer"
	"profitstat/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Profit 供图表使用；ProfitText 为精确十进制文本
type summaryRowDTO struct {
	ProjectName string  `json:"projectName"`
	Month       string  `json:"month"`
	Profit      float64 `json:"profit"`
	ProfitText  string  `json:"profitText"`
}

type rawRowDTO struct {
	Month       string  `json:"month"`
	ProjectName string  `json:"projectName"`
	Channel     string  `json:"channel"`
	Profit      float64 `json:"profit"`
	ProfitText  string  `json:"profitText"`
	SourceFile  string  `json:"sourceFile"`
}

type chartDTO struct {
	Projects []string            `json:"projects"`
	Series   []model.ChartSeries `json:"series"`
}

type totalsDTO struct {
	UnifiedRows  int     `json:"unifiedRows"`
	FilteredRows int     `json:"filteredRows"`
	Profit       float64 `json:"profit"`
	ProfitText   string  `json:"profitText"`
}

// RunResponse 统计结果
type RunResponse struct {
	RunID       string              `json:"runId"`
	Accepted    []string            `json:"accepted"`
	Warnings    []model.FileWarning `json:"warnings"`
	Filtered    []rawRowDTO         `json:"filtered"`
	Summary     []summaryRowDTO     `json:"summary"`
	Chart       chartDTO            `json:"chart"`
	Totals      totalsDTO           `json:"totals"`
	FileName    string              `json:"fileName"`
	DownloadURL string              `json:"downloadUrl"`
	ChartURL    string              `json:"chartUrl"`
}

// CreateRun 上传一个或多个 Excel 文件并统计
// POST /api/runs
func (h *Handler) CreateRun(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes())

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据"})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	files := make([]model.SourceFile, 0, len(headers))
	for _, fh := range headers {
		data, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("读取上传文件 %s 失败", fh.Filename)})
			return
		}
		files = append(files, model.SourceFile{Name: fh.Filename, Data: data})
	}

	report, err := h.coordinator.Run(c.Request.Context(), files)
	if err != nil {
		h.writeRunError(c, report, err)
		return
	}

	token := h.downloads.put(runDownload{
		runID:    report.RunID,
		fileName: h.cfg.Export.FileName,
		data:     report.Workbook,
		pivot:    report.Pivot,
	}, h.downloadTTL())

	c.JSON(http.StatusOK, buildRunResponse(report, token, h.cfg.Export.FileName))
}

func (h *Handler) writeRunError(c *gin.Context, report *model.Report, err error) {
	warnings := []model.FileWarning{}
	if report != nil {
		warnings = report.Warnings
	}

	var aggErr *calculator.AggregationError
	switch {
	case errors.Is(err, importer.ErrNoValidData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "没有有效数据，请上传包含“月份、项目名称（或游戏）、渠道、利润”字段的 Excel 文件",
			"warnings": warnings,
		})
	case errors.As(err, &aggErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    aggErr.Error(),
			"file":     aggErr.File,
			"row":      aggErr.RowNo,
			"warnings": warnings,
		})
	default:
		log.Error().Err(err).Msg("统计失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "统计失败: " + err.Error()})
	}
}

// GetRunChart 获取统计结果的柱状图数据
// GET /api/runs/:token/chart
func (h *Handler) GetRunChart(c *gin.Context) {
	item, ok := h.downloads.get(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "统计结果已失效"})
		return
	}
	c.JSON(http.StatusOK, chartDTO{
		Projects: item.pivot.Projects,
		Series:   item.pivot.Series(),
	})
}

// DownloadRun 下载导出的 Excel 文件（一次性）
// GET /api/runs/:token/download
func (h *Handler) DownloadRun(c *gin.Context) {
	item, ok := h.downloads.take(c.Param("token"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(item.fileName))
	c.Data(http.StatusOK, xlsxContentType, item.data)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func buildRunResponse(report *model.Report, token, fileName string) RunResponse {
	return RunResponse{
		RunID:    report.RunID,
		Accepted: report.Accepted,
		Warnings: report.Warnings,
		Filtered: lo.Map(report.Filtered, func(r model.RawRecord, _ int) rawRowDTO {
			return rawRowDTO{
				Month:       r.Month,
				ProjectName: r.ProjectName,
				Channel:     r.Channel,
				Profit:      r.Profit.Decimal.InexactFloat64(),
				ProfitText:  r.Profit.Decimal.String(),
				SourceFile:  r.SourceFile,
			}
		}),
		Summary: lo.Map(report.Summary, func(r model.SummaryRow, _ int) summaryRowDTO {
			return summaryRowDTO{
				ProjectName: r.ProjectName,
				Month:       r.Month,
				Profit:      r.TotalProfit.InexactFloat64(),
				ProfitText:  r.TotalProfit.String(),
			}
		}),
		Chart: chartDTO{
			Projects: report.Pivot.Projects,
			Series:   report.Pivot.Series(),
		},
		Totals: totalsDTO{
			UnifiedRows:  report.Totals.UnifiedRows,
			FilteredRows: report.Totals.FilteredRows,
			Profit:       report.Totals.SummaryProfit.InexactFloat64(),
			ProfitText:   report.Totals.SummaryProfit.String(),
		},
		FileName:    fileName,
		DownloadURL: fmt.Sprintf("/api/runs/%s/download", token),
		ChartURL:    fmt.Sprintf("/api/runs/%s/chart", token),
	}
}

// buildContentDisposition 中文文件名按 RFC 5987 编码，附 ASCII 兜底名
func buildContentDisposition(fileName string) string {
	return fmt.Sprintf("attachment; filename=\"profit-summary.xlsx\"; filename*=UTF-8''%s", url.PathEscape(fileName))
}
