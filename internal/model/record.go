package model

import "github.com/shopspring/decimal"

// 统一口径字段名（导出表头同样使用）
const (
	FieldMonth       = "month"
	FieldProjectName = "project_name"
	FieldChannel     = "channel"
	FieldProfit      = "profit"
	FieldSourceFile  = "source_file"
)

// RequiredFields 必要字段（顺序即投影后的列顺序）
var RequiredFields = []string{FieldMonth, FieldProjectName, FieldChannel, FieldProfit}

// SourceFile 上传的单个文件
type SourceFile struct {
	Name string
	Data []byte
}

// Table 读取后的原始表格（尚未校验）
type Table struct {
	SourceFile string     `json:"sourceFile"`
	Sheet      string     `json:"sheet"`
	Format     string     `json:"format"`
	Header     []string   `json:"header"`
	Rows       [][]string `json:"-"`
}

// CellAt 安全取值：越界返回空串
func CellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// RawRecord 单行利润记录（统一口径）
type RawRecord struct {
	RowNo       int                 `json:"rowNo"` // Excel 行号（含表头，从 1 开始）
	Month       string              `json:"month"`
	ProjectName string              `json:"projectName"`
	Channel     string              `json:"channel"`
	Profit      decimal.NullDecimal `json:"-"`
	ProfitText  string              `json:"profitText"`
	SourceFile  string              `json:"sourceFile"`
}

// SummaryRow 按 项目+月份 汇总后的利润
type SummaryRow struct {
	ProjectName string          `json:"projectName"`
	Month       string          `json:"month"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
}

// Less 按 (项目, 月份) 字典序比较
func (r SummaryRow) Less(o SummaryRow) bool {
	if r.ProjectName != o.ProjectName {
		return r.ProjectName < o.ProjectName
	}
	return r.Month < o.Month
}
