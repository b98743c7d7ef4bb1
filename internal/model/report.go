package model

import "github.com/shopspring/decimal"

// WarningKind 文件级告警类型
type WarningKind string

const (
	WarningLoad   WarningKind = "load"   // 无法读取
	WarningSchema WarningKind = "schema" // 缺少必要字段
)

// FileWarning 被跳过的文件及原因（不写入导出文件）
type FileWarning struct {
	File   string      `json:"file"`
	Kind   WarningKind `json:"kind"`
	Reason string      `json:"reason"`
}

// PivotMatrix 项目 × 月份 利润矩阵（仅用于图表）
type PivotMatrix struct {
	Projects []string                              `json:"projects"`
	Months   []string                              `json:"months"`
	Values   map[string]map[string]decimal.Decimal `json:"-"`
}

// Value 取值，不存在的组合返回 0
func (p PivotMatrix) Value(project, month string) decimal.Decimal {
	if byMonth, ok := p.Values[project]; ok {
		if v, ok := byMonth[month]; ok {
			return v
		}
	}
	return decimal.Zero
}

// ChartSeries 柱状图的一组数据（一个月份一组）
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Series 按月份展开为图表数据，Values 与 Projects 一一对应
func (p PivotMatrix) Series() []ChartSeries {
	out := make([]ChartSeries, 0, len(p.Months))
	for _, m := range p.Months {
		s := ChartSeries{Name: m, Values: make([]float64, 0, len(p.Projects))}
		for _, proj := range p.Projects {
			s.Values = append(s.Values, p.Value(proj, m).InexactFloat64())
		}
		out = append(out, s)
	}
	return out
}

// Totals 运行统计
type Totals struct {
	UnifiedRows    int             `json:"unifiedRows"`
	FilteredRows   int             `json:"filteredRows"`
	FilteredProfit decimal.Decimal `json:"filteredProfit"`
	SummaryProfit  decimal.Decimal `json:"summaryProfit"`
}

// Report 一次统计运行的全部产物
type Report struct {
	RunID    string        `json:"runId"`
	Files    []string      `json:"files"`
	Accepted []string      `json:"accepted"`
	Warnings []FileWarning `json:"warnings"`
	Unified  []RawRecord   `json:"-"`
	Filtered []RawRecord   `json:"filtered"`
	Summary  []SummaryRow  `json:"summary"`
	Pivot    PivotMatrix   `json:"pivot"`
	Workbook []byte        `json:"-"`
	Totals   Totals        `json:"totals"`
}
