package parser

import (
	"profitstat/internal/model"
)

// Schema 必要字段与可接受的表头（源语言标签）
type Schema struct {
	Labels map[string][]string
}

// DefaultSchema 默认表头：项目列兼容“项目名称”与“游戏”两种写法
func DefaultSchema() Schema {
	return Schema{
		Labels: map[string][]string{
			model.FieldMonth:       {"月份"},
			model.FieldProjectName: {"项目名称", "游戏"},
			model.FieldChannel:     {"渠道"},
			model.FieldProfit:      {"利润"},
		},
	}
}

// ProjectedTable 校验通过并投影到四个必要字段的表格
type ProjectedTable struct {
	SourceFile string
	Columns    map[string]int // 统一口径字段 -> 表头列索引
	Rows       [][]string
}

// Field 取某行的统一口径字段值
func (p ProjectedTable) Field(row []string, field string) string {
	idx, ok := p.Columns[field]
	if !ok {
		return ""
	}
	return NormalizeCell(model.CellAt(row, idx))
}

// ColumnIndexes 按 RequiredFields 顺序返回列索引
func (p ProjectedTable) ColumnIndexes() []int {
	out := make([]int, 0, len(model.RequiredFields))
	for _, f := range model.RequiredFields {
		out = append(out, p.Columns[f])
	}
	return out
}

// ValidateSchema 表头须包含全部必要字段；同一字段多列命中时取最左一列
func ValidateSchema(t *model.Table, schema Schema) (ProjectedTable, error) {
	columns := make(map[string]int, len(model.RequiredFields))
	var missing []string

	for _, field := range model.RequiredFields {
		idx := findColumn(t.Header, schema.Labels[field])
		if idx < 0 {
			missing = append(missing, field)
			continue
		}
		columns[field] = idx
	}

	if len(missing) > 0 {
		return ProjectedTable{}, &SchemaError{
			File:    t.SourceFile,
			Missing: missing,
			Labels:  schema.Labels,
		}
	}

	return ProjectedTable{
		SourceFile: t.SourceFile,
		Columns:    columns,
		Rows:       t.Rows,
	}, nil
}

func findColumn(header []string, labels []string) int {
	for i, h := range header {
		for _, label := range labels {
			if h == NormalizeColumnName(label) {
				return i
			}
		}
	}
	return -1
}
