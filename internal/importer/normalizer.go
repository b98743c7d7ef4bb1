package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"profitstat/internal/model"
	"profitstat/internal/parser"
)

// FillScope 月份向下填充的范围
type FillScope string

const (
	// FillPerFile 填充不跨文件（文件开头缺月份的行保持为空）
	FillPerFile FillScope = "file"
	// FillGlobal 在合并后的整表上填充，可继承上一个文件最后的月份
	FillGlobal FillScope = "global"
)

// Normalize 投影到统一口径字段、向下填充月份、标记来源文件并按文件顺序合并
func Normalize(tables []parser.ProjectedTable, scope FillScope) []model.RawRecord {
	total := 0
	for _, t := range tables {
		total += len(t.Rows)
	}
	out := make([]model.RawRecord, 0, total)

	lastMonth := ""
	for _, t := range tables {
		if scope != FillGlobal {
			lastMonth = ""
		}
		cols := t.ColumnIndexes()

		for i, row := range t.Rows {
			if parser.IsBlankRow(row, cols) {
				continue
			}

			month := t.Field(row, model.FieldMonth)
			if month == "" {
				month = lastMonth
			} else {
				lastMonth = month
			}

			profitText := t.Field(row, model.FieldProfit)
			out = append(out, model.RawRecord{
				RowNo:       i + 2, // 表头占第 1 行
				Month:       month,
				ProjectName: t.Field(row, model.FieldProjectName),
				Channel:     t.Field(row, model.FieldChannel),
				Profit:      ParseProfit(profitText),
				ProfitText:  profitText,
				SourceFile:  t.SourceFile,
			})
		}
	}
	return out
}

// ParseProfit 解析利润，支持千分位与会计负数 "(100)"；空值或非数值返回 Valid=false
func ParseProfit(text string) decimal.NullDecimal {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.NullDecimal{}
	}
	s = strings.ReplaceAll(s, ",", "")
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
