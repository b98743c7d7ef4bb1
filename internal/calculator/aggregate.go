package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"profitstat/internal/model"
)

// AggregationError 利润不是数值，整次统计中止
type AggregationError struct {
	File    string
	RowNo   int
	Project string
	Month   string
	Value   string
}

func (e *AggregationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("文件 %s 第 %d 行利润为空（项目 %s，月份 %s）", e.File, e.RowNo, e.Project, e.Month)
	}
	return fmt.Sprintf("文件 %s 第 %d 行利润不是数值: %q（项目 %s，月份 %s）", e.File, e.RowNo, e.Value, e.Project, e.Month)
}

type groupKey struct {
	project string
	month   string
}

// Aggregate 按 (项目, 月份) 汇总利润，结果按项目、月份字典序升序
func Aggregate(rows []model.RawRecord) ([]model.SummaryRow, error) {
	sums := make(map[groupKey]decimal.Decimal)
	for _, r := range rows {
		if !r.Profit.Valid {
			return nil, &AggregationError{
				File:    r.SourceFile,
				RowNo:   r.RowNo,
				Project: r.ProjectName,
				Month:   r.Month,
				Value:   r.ProfitText,
			}
		}
		k := groupKey{project: r.ProjectName, month: r.Month}
		sums[k] = sums[k].Add(r.Profit.Decimal)
	}

	out := make([]model.SummaryRow, 0, len(sums))
	for k, v := range sums {
		out = append(out, model.SummaryRow{
			ProjectName: k.project,
			Month:       k.month,
			TotalProfit: v,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out, nil
}

// SumProfit 记录利润合计（无效利润不计入）
func SumProfit(rows []model.RawRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.Profit.Valid {
			total = total.Add(r.Profit.Decimal)
		}
	}
	return total
}

// SumSummary 汇总行利润合计
func SumSummary(rows []model.SummaryRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalProfit)
	}
	return total
}
