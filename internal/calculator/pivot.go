package calculator

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"profitstat/internal/model"
)

// Pivot 汇总结果转为 项目 × 月份 稠密矩阵，缺失组合补 0
func Pivot(summary []model.SummaryRow) model.PivotMatrix {
	projects := lo.Uniq(lo.Map(summary, func(r model.SummaryRow, _ int) string { return r.ProjectName }))
	months := lo.Uniq(lo.Map(summary, func(r model.SummaryRow, _ int) string { return r.Month }))
	sort.Strings(projects)
	sort.Strings(months)

	values := make(map[string]map[string]decimal.Decimal, len(projects))
	for _, p := range projects {
		row := make(map[string]decimal.Decimal, len(months))
		for _, m := range months {
			row[m] = decimal.Zero
		}
		values[p] = row
	}
	for _, r := range summary {
		values[r.ProjectName][r.Month] = values[r.ProjectName][r.Month].Add(r.TotalProfit)
	}

	return model.PivotMatrix{
		Projects: projects,
		Months:   months,
		Values:   values,
	}
}
