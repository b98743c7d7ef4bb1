package importer

import (
	"profitstat/internal/calculator"
	"profitstat/internal/config"
	"profitstat/internal/exporter"
	"profitstat/internal/model"
	"profitstat/internal/parser"
)

// OptionsFromConfig 由配置构建统计选项
func OptionsFromConfig(cfg *config.AppConfig) Options {
	p := cfg.Pipeline
	return Options{
		Schema: parser.Schema{
			Labels: map[string][]string{
				model.FieldMonth:       p.MonthLabels,
				model.FieldProjectName: p.ProjectLabels,
				model.FieldChannel:     p.ChannelLabels,
				model.FieldProfit:      p.ProfitLabels,
			},
		},
		Matcher:   calculator.NewMonthMatcher(p.Months, calculator.MatchMode(p.MatchMode)),
		FillScope: FillScope(p.FillScope),
		Export: exporter.Options{
			SummarySheet: cfg.Export.SummarySheet,
			RawSheet:     cfg.Export.RawSheet,
		},
	}
}
