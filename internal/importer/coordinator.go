package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"profitstat/internal/calculator"
	"profitstat/internal/exporter"
	"profitstat/internal/model"
	"profitstat/internal/parser"
)

// ErrNoValidData 没有任何文件通过读取与字段校验
var ErrNoValidData = errors.New("没有有效数据")

// Options 统计选项
type Options struct {
	Schema    parser.Schema
	Matcher   calculator.MonthMatcher
	FillScope FillScope
	Export    exporter.Options
}

// DefaultOptions 与原系统一致：一季度、包含匹配、按文件填充月份
func DefaultOptions() Options {
	return Options{
		Schema:    parser.DefaultSchema(),
		Matcher:   calculator.NewMonthMatcher(calculator.DefaultQuarterMarkers, calculator.MatchSubstring),
		FillScope: FillPerFile,
		Export:    exporter.DefaultOptions(),
	}
}

// Coordinator 统计协调器：读取 → 校验 → 规范化 → 筛选 → 汇总 → 透视 → 导出
type Coordinator struct {
	opts Options
}

// NewCoordinator 创建统计协调器
func NewCoordinator(opts Options) *Coordinator {
	return &Coordinator{opts: opts}
}

// Run 执行一次统计。
// 返回的 Report 始终非空：失败时仍携带文件告警，便于调用方展示。
func (c *Coordinator) Run(ctx context.Context, files []model.SourceFile) (*model.Report, error) {
	startTime := time.Now()
	report := &model.Report{
		RunID:    uuid.New().String(),
		Files:    lo.Map(files, func(f model.SourceFile, _ int) string { return f.Name }),
		Warnings: []model.FileWarning{},
	}
	logger := log.With().Str("runId", report.RunID).Logger()

	tables, warnings, err := c.loadAndValidate(ctx, files)
	report.Warnings = warnings
	if err != nil {
		return report, err
	}
	if len(tables) == 0 {
		logger.Warn().Int("files", len(files)).Int("warnings", len(warnings)).Msg("没有可用文件")
		return report, fmt.Errorf("%w: %d 个文件全部被跳过", ErrNoValidData, len(files))
	}
	report.Accepted = lo.Map(tables, func(t parser.ProjectedTable, _ int) string { return t.SourceFile })

	report.Unified = Normalize(tables, c.opts.FillScope)
	report.Filtered = calculator.FilterQuarter(report.Unified, c.opts.Matcher)

	summary, err := calculator.Aggregate(report.Filtered)
	if err != nil {
		logger.Error().Err(err).Msg("汇总失败")
		return report, err
	}
	report.Summary = summary
	report.Pivot = calculator.Pivot(summary)

	workbook, err := exporter.Export(report.Summary, report.Filtered, c.opts.Export)
	if err != nil {
		return report, fmt.Errorf("导出失败: %w", err)
	}
	report.Workbook = workbook

	report.Totals = model.Totals{
		UnifiedRows:    len(report.Unified),
		FilteredRows:   len(report.Filtered),
		FilteredProfit: calculator.SumProfit(report.Filtered),
		SummaryProfit:  calculator.SumSummary(report.Summary),
	}

	logger.Info().
		Int("files", len(files)).
		Int("accepted", len(tables)).
		Int("unifiedRows", report.Totals.UnifiedRows).
		Int("filteredRows", report.Totals.FilteredRows).
		Int("summaryRows", len(report.Summary)).
		Dur("duration", time.Since(startTime)).
		Msg("统计完成")

	return report, nil
}

// loadAndValidate 逐个文件读取并校验字段；单个文件失败只记录告警，不中断整批
func (c *Coordinator) loadAndValidate(ctx context.Context, files []model.SourceFile) ([]parser.ProjectedTable, []model.FileWarning, error) {
	tables := make([]parser.ProjectedTable, 0, len(files))
	warnings := []model.FileWarning{}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		table, err := parser.Load(file)
		if err != nil {
			log.Warn().Str("file", file.Name).Err(err).Msg("文件读取失败，已跳过")
			warnings = append(warnings, model.FileWarning{File: file.Name, Kind: model.WarningLoad, Reason: err.Error()})
			continue
		}

		projected, err := parser.ValidateSchema(table, c.opts.Schema)
		if err != nil {
			log.Warn().Str("file", file.Name).Strs("header", table.Header).Err(err).Msg("缺少必要字段，已跳过")
			warnings = append(warnings, model.FileWarning{File: file.Name, Kind: model.WarningSchema, Reason: err.Error()})
			continue
		}

		log.Debug().Str("file", file.Name).Str("format", table.Format).Int("rows", len(table.Rows)).Msg("文件已读取")
		tables = append(tables, projected)
	}

	return tables, warnings, nil
}
