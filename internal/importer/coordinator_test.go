package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"profitstat/internal/calculator"
	"profitstat/internal/model"
	"profitstat/internal/parser"
)

var profitHeader = []interface{}{"月份", "游戏", "渠道", "利润"}

func xlsxFile(t *testing.T, name string, rows ...[]interface{}) model.SourceFile {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return model.SourceFile{Name: name, Data: buf.Bytes()}
}

func readSheet(t *testing.T, workbook []byte, sheet string) [][]string {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func summaryTriples(rows []model.SummaryRow) [][3]string {
	out := make([][3]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, [3]string{r.ProjectName, r.Month, r.TotalProfit.String()})
	}
	return out
}

func TestRun_SumsChannelsWithinQuarter(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "a.xlsx",
		profitHeader,
		[]interface{}{"1月", "A", "X", 100},
		[]interface{}{"1月", "A", "Y", 50},
		[]interface{}{"4月", "A", "X", 999},
	)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{"a.xlsx"}, report.Accepted)
	assert.Empty(t, report.Warnings)
	assert.Len(t, report.Unified, 3)
	assert.Len(t, report.Filtered, 2)
	assert.Equal(t, [][3]string{{"A", "1月", "150"}}, summaryTriples(report.Summary))
	assert.Equal(t, []string{"A"}, report.Pivot.Projects)
	assert.Equal(t, []string{"1月"}, report.Pivot.Months)

	assert.Equal(t, [][]string{
		{"project_name", "month", "profit"},
		{"A", "1月", "150"},
	}, readSheet(t, report.Workbook, "summary"))
	assert.Equal(t, [][]string{
		{"month", "project_name", "channel", "profit", "source_file"},
		{"1月", "A", "X", "100", "a.xlsx"},
		{"1月", "A", "Y", "50", "a.xlsx"},
	}, readSheet(t, report.Workbook, "raw"))
}

func TestRun_SkipsFileMissingRequiredColumn(t *testing.T) {
	t.Parallel()

	good := xlsxFile(t, "good.xlsx",
		[]interface{}{"月份", "项目名称", "渠道", "利润"},
		[]interface{}{"2月", "B", "X", 10},
	)
	noChannel := xlsxFile(t, "no_channel.xlsx",
		[]interface{}{"月份", "游戏", "利润"},
		[]interface{}{"2月", "C", 500},
	)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{good, noChannel})
	require.NoError(t, err)

	assert.Equal(t, []string{"good.xlsx", "no_channel.xlsx"}, report.Files)
	assert.Equal(t, []string{"good.xlsx"}, report.Accepted)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, "no_channel.xlsx", report.Warnings[0].File)
	assert.Equal(t, model.WarningSchema, report.Warnings[0].Kind)
	assert.Contains(t, report.Warnings[0].Reason, "渠道")
	assert.Equal(t, [][3]string{{"B", "2月", "10"}}, summaryTriples(report.Summary))

	for _, r := range report.Unified {
		assert.NotEqual(t, "no_channel.xlsx", r.SourceFile)
	}
}

func TestRun_ForwardFillsMonth(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "fill.xlsx",
		profitHeader,
		[]interface{}{"3月", "A", "X", 10},
		[]interface{}{nil, "A", "X", 5},
	)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)

	assert.Equal(t, "3月", report.Unified[1].Month)
	assert.Len(t, report.Filtered, 2)
	assert.Equal(t, [][3]string{{"A", "3月", "15"}}, summaryTriples(report.Summary))
}

func TestRun_NegativeProfit(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "neg.xlsx",
		profitHeader,
		[]interface{}{"2月", "B", "X", -30},
		[]interface{}{"2月", "B", "Y", 10},
	)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)
	assert.Equal(t, [][3]string{{"B", "2月", "-20"}}, summaryTriples(report.Summary))
}

func TestRun_NoValidData(t *testing.T) {
	t.Parallel()

	files := []model.SourceFile{
		{Name: "notes.txt", Data: []byte("hello")},
		xlsxFile(t, "wrong.xlsx", []interface{}{"日期", "金额"}, []interface{}{"1月", 1}),
	}

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), files)
	require.ErrorIs(t, err, ErrNoValidData)
	require.NotNil(t, report)
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, model.WarningLoad, report.Warnings[0].Kind)
	assert.Equal(t, model.WarningSchema, report.Warnings[1].Kind)
	assert.Empty(t, report.Summary)
	assert.Nil(t, report.Workbook)

	_, err = NewCoordinator(DefaultOptions()).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoValidData)
}

func TestRun_InvalidProfitInQuarterIsFatal(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "bad.xlsx",
		profitHeader,
		[]interface{}{"1月", "A", "X", 1},
		[]interface{}{"1月", "A", "Y", "abc"},
	)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{file})

	var aggErr *calculator.AggregationError
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, "bad.xlsx", aggErr.File)
	assert.Equal(t, 3, aggErr.RowNo)
	assert.Nil(t, report.Workbook)
}

func TestRun_InvalidProfitOutsideQuarterIsIgnored(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "mixed.xlsx",
		profitHeader,
		[]interface{}{"1月", "A", "X", 1},
		[]interface{}{"5月", "A", "Y", "abc"},
	)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)
	assert.Equal(t, [][3]string{{"A", "1月", "1"}}, summaryTriples(report.Summary))
}

func TestRun_Invariants(t *testing.T) {
	t.Parallel()

	first := xlsxFile(t, "first.xlsx",
		profitHeader,
		[]interface{}{"1月", "Beta", "X", 12.5},
		[]interface{}{"2月", "Alpha", "X", 7},
		[]interface{}{nil, "Alpha", "Y", 3},
		[]interface{}{"11月", "Gamma", "Z", 4},
		[]interface{}{"6月", "Gamma", "Z", 100},
	)
	second := model.SourceFile{
		Name: "second.csv",
		Data: []byte("月份,项目名称,渠道,利润\n1月,Alpha,X,-2\n3月,Beta,Y,\"1,000\"\n"),
	}

	c := NewCoordinator(DefaultOptions())
	report, err := c.Run(context.Background(), []model.SourceFile{first, second})
	require.NoError(t, err)

	// 汇总守恒
	assert.True(t, report.Totals.FilteredProfit.Equal(report.Totals.SummaryProfit))
	assert.Equal(t, len(report.Filtered), report.Totals.FilteredRows)
	assert.Equal(t, len(report.Unified), report.Totals.UnifiedRows)

	// 筛选结果是统一表的子序列，且全部命中目标月份
	j := 0
	for _, r := range report.Filtered {
		for j < len(report.Unified) && report.Unified[j] != r {
			j++
		}
		require.Less(t, j, len(report.Unified), "filtered row not found in unified order")
		assert.True(t, c.opts.Matcher.Match(r.Month))
		j++
	}

	// 汇总键唯一且升序
	for i := 1; i < len(report.Summary); i++ {
		assert.True(t, report.Summary[i-1].Less(report.Summary[i]))
	}

	// 文件顺序不影响汇总结果
	swapped, err := c.Run(context.Background(), []model.SourceFile{second, first})
	require.NoError(t, err)
	assert.Equal(t, summaryTriples(report.Summary), summaryTriples(swapped.Summary))

	// 原始数据表按输入文件顺序排列
	sources := func(workbook []byte) []string {
		var out []string
		for _, row := range readSheet(t, workbook, "raw")[1:] {
			out = append(out, row[4])
		}
		return out
	}
	assert.Equal(t, []string{
		"first.xlsx", "first.xlsx", "first.xlsx", "first.xlsx",
		"second.csv", "second.csv",
	}, sources(report.Workbook))
	assert.Equal(t, []string{
		"second.csv", "second.csv",
		"first.xlsx", "first.xlsx", "first.xlsx", "first.xlsx",
	}, sources(swapped.Workbook))

	// 重复运行结果一致
	again, err := c.Run(context.Background(), []model.SourceFile{first, second})
	require.NoError(t, err)
	assert.Equal(t, summaryTriples(report.Summary), summaryTriples(again.Summary))
	assert.Equal(t, readSheet(t, report.Workbook, "summary"), readSheet(t, again.Workbook, "summary"))
	assert.Equal(t, readSheet(t, report.Workbook, "raw"), readSheet(t, again.Workbook, "raw"))
	assert.NotEqual(t, report.RunID, again.RunID)
}

func TestRun_ExactMatchExcludesNovember(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "nov.xlsx",
		profitHeader,
		[]interface{}{"1月", "A", "X", 1},
		[]interface{}{"11月", "A", "X", 2},
	)

	substring, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)
	assert.Len(t, substring.Summary, 2)

	opts := DefaultOptions()
	opts.Matcher = calculator.NewMonthMatcher(calculator.DefaultQuarterMarkers, calculator.MatchExact)
	exact, err := NewCoordinator(opts).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)
	assert.Equal(t, [][3]string{{"A", "1月", "1"}}, summaryTriples(exact.Summary))
}

func TestRun_CustomSchemaAndSheets(t *testing.T) {
	t.Parallel()

	file := xlsxFile(t, "custom.xlsx",
		[]interface{}{"期间", "项目", "来源", "净利"},
		[]interface{}{"2月", "A", "X", 8},
	)

	opts := DefaultOptions()
	opts.Schema = parser.Schema{Labels: map[string][]string{
		model.FieldMonth:       {"期间"},
		model.FieldProjectName: {"项目"},
		model.FieldChannel:     {"来源"},
		model.FieldProfit:      {"净利"},
	}}
	opts.Export.SummarySheet = "汇总"
	opts.Export.RawSheet = "明细"

	report, err := NewCoordinator(opts).Run(context.Background(), []model.SourceFile{file})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"project_name", "month", "profit"},
		{"A", "2月", "8"},
	}, readSheet(t, report.Workbook, "汇总"))
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewCoordinator(DefaultOptions()).Run(ctx, []model.SourceFile{{Name: "a.csv", Data: []byte("x")}})
	require.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, report)
}

func TestRun_LegacyXLS(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("..", "parser", "testdata", "q1_legacy.xls"))
	require.NoError(t, err)

	report, err := NewCoordinator(DefaultOptions()).Run(context.Background(), []model.SourceFile{
		{Name: "q1_legacy.xls", Data: data},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"q1_legacy.xls"}, report.Accepted)
	assert.Equal(t, 203, report.Totals.UnifiedRows)
	assert.Equal(t, "1月", report.Unified[1].Month)
	assert.Equal(t, [][3]string{
		{"Alpha", "1月", "150"},
		{"Beta", "2月", "-20.5"},
	}, summaryTriples(report.Summary))
}
