package exporter

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"profitstat/internal/model"
)

// Options 导出选项
type Options struct {
	SummarySheet string // 汇总表名
	RawSheet     string // 原始数据表名
}

// DefaultOptions 默认表名
func DefaultOptions() Options {
	return Options{
		SummarySheet: "summary",
		RawSheet:     "raw",
	}
}

var (
	summaryHeaders = []string{model.FieldProjectName, model.FieldMonth, model.FieldProfit}
	rawHeaders     = []string{model.FieldMonth, model.FieldProjectName, model.FieldChannel, model.FieldProfit, model.FieldSourceFile}
)

// Export 汇总结果与筛选后的原始数据写入同一个工作簿（两个 sheet），返回 xlsx 字节
func Export(summary []model.SummaryRow, raw []model.RawRecord, opts Options) ([]byte, error) {
	if opts.SummarySheet == "" || opts.RawSheet == "" {
		return nil, errors.New("sheet name is required")
	}
	if opts.SummarySheet == opts.RawSheet {
		return nil, fmt.Errorf("duplicate sheet name %q", opts.SummarySheet)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", opts.SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(opts.RawSheet); err != nil {
		return nil, fmt.Errorf("create sheet %s: %w", opts.RawSheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	summaryRows := make([][]interface{}, 0, len(summary))
	for _, r := range summary {
		summaryRows = append(summaryRows, []interface{}{r.ProjectName, r.Month, r.TotalProfit.InexactFloat64()})
	}
	if err := writeSheet(f, opts.SummarySheet, summaryHeaders, summaryRows, headerStyle); err != nil {
		return nil, err
	}

	rawRows := make([][]interface{}, 0, len(raw))
	for _, r := range raw {
		rawRows = append(rawRows, []interface{}{r.Month, r.ProjectName, r.Channel, profitCell(r), r.SourceFile})
	}
	if err := writeSheet(f, opts.RawSheet, rawHeaders, rawRows, headerStyle); err != nil {
		return nil, err
	}

	// 列宽
	_ = f.SetColWidth(opts.SummarySheet, "A", "A", 24)
	_ = f.SetColWidth(opts.SummarySheet, "B", "C", 14)
	_ = f.SetColWidth(opts.RawSheet, "A", "A", 12)
	_ = f.SetColWidth(opts.RawSheet, "B", "B", 24)
	_ = f.SetColWidth(opts.RawSheet, "C", "D", 14)
	_ = f.SetColWidth(opts.RawSheet, "E", "E", 30)

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

// profitCell 有效利润写数值，否则保留原文
func profitCell(r model.RawRecord) interface{} {
	if r.Profit.Valid {
		return r.Profit.Decimal.InexactFloat64()
	}
	return r.ProfitText
}
