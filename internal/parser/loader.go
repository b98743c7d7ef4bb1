package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"profitstat/internal/model"
)

// OLE2 复合文档头（旧版 .xls）
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Load 读取上传文件的第一个工作表，第一行为表头
func Load(file model.SourceFile) (*model.Table, error) {
	rows, sheet, format, err := readRows(file)
	if err != nil {
		return nil, &LoadError{File: file.Name, Err: err}
	}
	if len(rows) == 0 {
		return nil, &LoadError{File: file.Name, Err: errNoHeader}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = NormalizeColumnName(h)
	}

	return &model.Table{
		SourceFile: file.Name,
		Sheet:      sheet,
		Format:     string(format),
		Header:     header,
		Rows:       rows[1:],
	}, nil
}

// DetectFormat 根据文件头与扩展名判断格式
func DetectFormat(file model.SourceFile) Format {
	switch {
	case bytes.HasPrefix(file.Data, []byte("PK")):
		return FormatXLSX
	case bytes.HasPrefix(file.Data, oleMagic):
		return FormatXLS
	case strings.EqualFold(filepath.Ext(file.Name), ".csv"):
		return FormatCSV
	default:
		return ""
	}
}

func readRows(file model.SourceFile) ([][]string, string, Format, error) {
	format := DetectFormat(file)
	switch format {
	case FormatXLSX:
		rows, sheet, err := readXLSX(file.Data)
		return rows, sheet, format, err
	case FormatXLS:
		// 加密的 xlsx 同样是 OLE2 容器，先交给 excelize
		if rows, sheet, err := readXLSX(file.Data); err == nil {
			return rows, sheet, FormatXLSX, nil
		}
		rows, sheet, err := readXLS(file.Data)
		return rows, sheet, format, err
	case FormatCSV:
		rows, err := readCSV(file.Data)
		return rows, "", format, err
	default:
		return nil, "", "", errUnknownFormat
	}
}

func readXLSX(data []byte) ([][]string, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", errEmptyWorkbook
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, sheet, nil
}

// readXLS 旧版 Excel，xlsReader 只接受文件路径，先落临时文件
func readXLS(data []byte) ([][]string, string, error) {
	tmp, err := os.CreateTemp("", "profitstat-*.xls")
	if err != nil {
		return nil, "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, "", err
	}
	if err := tmp.Close(); err != nil {
		return nil, "", err
	}

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open xls: %w", err)
	}
	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, "", errEmptyWorkbook
	}

	var rows [][]string
	for _, r := range sheet.GetRows() {
		var vals []string
		for _, col := range r.GetCols() {
			vals = append(vals, col.GetString())
		}
		rows = append(rows, vals)
	}
	return rows, "", nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("csv 文件为空")
	}
	return rows, nil
}
