package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errEmptyWorkbook = errors.New("工作簿中没有工作表")
	errNoHeader      = errors.New("工作表缺少表头行")
	errUnknownFormat = errors.New("不是可识别的 xlsx/xls/csv 文件")
)

// LoadError 文件无法解析为表格
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("无法读取文件 %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SchemaError 文件缺少必要字段
type SchemaError struct {
	File    string
	Missing []string            // 缺失的统一口径字段名
	Labels  map[string][]string // 字段可接受的表头
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, field := range e.Missing {
		parts = append(parts, fmt.Sprintf("%s(%s)", strings.Join(e.Labels[field], "/"), field))
	}
	return fmt.Sprintf("文件 %s 缺少必要字段: %s", e.File, strings.Join(parts, ", "))
}

// Format 表格文件格式
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)
