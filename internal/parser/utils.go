package parser

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化列名，去除空格和特殊字符
func NormalizeColumnName(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return reSpaces.ReplaceAllString(name, "")
}

// NormalizeCell 单元格取值去除首尾空白
func NormalizeCell(v string) string {
	return strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
}

// IsBlankRow 给定列全部为空时视为空行（表格中的填充行）
func IsBlankRow(row []string, columns []int) bool {
	for _, idx := range columns {
		if idx < len(row) && NormalizeCell(row[idx]) != "" {
			return false
		}
	}
	return true
}
