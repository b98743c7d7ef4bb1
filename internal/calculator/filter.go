package calculator

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"profitstat/internal/model"
)

// MatchMode 月份匹配方式
type MatchMode string

const (
	// MatchSubstring 包含即命中（"11月" 也会命中 "1月"）
	MatchSubstring MatchMode = "substring"
	// MatchExact 标记前一个字符不能是数字（"11月" 不命中 "1月"，"2025年1月" 命中）
	MatchExact MatchMode = "exact"
)

// DefaultQuarterMarkers 一季度月份标记
var DefaultQuarterMarkers = []string{"1月", "2月", "3月"}

// MonthMatcher 月份标签谓词
type MonthMatcher struct {
	markers []string
	mode    MatchMode
}

// NewMonthMatcher 创建月份匹配器，未知模式按 substring 处理
func NewMonthMatcher(markers []string, mode MatchMode) MonthMatcher {
	if mode != MatchExact {
		mode = MatchSubstring
	}
	return MonthMatcher{
		markers: lo.Filter(markers, func(m string, _ int) bool { return m != "" }),
		mode:    mode,
	}
}

// Markers 返回月份标记
func (m MonthMatcher) Markers() []string {
	return append([]string(nil), m.markers...)
}

// Mode 返回匹配方式
func (m MonthMatcher) Mode() MatchMode {
	return m.mode
}

// Match 月份文本是否命中任一标记
func (m MonthMatcher) Match(month string) bool {
	return lo.ContainsBy(m.markers, func(marker string) bool {
		if m.mode == MatchExact {
			return containsAtBoundary(month, marker)
		}
		return strings.Contains(month, marker)
	})
}

func containsAtBoundary(s, marker string) bool {
	for offset := 0; offset <= len(s)-len(marker); {
		i := strings.Index(s[offset:], marker)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(s[:pos])
		if !unicode.IsDigit(prev) {
			return true
		}
		offset = pos + 1
	}
	return false
}

// FilterQuarter 保留命中目标月份的记录，顺序不变
func FilterQuarter(rows []model.RawRecord, matcher MonthMatcher) []model.RawRecord {
	out := make([]model.RawRecord, 0, len(rows))
	for _, r := range rows {
		if matcher.Match(r.Month) {
			out = append(out, r)
		}
	}
	return out
}
