package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"profitstat/internal/calculator"
	"profitstat/internal/config"
	"profitstat/internal/model"
)

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	assert.Equal(t, DefaultOptions(), OptionsFromConfig(cfg))

	cfg.Pipeline.Months = []string{"4月", "5月", "6月"}
	cfg.Pipeline.MatchMode = "exact"
	cfg.Pipeline.FillScope = "global"
	cfg.Pipeline.ProjectLabels = []string{"项目"}
	cfg.Export.SummarySheet = "汇总"

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, calculator.MatchExact, opts.Matcher.Mode())
	assert.Equal(t, []string{"4月", "5月", "6月"}, opts.Matcher.Markers())
	assert.Equal(t, FillGlobal, opts.FillScope)
	assert.Equal(t, []string{"项目"}, opts.Schema.Labels[model.FieldProjectName])
	assert.Equal(t, "汇总", opts.Export.SummarySheet)
}
