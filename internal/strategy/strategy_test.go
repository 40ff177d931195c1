package strategy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sp(v string) *string   { return &v }
func fp(v float64) *float64 { return &v }

func TestBuiltinPresets(t *testing.T) {
	presets := builtinPresets()
	assert.Len(t, presets, 3)
	for name, p := range presets {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, p.Validate())
			assert.Equal(t, name, p.Name)
		})
	}
	assert.InDelta(t, 80.0, presets["balanced"].ConfidenceThreshold, 1e-9)
	assert.InDelta(t, 2.0, presets["balanced"].AdjustmentThreshold, 1e-9)
}

func TestParamsInterval(t *testing.T) {
	p := Params{AnalysisInterval: "5m"}
	assert.Equal(t, 5*time.Minute, p.Interval())

	// 非法间隔回退 15m
	p.AnalysisInterval = "whenever"
	assert.Equal(t, 15*time.Minute, p.Interval())
}

func TestOverridesApply(t *testing.T) {
	base := builtinPresets()["balanced"]
	out := Overrides{
		ConfidenceThreshold: fp(85),
		AnalysisInterval:    sp("30m"),
	}.Apply(base)

	assert.InDelta(t, 85.0, out.ConfidenceThreshold, 1e-9)
	assert.Equal(t, "30m", out.AnalysisInterval)
	// 未覆盖字段保持预设值
	assert.Equal(t, base.Timeframe, out.Timeframe)
	assert.InDelta(t, base.AdjustmentThreshold, out.AdjustmentThreshold, 1e-9)
}

func TestRegistrySelect(t *testing.T) {
	r, err := NewRegistry("")
	assert.NoError(t, err)

	t.Run("known preset", func(t *testing.T) {
		p := r.Select("aggressive")
		assert.Equal(t, "aggressive", p.Name)
	})

	t.Run("case and space insensitive", func(t *testing.T) {
		p := r.Select("  Conservative ")
		assert.Equal(t, "conservative", p.Name)
	})

	t.Run("unknown falls back to balanced", func(t *testing.T) {
		p := r.Select("yolo")
		assert.Equal(t, "balanced", p.Name)
	})
}

func TestRegistryFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategies.yaml")
	content := `strategies:
  balanced:
    confidence_threshold: 85
  scalping:
    timeframe: 1m
    analysis_interval: 1m
    confidence_threshold: 65
    rsi_oversold: 40
    rsi_overbought: 60
    profit_target_pct: 1.5
    stop_loss_pct: 0.8
    adjustment_threshold: 0.5
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := NewRegistry(path)
	assert.NoError(t, err)

	// 同名预设只覆盖差异字段
	balanced := r.Select("balanced")
	assert.InDelta(t, 85.0, balanced.ConfidenceThreshold, 1e-9)
	assert.Equal(t, "15m", balanced.Timeframe)

	// 新增预设完整生效
	scalping := r.Select("scalping")
	assert.Equal(t, "scalping", scalping.Name)
	assert.Equal(t, "1m", scalping.Timeframe)
	assert.InDelta(t, 0.5, scalping.AdjustmentThreshold, 1e-9)
}

func TestRegistryRejectsBadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("schema violation", func(t *testing.T) {
		path := filepath.Join(dir, "bad_type.yaml")
		content := "strategies:\n  balanced:\n    confidence_threshold: high\n"
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := NewRegistry(path)
		assert.Error(t, err)
	})

	t.Run("invalid interval", func(t *testing.T) {
		path := filepath.Join(dir, "bad_interval.yaml")
		content := "strategies:\n  balanced:\n    analysis_interval: whenever\n"
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := NewRegistry(path)
		assert.Error(t, err)
	})
}
