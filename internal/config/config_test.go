package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `ai:
  api_url: https://api.deepseek.com/v1
  model: deepseek-chat
`

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", minimalConfig)

	cfg, err := Load(path)
	assert.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "okx", cfg.Market.Source)
	assert.Equal(t, "ETH-USDT-SWAP", cfg.Market.InstID)
	assert.Equal(t, 100, cfg.Market.CandleLimit)
	assert.Equal(t, 60, cfg.AI.TimeoutSeconds)
	assert.Equal(t, 3, cfg.AI.BreakerThreshold)
	assert.Equal(t, "balanced", cfg.Strategy.Preset)
	assert.True(t, cfg.Position.Watch)
	assert.Equal(t, 587, cfg.Notify.Email.Port)
}

func TestLoadExplicitValuesWin(t *testing.T) {
	dir := t.TempDir()
	content := minimalConfig + `market:
  source: binance
  inst_id: BTC-USDT-SWAP
  candle_limit: 200
position:
  watch: false
`
	path := writeFile(t, dir, "config.yaml", content)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "binance", cfg.Market.Source)
	assert.Equal(t, "BTC-USDT-SWAP", cfg.Market.InstID)
	assert.Equal(t, 200, cfg.Market.CandleLimit)
	// 显式写 false 时不被默认值覆盖
	assert.False(t, cfg.Position.Watch)
}

func TestLoadStrategyOverrides(t *testing.T) {
	dir := t.TempDir()
	content := minimalConfig + `strategy:
  preset: aggressive
  overrides:
    confidence_threshold: 85
    analysis_interval: 30m
`
	path := writeFile(t, dir, "config.yaml", content)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "aggressive", cfg.Strategy.Preset)
	if assert.NotNil(t, cfg.Strategy.Overrides.ConfidenceThreshold) {
		assert.InDelta(t, 85.0, *cfg.Strategy.Overrides.ConfidenceThreshold, 1e-9)
	}
	if assert.NotNil(t, cfg.Strategy.Overrides.AnalysisInterval) {
		assert.Equal(t, "30m", *cfg.Strategy.Overrides.AnalysisInterval)
	}
	// 未写的覆盖字段保持 nil
	assert.Nil(t, cfg.Strategy.Overrides.StopLossPct)
}

func TestLoadIncludeMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `market:
  inst_id: BTC-USDT-SWAP
  candle_limit: 50
`)
	main := writeFile(t, dir, "config.yaml", `include:
  - base.yaml
`+minimalConfig+`market:
  candle_limit: 150
`)

	cfg, err := Load(main)
	assert.NoError(t, err)
	// include 先读，主文件覆盖
	assert.Equal(t, "BTC-USDT-SWAP", cfg.Market.InstID)
	assert.Equal(t, 150, cfg.Market.CandleLimit)
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing ai api_url", func(t *testing.T) {
		path := writeFile(t, dir, "no_ai.yaml", "ai:\n  model: deepseek-chat\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("bad market source", func(t *testing.T) {
		path := writeFile(t, dir, "bad_source.yaml", minimalConfig+"market:\n  source: kraken\n")
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("email enabled requires recipients", func(t *testing.T) {
		path := writeFile(t, dir, "bad_email.yaml", minimalConfig+`notify:
  email:
    enabled: true
    host: smtp.example.com
`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", minimalConfig)

	t.Setenv("ALPHAWATCH_AI_API_KEY", "sk-test-1234")
	t.Setenv("ALPHAWATCH_STRATEGY", "aggressive")

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "sk-test-1234", cfg.AI.APIKey)
	assert.Equal(t, "aggressive", cfg.Strategy.Preset)
}
