package strategy

import (
	"fmt"
	"strings"
	"time"

	"alphawatch/internal/scheduler"
)

// 中文说明：
// 策略预设：一组分析节奏与告警阈值的打包参数。内置 aggressive / balanced /
// conservative 三档，外部 YAML 可覆盖或追加，单字段允许手动覆盖。

// Params 单个策略的完整参数。
type Params struct {
	Name                string  `mapstructure:"name" yaml:"name" json:"name"`
	Description         string  `mapstructure:"description" yaml:"description" json:"description"`
	Timeframe           string  `mapstructure:"timeframe" yaml:"timeframe" json:"timeframe"`
	AnalysisInterval    string  `mapstructure:"analysis_interval" yaml:"analysis_interval" json:"analysis_interval"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" json:"confidence_threshold"`
	RSIOversold         float64 `mapstructure:"rsi_oversold" yaml:"rsi_oversold" json:"rsi_oversold"`
	RSIOverbought       float64 `mapstructure:"rsi_overbought" yaml:"rsi_overbought" json:"rsi_overbought"`
	ProfitTargetPct     float64 `mapstructure:"profit_target_pct" yaml:"profit_target_pct" json:"profit_target_pct"`
	StopLossPct         float64 `mapstructure:"stop_loss_pct" yaml:"stop_loss_pct" json:"stop_loss_pct"`
	AdjustmentThreshold float64 `mapstructure:"adjustment_threshold" yaml:"adjustment_threshold" json:"adjustment_threshold"`
}

// Interval 返回解析后的分析间隔，非法值回退 15m。
func (p Params) Interval() time.Duration {
	if d, ok := scheduler.ParseIntervalDuration(p.AnalysisInterval); ok {
		return d
	}
	return 15 * time.Minute
}

// Validate 校验策略参数不变量。
func (p Params) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("strategy name is empty")
	}
	if _, ok := scheduler.ParseIntervalDuration(p.AnalysisInterval); !ok {
		return fmt.Errorf("strategy %s: invalid analysis_interval %q", p.Name, p.AnalysisInterval)
	}
	if _, ok := scheduler.ParseIntervalDuration(p.Timeframe); !ok {
		return fmt.Errorf("strategy %s: invalid timeframe %q", p.Name, p.Timeframe)
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 100 {
		return fmt.Errorf("strategy %s: confidence_threshold must be in [0,100], got %v", p.Name, p.ConfidenceThreshold)
	}
	if p.RSIOversold <= 0 || p.RSIOverbought >= 100 || p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("strategy %s: invalid rsi band [%v, %v]", p.Name, p.RSIOversold, p.RSIOverbought)
	}
	if p.AdjustmentThreshold < 0 {
		return fmt.Errorf("strategy %s: adjustment_threshold must be >= 0, got %v", p.Name, p.AdjustmentThreshold)
	}
	return nil
}

// Overrides 单字段手动覆盖，指针为 nil 表示沿用预设值。
type Overrides struct {
	Timeframe           *string  `mapstructure:"timeframe" yaml:"timeframe" toml:"timeframe"`
	AnalysisInterval    *string  `mapstructure:"analysis_interval" yaml:"analysis_interval" toml:"analysis_interval"`
	ConfidenceThreshold *float64 `mapstructure:"confidence_threshold" yaml:"confidence_threshold" toml:"confidence_threshold"`
	RSIOversold         *float64 `mapstructure:"rsi_oversold" yaml:"rsi_oversold" toml:"rsi_oversold"`
	RSIOverbought       *float64 `mapstructure:"rsi_overbought" yaml:"rsi_overbought" toml:"rsi_overbought"`
	ProfitTargetPct     *float64 `mapstructure:"profit_target_pct" yaml:"profit_target_pct" toml:"profit_target_pct"`
	StopLossPct         *float64 `mapstructure:"stop_loss_pct" yaml:"stop_loss_pct" toml:"stop_loss_pct"`
	AdjustmentThreshold *float64 `mapstructure:"adjustment_threshold" yaml:"adjustment_threshold" toml:"adjustment_threshold"`
}

// Apply 把覆盖项合入预设，返回合并结果。
func (o Overrides) Apply(base Params) Params {
	out := base
	if o.Timeframe != nil {
		out.Timeframe = *o.Timeframe
	}
	if o.AnalysisInterval != nil {
		out.AnalysisInterval = *o.AnalysisInterval
	}
	if o.ConfidenceThreshold != nil {
		out.ConfidenceThreshold = *o.ConfidenceThreshold
	}
	if o.RSIOversold != nil {
		out.RSIOversold = *o.RSIOversold
	}
	if o.RSIOverbought != nil {
		out.RSIOverbought = *o.RSIOverbought
	}
	if o.ProfitTargetPct != nil {
		out.ProfitTargetPct = *o.ProfitTargetPct
	}
	if o.StopLossPct != nil {
		out.StopLossPct = *o.StopLossPct
	}
	if o.AdjustmentThreshold != nil {
		out.AdjustmentThreshold = *o.AdjustmentThreshold
	}
	return out
}

// builtinPresets 内置三档预设。
func builtinPresets() map[string]Params {
	return map[string]Params{
		"aggressive": {
			Name:                "aggressive",
			Description:         "短周期高频，低置信度门槛，紧止损",
			Timeframe:           "5m",
			AnalysisInterval:    "5m",
			ConfidenceThreshold: 70,
			RSIOversold:         35,
			RSIOverbought:       65,
			ProfitTargetPct:     3,
			StopLossPct:         1.5,
			AdjustmentThreshold: 1,
		},
		"balanced": {
			Name:                "balanced",
			Description:         "默认档，15 分钟节奏",
			Timeframe:           "15m",
			AnalysisInterval:    "15m",
			ConfidenceThreshold: 80,
			RSIOversold:         30,
			RSIOverbought:       70,
			ProfitTargetPct:     5,
			StopLossPct:         2.5,
			AdjustmentThreshold: 2,
		},
		"conservative": {
			Name:                "conservative",
			Description:         "长周期低频，高置信度门槛，宽止损",
			Timeframe:           "1h",
			AnalysisInterval:    "1h",
			ConfidenceThreshold: 90,
			RSIOversold:         25,
			RSIOverbought:       75,
			ProfitTargetPct:     8,
			StopLossPct:         4,
			AdjustmentThreshold: 3,
		},
	}
}

// DefaultPreset 未指定或未知策略时的兜底。
const DefaultPreset = "balanced"
