package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"alphawatch/internal/logger"
)

// fileConfig 映射 strategies.yaml。
type fileConfig struct {
	Strategies map[string]Params `mapstructure:"strategies" yaml:"strategies"`
}

// Snapshot 公开的策略集快照。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Presets  map[string]Params
}

// ChangeListener 策略集重载后触发。
type ChangeListener func(Snapshot)

// Registry 管理策略预设：内置三档打底，YAML 文件覆盖/追加并支持热更新。
type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// strategySchema 对 YAML 中的单个策略做结构校验，越过 Validate 之前先挡掉
// 类型错误（字符串写进数字字段等）。
const strategySchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "timeframe": {"type": "string"},
    "analysis_interval": {"type": "string"},
    "confidence_threshold": {"type": "number", "minimum": 0, "maximum": 100},
    "rsi_oversold": {"type": "number"},
    "rsi_overbought": {"type": "number"},
    "profit_target_pct": {"type": "number"},
    "stop_loss_pct": {"type": "number"},
    "adjustment_threshold": {"type": "number", "minimum": 0}
  },
  "additionalProperties": false
}`

var compiledStrategySchema = jsonschema.MustCompileString("strategy.json", strategySchema)

// NewRegistry 构建策略注册表。path 为空时仅用内置预设，不监听文件。
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path)}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if r.path == "" {
		return r, nil
	}

	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read strategy config failed: %w", err)
	}
	r.v = v
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := r.reload(); err != nil {
			logger.Errorf("策略配置重载失败: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	return r, nil
}

// OnChange 注册重载回调。
func (r *Registry) OnChange(fn ChangeListener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Snapshot 返回当前策略集拷贝。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

// Select 按名称取策略。未知名称回退 balanced 并告警，绝不让进程因为
// 配置里写错一个策略名而起不来。
func (r *Registry) Select(name string) Params {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.snapshot.Presets[key]; ok {
		return p
	}
	logger.Warnf("未知策略 %q，回退到 %s", name, DefaultPreset)
	return r.snapshot.Presets[DefaultPreset]
}

func (r *Registry) reload() error {
	presets := builtinPresets()

	if r.path != "" {
		cfg, err := readStrategyFile(r.path)
		if err != nil {
			return err
		}
		for name, p := range cfg.Strategies {
			key := strings.ToLower(strings.TrimSpace(name))
			if p.Name == "" {
				p.Name = key
			}
			// 文件里允许只写差异字段，其余从同名内置预设补齐
			if base, ok := presets[key]; ok {
				p = mergeParams(base, p)
			}
			if err := p.Validate(); err != nil {
				return fmt.Errorf("strategy file %s: %w", filepath.Base(r.path), err)
			}
			presets[key] = p
		}
	}

	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Presets:  presets,
	}
	r.mu.Unlock()
	logger.Infof("策略注册表已加载 %d 档预设", len(presets))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		if fn == nil {
			continue
		}
		go func(cb ChangeListener) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf("strategy listener panic: %v", rec)
				}
			}()
			cb(snap)
		}(fn)
	}
}

func mergeParams(base, over Params) Params {
	out := base
	out.Name = over.Name
	if over.Description != "" {
		out.Description = over.Description
	}
	if over.Timeframe != "" {
		out.Timeframe = over.Timeframe
	}
	if over.AnalysisInterval != "" {
		out.AnalysisInterval = over.AnalysisInterval
	}
	if over.ConfidenceThreshold != 0 {
		out.ConfidenceThreshold = over.ConfidenceThreshold
	}
	if over.RSIOversold != 0 {
		out.RSIOversold = over.RSIOversold
	}
	if over.RSIOverbought != 0 {
		out.RSIOverbought = over.RSIOverbought
	}
	if over.ProfitTargetPct != 0 {
		out.ProfitTargetPct = over.ProfitTargetPct
	}
	if over.StopLossPct != 0 {
		out.StopLossPct = over.StopLossPct
	}
	if over.AdjustmentThreshold != 0 {
		out.AdjustmentThreshold = over.AdjustmentThreshold
	}
	return out
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Presets:  make(map[string]Params, len(src.Presets)),
	}
	for k, p := range src.Presets {
		dst.Presets[k] = p
	}
	return dst
}

func readStrategyFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read strategy config failed: %w", err)
	}

	// 先用 yaml 宽松解析成 map，逐个策略过 schema，再严格解码
	var loose struct {
		Strategies map[string]map[string]any `yaml:"strategies"`
	}
	if err := yaml.Unmarshal(raw, &loose); err != nil {
		return fileConfig{}, fmt.Errorf("parse strategy config failed: %w", err)
	}
	for name, body := range loose.Strategies {
		if err := compiledStrategySchema.Validate(toJSONValue(body)); err != nil {
			return fileConfig{}, fmt.Errorf("strategy %q schema check failed: %w", name, err)
		}
	}

	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse strategy config failed: %w", err)
	}
	return cfg, nil
}

// toJSONValue 把 yaml 解出的 map 走一遍 JSON 往返，归一成 jsonschema
// 认识的类型（int → float64 等）。
func toJSONValue(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
