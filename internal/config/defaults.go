package config

import (
	"strings"
)

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9992"
	defaultAppLogPath  = "data/logs/alphawatch.log"
	defaultAppLLMLog   = "data/logs/alphawatch-llm.log"

	defaultMarketSource  = "okx"
	defaultMarketInstID  = "ETH-USDT-SWAP"
	defaultMarketTimeout = 10
	defaultCandleLimit   = 100
	defaultOrderBookSize = 20
	defaultTradesLimit   = 50

	defaultAITimeout         = 60
	defaultAIMaxRetries      = 2
	defaultAITemperature     = 0.5
	defaultBreakerThreshold  = 3
	defaultBreakerCooldown   = 300
	defaultStrategyPreset    = "balanced"
	defaultPositionFile      = "data/positions.json"
	defaultRecordsDBPath     = "data/db/analysis.db"
	defaultAlertLogDBPath    = "data/db/alerts.db"
	defaultEmailPort         = 587
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Strategy.applyDefaults(keys)
	c.Position.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.llm_log_path", &a.LLMLog, defaultAppLLMLog),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("market.source", &m.Source, defaultMarketSource),
		stringFieldDefault("market.inst_id", &m.InstID, defaultMarketInstID),
		fieldDefault{
			key:   "market.timeout_seconds",
			need:  func() bool { return m.TimeoutSeconds <= 0 },
			apply: func() { m.TimeoutSeconds = defaultMarketTimeout },
		},
		fieldDefault{
			key:   "market.candle_limit",
			need:  func() bool { return m.CandleLimit <= 0 },
			apply: func() { m.CandleLimit = defaultCandleLimit },
		},
		fieldDefault{
			key:   "market.orderbook_size",
			need:  func() bool { return m.OrderBookSize <= 0 },
			apply: func() { m.OrderBookSize = defaultOrderBookSize },
		},
		fieldDefault{
			key:   "market.trades_limit",
			need:  func() bool { return m.TradesLimit <= 0 },
			apply: func() { m.TradesLimit = defaultTradesLimit },
		},
	)
	m.Source = strings.ToLower(strings.TrimSpace(m.Source))
}

func (a *AIConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "ai.timeout_seconds",
			need:  func() bool { return a.TimeoutSeconds <= 0 },
			apply: func() { a.TimeoutSeconds = defaultAITimeout },
		},
		fieldDefault{
			key:   "ai.max_retries",
			need:  func() bool { return a.MaxRetries <= 0 },
			apply: func() { a.MaxRetries = defaultAIMaxRetries },
		},
		fieldDefault{
			key:   "ai.temperature",
			need:  func() bool { return a.Temperature <= 0 },
			apply: func() { a.Temperature = defaultAITemperature },
		},
		fieldDefault{
			key:   "ai.breaker_threshold",
			need:  func() bool { return a.BreakerThreshold <= 0 },
			apply: func() { a.BreakerThreshold = defaultBreakerThreshold },
		},
		fieldDefault{
			key:   "ai.breaker_cooldown_seconds",
			need:  func() bool { return a.BreakerCooldownSeconds <= 0 },
			apply: func() { a.BreakerCooldownSeconds = defaultBreakerCooldown },
		},
	)
}

func (s *StrategyConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("strategy.preset", &s.Preset, defaultStrategyPreset),
	)
}

func (p *PositionConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("position.file", &p.File, defaultPositionFile),
		boolFieldDefault("position.watch", &p.Watch, true),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.records_db", &s.RecordsDB, defaultRecordsDBPath),
		stringFieldDefault("store.alert_log_db", &s.AlertLogDB, defaultAlertLogDBPath),
	)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "notify.email.port",
			need:  func() bool { return n.Email.Port <= 0 },
			apply: func() { n.Email.Port = defaultEmailPort },
		},
	)
	if strings.TrimSpace(n.Email.From) == "" {
		n.Email.From = n.Email.Username
	}
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
