package config

import (
	"strings"
	"time"

	"alphawatch/internal/strategy"
)

// Config 是 alphawatch 的主配置载体。进程启动时构造一次，
// 之后按值/引用传进各组件构造函数，组件内部不做任何全局查找。
type Config struct {
	App      AppConfig      `toml:"app"`
	Market   MarketConfig   `toml:"market"`
	AI       AIConfig       `toml:"ai"`
	Strategy StrategyConfig `toml:"strategy"`
	Position PositionConfig `toml:"position"`
	Store    StoreConfig    `toml:"store"`
	Notify   NotifyConfig   `toml:"notify"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
}

type MarketConfig struct {
	// Source okx | binance
	Source         string `toml:"source"`
	RESTBaseURL    string `toml:"rest_base_url"`
	InstID         string `toml:"inst_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CandleLimit    int    `toml:"candle_limit"`
	OrderBookSize  int    `toml:"orderbook_size"`
	TradesLimit    int    `toml:"trades_limit"`
}

func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

type AIConfig struct {
	APIURL         string  `toml:"api_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	MaxRetries     int     `toml:"max_retries"`
	// 熔断：连续失败 BreakerThreshold 次后打开，冷却 BreakerCooldownSeconds 秒
	BreakerThreshold       int `toml:"breaker_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

func (a AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

func (a AIConfig) BreakerCooldown() time.Duration {
	return time.Duration(a.BreakerCooldownSeconds) * time.Second
}

// StrategyConfig 策略选择：预设名 + 可选的预设文件 + 单字段覆盖。
type StrategyConfig struct {
	Preset    string             `toml:"preset"`
	File      string             `toml:"file"`
	Overrides strategy.Overrides `toml:"overrides"`
}

type PositionConfig struct {
	File  string `toml:"file"`
	Watch bool   `toml:"watch"`
}

type StoreConfig struct {
	RecordsDB  string `toml:"records_db"`
	AlertLogDB string `toml:"alert_log_db"`
}

type NotifyConfig struct {
	Email    EmailConfig    `toml:"email"`
	Telegram TelegramConfig `toml:"telegram"`
}

type EmailConfig struct {
	Enabled  bool     `toml:"enabled"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	To       []string `toml:"to"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
