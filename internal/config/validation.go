package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	return nil
}

func (m *MarketConfig) validate() error {
	switch m.Source {
	case "okx", "binance":
	default:
		return fmt.Errorf("market.source must be okx or binance, got %q", m.Source)
	}
	if strings.TrimSpace(m.InstID) == "" {
		return fmt.Errorf("market.inst_id cannot be empty")
	}
	return nil
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("ai.api_url cannot be empty")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Email.Enabled {
		if strings.TrimSpace(n.Email.Host) == "" {
			return fmt.Errorf("notify.email.host cannot be empty when email is enabled")
		}
		if len(n.Email.To) == 0 {
			return fmt.Errorf("notify.email.to requires at least one recipient")
		}
	}
	if n.Telegram.Enabled {
		if strings.TrimSpace(n.Telegram.BotToken) == "" || strings.TrimSpace(n.Telegram.ChatID) == "" {
			return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
		}
	}
	return nil
}
