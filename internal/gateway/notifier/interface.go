package notifier

import (
	"time"

	"alphawatch/internal/decision"
	"alphawatch/internal/position"
)

// Alert 一次待发送告警的完整载荷。
type Alert struct {
	Instrument     string
	Price          float64
	Recommendation decision.Recommendation
	Positions      []position.Position
	// SignificantAdjustment 价位变化超过现价 2% 带宽时为 true，只作标注
	SignificantAdjustment bool
	Strategy              string
	Time                  time.Time
}

// Notifier 告警通道抽象。实现自行负责重试，失败返回错误但绝不 panic，
// 由编排层记录失败并继续。
type Notifier interface {
	Name() string
	Send(alert Alert) error
}

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so different components can depend on it without
// importing concrete implementations (e.g. Telegram).
type TextNotifier interface {
	SendText(text string) error
}
