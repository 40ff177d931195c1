package decision

import (
	"encoding/json"
	"strings"
)

// Action 建议动作枚举。
type Action string

const (
	ActionBuyLong     Action = "BUY_LONG"
	ActionBuyShort    Action = "BUY_SHORT"
	ActionSell        Action = "SELL"
	ActionAdjustStops Action = "ADJUST_STOPS"
	ActionHold        Action = "HOLD"
	ActionWatch       Action = "WATCH"
	// ActionUnknown 上游缺失 action 字段时的哨兵值
	ActionUnknown Action = "unknown"
)

// knownActions 规范化时用于识别合法动作。
var knownActions = map[Action]bool{
	ActionBuyLong:     true,
	ActionBuyShort:    true,
	ActionSell:        true,
	ActionAdjustStops: true,
	ActionHold:        true,
	ActionWatch:       true,
}

// ParseAction 宽松解析动作字符串，未知值原样返回并标记非法。
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	return a, knownActions[a]
}

// IsPositionChanging 开仓/平仓类动作，进入通知判定第 3 优先级。
func (a Action) IsPositionChanging() bool {
	return a == ActionBuyLong || a == ActionBuyShort || a == ActionSell
}

// StopAdjustment 止盈止损调整建议。由分析端产出，调整幅度允许缺省。
type StopAdjustment struct {
	ShouldAdjust      bool     `json:"should_adjust"`
	NewTakeProfit     *float64 `json:"new_take_profit"`
	NewStopLoss       *float64 `json:"new_stop_loss"`
	AdjustmentPercent *float64 `json:"adjustment_percent"`
	Reason            string   `json:"reason"`
}

// Recommendation 规范化后的分析结论，决策引擎的唯一输入。
// 规范化保证所有字段非空（缺失字段已填入类型化默认值）。
type Recommendation struct {
	Action           Action         `json:"action"`
	Confidence       float64        `json:"confidence"`
	Analysis         string         `json:"analysis"`
	Reasoning        string         `json:"reasoning"`
	SupportLevels    []float64      `json:"support_levels"`
	ResistanceLevels []float64      `json:"resistance_levels"`
	StopAdjustment   StopAdjustment `json:"stop_adjustment"`
	UrgentAction     bool           `json:"urgent_action"`
	UrgentReason     string         `json:"urgent_reason"`
}

// ToRaw 把规范化结果序列化回 JSON 文本，供落库与重入 Normalize。
func (r Recommendation) ToRaw() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}
