package decision

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"alphawatch/internal/pkg/jsonutil"
	"alphawatch/internal/pkg/text"
)

// Normalize 把上游松散的 map 载荷整理成规范 Recommendation。
// 缺失字段一律填类型化默认值，绝不让 nil 渗入决策引擎；
// 非法载荷降级而不是中断周期。
func Normalize(raw map[string]any) Recommendation {
	rec := Recommendation{
		Action:           ActionUnknown,
		SupportLevels:    []float64{},
		ResistanceLevels: []float64{},
	}
	if raw == nil {
		return rec
	}

	if v, ok := raw["action"]; ok {
		if a, valid := ParseAction(coerceString(v)); valid {
			rec.Action = a
		}
	}
	rec.Confidence = clampConfidence(coerceFloat64(raw["confidence"]))
	rec.Analysis = coerceString(raw["analysis"])
	rec.Reasoning = coerceString(raw["reasoning"])
	rec.SupportLevels = coerceFloatSlice(raw["support_levels"])
	rec.ResistanceLevels = coerceFloatSlice(raw["resistance_levels"])
	rec.StopAdjustment = normalizeStopAdjustment(raw["stop_adjustment"])
	rec.UrgentAction = coerceBool(raw["urgent_action"])
	rec.UrgentReason = coerceString(raw["urgent_reason"])
	return rec
}

// normalizeStopAdjustment 子对象缺失或部分缺失时逐字段默认，不整体丢弃。
func normalizeStopAdjustment(v any) StopAdjustment {
	adj := StopAdjustment{}
	m, ok := v.(map[string]any)
	if !ok {
		return adj
	}
	adj.ShouldAdjust = coerceBool(m["should_adjust"])
	adj.NewTakeProfit = coerceFloatPtr(m["new_take_profit"])
	adj.NewStopLoss = coerceFloatPtr(m["new_stop_loss"])
	adj.AdjustmentPercent = coerceFloatPtr(m["adjustment_percent"])
	adj.Reason = coerceString(m["reason"])
	return adj
}

// Parse 解析分析端返回的原始文本：
//  1. 文本中定位第一个 '{' 到最后一个 '}' 的 JSON 片段并解析；
//  2. 片段缺失或解析失败时，整段文本作为 analysis/reasoning，
//     降级为 HOLD / confidence 50。
func Parse(rawText string) Recommendation {
	if span, ok := jsonutil.ExtractObject(rawText); ok && gjson.Valid(span) {
		var m map[string]any
		if err := json.Unmarshal([]byte(span), &m); err == nil {
			return Normalize(m)
		}
	}
	fallback := strings.TrimSpace(rawText)
	return Recommendation{
		Action:           ActionHold,
		Confidence:       50,
		Analysis:         fallback,
		Reasoning:        text.Truncate(fallback, 500),
		SupportLevels:    []float64{},
		ResistanceLevels: []float64{},
	}
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func coerceFloat64(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return strings.EqualFold(strings.TrimSpace(x), "true")
	case float64:
		return x != 0
	default:
		return false
	}
}

// coerceFloatPtr 区分 "缺失" 与 "值为 0"：nil / 非数值返回 nil。
func coerceFloatPtr(v any) *float64 {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f := x
		return &f
	case float32:
		f := float64(x)
		return &f
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return &f
		}
		return nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
		return nil
	default:
		return nil
	}
}

func coerceFloatSlice(v any) []float64 {
	arr, ok := v.([]any)
	if !ok {
		return []float64{}
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		if p := coerceFloatPtr(item); p != nil {
			out = append(out, *p)
		}
	}
	return out
}
