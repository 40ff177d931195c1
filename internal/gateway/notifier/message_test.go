package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alphawatch/internal/decision"
	"alphawatch/internal/position"
)

func fp(v float64) *float64 { return &v }

func sampleAlert() Alert {
	return Alert{
		Instrument: "ETH-USDT-SWAP",
		Price:      2450.1234,
		Recommendation: decision.Recommendation{
			Action:        decision.ActionSell,
			Confidence:    85,
			Analysis:      "动能衰竭",
			SupportLevels: []float64{2400, 2350},
		},
		Positions: []position.Position{{
			Instrument: "ETH-USDT-SWAP",
			Direction:  position.DirectionLong,
			EntryPrice: 2400,
			Size:       1,
			Leverage:   5,
		}},
		Strategy: "balanced",
		Time:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildAlertMessage(t *testing.T) {
	msg := BuildAlertMessage(sampleAlert())
	body := msg.RenderMarkdown()

	assert.Contains(t, body, "ETH-USDT-SWAP")
	assert.Contains(t, body, "动作: SELL")
	assert.Contains(t, body, "置信度: 85")
	assert.Contains(t, body, "支撑: 2400.0000 / 2350.0000")
	assert.Contains(t, body, "策略: balanced")
	assert.Contains(t, body, "时间：2025-06-01")
	assert.Equal(t, "📊", msg.Icon)
}

func TestBuildAlertMessageUrgent(t *testing.T) {
	a := sampleAlert()
	a.Recommendation.UrgentAction = true
	a.Recommendation.UrgentReason = "止损已触发"
	msg := BuildAlertMessage(a)
	assert.Equal(t, "🚨", msg.Icon)
	assert.Contains(t, msg.RenderMarkdown(), "止损已触发")
}

func TestBuildAlertMessageAdjustment(t *testing.T) {
	a := sampleAlert()
	a.Recommendation.Action = decision.ActionAdjustStops
	a.Recommendation.StopAdjustment = decision.StopAdjustment{
		ShouldAdjust:      true,
		NewStopLoss:       fp(2420),
		AdjustmentPercent: fp(2.5),
		Reason:            "移动止损",
	}
	a.SignificantAdjustment = true
	body := BuildAlertMessage(a).RenderMarkdown()
	assert.Contains(t, body, "新止损: 2420.0000")
	assert.Contains(t, body, "调整幅度: 2.50%")
	assert.Contains(t, body, "显著调整")
}

func TestRenderMarkdownTruncates(t *testing.T) {
	msg := StructuredMessage{
		Title:    "test",
		Sections: []MessageSection{{Title: "s", Lines: []string{strings.Repeat("x", 5000)}}},
	}
	body := msg.RenderMarkdown()
	assert.LessOrEqual(t, len(body), maxStructuredMessageLen+3)
	assert.True(t, strings.HasSuffix(body, "..."))
}

func TestRenderMarkdownSanitizesFences(t *testing.T) {
	msg := StructuredMessage{
		Title:    "t",
		Sections: []MessageSection{{Lines: []string{"code ``` inside"}}},
	}
	body := msg.RenderMarkdown()
	assert.Contains(t, body, "'''")
}

func TestRenderHTMLEscapes(t *testing.T) {
	msg := StructuredMessage{
		Title:    "<b>alert</b>",
		Sections: []MessageSection{{Title: "sec", Lines: []string{"a < b"}}},
	}
	body := msg.RenderHTML()
	assert.Contains(t, body, "&lt;b&gt;alert&lt;/b&gt;")
	assert.Contains(t, body, "a &lt; b")
	assert.NotContains(t, body, "<b>alert</b>")
}

func TestEmptySectionsSkipped(t *testing.T) {
	msg := StructuredMessage{
		Title:    "t",
		Sections: []MessageSection{{Title: "empty", Lines: []string{"  ", ""}}},
	}
	body := msg.RenderMarkdown()
	assert.NotContains(t, body, "empty")
	assert.NotContains(t, body, "```")
}
