package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alphawatch/internal/position"
)

func fp(v float64) *float64 { return &v }

func TestShouldNotifyPriority(t *testing.T) {
	eng := NewEngine(80, 2.0)

	t.Run("urgent overrides confidence gate", func(t *testing.T) {
		rec := Recommendation{Action: ActionHold, Confidence: 0, UrgentAction: true}
		assert.True(t, eng.ShouldNotify(rec))
	})

	t.Run("confidence gate is absolute below threshold", func(t *testing.T) {
		rec := Recommendation{Action: ActionBuyLong, Confidence: 79}
		assert.False(t, eng.ShouldNotify(rec))
	})

	t.Run("position changing actions notify once gate cleared", func(t *testing.T) {
		for _, a := range []Action{ActionBuyLong, ActionBuyShort, ActionSell} {
			rec := Recommendation{Action: a, Confidence: 80}
			assert.True(t, eng.ShouldNotify(rec), string(a))
		}
	})

	t.Run("high confidence hold stays silent", func(t *testing.T) {
		rec := Recommendation{Action: ActionHold, Confidence: 90}
		assert.False(t, eng.ShouldNotify(rec))
	})

	t.Run("watch stays silent", func(t *testing.T) {
		rec := Recommendation{Action: ActionWatch, Confidence: 100}
		assert.False(t, eng.ShouldNotify(rec))
	})
}

func TestShouldNotifyAdjustStops(t *testing.T) {
	eng := NewEngine(80, 2.0)

	t.Run("missing adjustment percent is conservative", func(t *testing.T) {
		rec := Recommendation{Action: ActionAdjustStops, Confidence: 90}
		assert.False(t, eng.ShouldNotify(rec))
	})

	t.Run("above threshold notifies", func(t *testing.T) {
		rec := Recommendation{Action: ActionAdjustStops, Confidence: 85,
			StopAdjustment: StopAdjustment{AdjustmentPercent: fp(2.5)}}
		assert.True(t, eng.ShouldNotify(rec))
	})

	t.Run("below threshold stays silent", func(t *testing.T) {
		rec := Recommendation{Action: ActionAdjustStops, Confidence: 85,
			StopAdjustment: StopAdjustment{AdjustmentPercent: fp(1.0)}}
		assert.False(t, eng.ShouldNotify(rec))
	})

	t.Run("negative adjustment compared by magnitude", func(t *testing.T) {
		rec := Recommendation{Action: ActionAdjustStops, Confidence: 85,
			StopAdjustment: StopAdjustment{AdjustmentPercent: fp(-3.0)}}
		assert.True(t, eng.ShouldNotify(rec))
	})

	t.Run("exactly at threshold stays silent", func(t *testing.T) {
		rec := Recommendation{Action: ActionAdjustStops, Confidence: 85,
			StopAdjustment: StopAdjustment{AdjustmentPercent: fp(2.0)}}
		assert.False(t, eng.ShouldNotify(rec))
	})
}

func TestIsSignificantAdjustment(t *testing.T) {
	pos := position.Position{
		Instrument: "ETH-USDT-SWAP",
		Direction:  position.DirectionLong,
		EntryPrice: 2400,
		Size:       1,
		Leverage:   5,
		TakeProfit: fp(2500),
		StopLoss:   fp(2350),
	}
	price := 2450.0 // 2% 带宽 = 49

	t.Run("take profit delta above band", func(t *testing.T) {
		adj := StopAdjustment{NewTakeProfit: fp(2560)}
		assert.True(t, IsSignificantAdjustment(adj, pos, price))
	})

	t.Run("delta inside band", func(t *testing.T) {
		adj := StopAdjustment{NewTakeProfit: fp(2530), NewStopLoss: fp(2360)}
		assert.False(t, IsSignificantAdjustment(adj, pos, price))
	})

	t.Run("stop loss delta above band", func(t *testing.T) {
		adj := StopAdjustment{NewStopLoss: fp(2410)}
		assert.True(t, IsSignificantAdjustment(adj, pos, price))
	})

	t.Run("absent old levels never significant", func(t *testing.T) {
		bare := pos
		bare.TakeProfit = nil
		bare.StopLoss = nil
		adj := StopAdjustment{NewTakeProfit: fp(9999), NewStopLoss: fp(1)}
		assert.False(t, IsSignificantAdjustment(adj, bare, price))
	})

	t.Run("non positive price never significant", func(t *testing.T) {
		adj := StopAdjustment{NewTakeProfit: fp(9999)}
		assert.False(t, IsSignificantAdjustment(adj, pos, 0))
	})
}
