package position

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestComputePnL(t *testing.T) {
	t.Run("long leverage scenario", func(t *testing.T) {
		p := Position{Instrument: "ETH-USDT-SWAP", Direction: DirectionLong, EntryPrice: 100, Size: 1, Leverage: 5}
		r, err := ComputePnL(p, 110)
		assert.NoError(t, err)
		rounded := r.Rounded()
		assert.InDelta(t, 50.0, rounded.PnLPercent, 1e-9)
		assert.InDelta(t, 10.0, rounded.PnLAmount, 1e-9)
	})

	t.Run("short direction inverts sign", func(t *testing.T) {
		p := Position{Instrument: "ETH-USDT-SWAP", Direction: DirectionShort, EntryPrice: 100, Size: 2, Leverage: 3}
		r, err := ComputePnL(p, 90)
		assert.NoError(t, err)
		assert.InDelta(t, 30.0, r.PnLPercent, 1e-9)
		assert.InDelta(t, 20.0, r.PnLAmount, 1e-9)
	})

	t.Run("no price movement means zero pnl at any leverage", func(t *testing.T) {
		for _, lev := range []float64{1, 5, 50} {
			p := Position{Instrument: "X", Direction: DirectionLong, EntryPrice: 123.45, Size: 1, Leverage: lev}
			r, err := ComputePnL(p, 123.45)
			assert.NoError(t, err)
			assert.Zero(t, r.PnLPercent)
			assert.Zero(t, r.PnLAmount)
		}
	})

	t.Run("zero entry fails explicitly", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionLong, EntryPrice: 0, Size: 1, Leverage: 1}
		_, err := ComputePnL(p, 100)
		assert.Error(t, err)
	})

	t.Run("long pnl is monotonic in price", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionLong, EntryPrice: 100, Size: 1, Leverage: 2}
		prev := -1e18
		for price := 50.0; price <= 150; price += 10 {
			r, err := ComputePnL(p, price)
			assert.NoError(t, err)
			assert.Greater(t, r.PnLPercent, prev)
			prev = r.PnLPercent
		}
	})

	t.Run("short pnl is monotonic decreasing in price", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionShort, EntryPrice: 100, Size: 1, Leverage: 2}
		prev := 1e18
		for price := 50.0; price <= 150; price += 10 {
			r, err := ComputePnL(p, price)
			assert.NoError(t, err)
			assert.Less(t, r.PnLPercent, prev)
			prev = r.PnLPercent
		}
	})
}

func TestRounded(t *testing.T) {
	r := PnLResult{PnLPercent: 12.34567, PnLAmount: 0.123456789}
	rounded := r.Rounded()
	assert.InDelta(t, 12.35, rounded.PnLPercent, 1e-9)
	assert.InDelta(t, 0.1235, rounded.PnLAmount, 1e-9)
}

func TestCheckStopTrigger(t *testing.T) {
	t.Run("absent levels never trigger", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionLong, EntryPrice: 100, Size: 1, Leverage: 1}
		assert.Equal(t, TriggerNone, CheckStopTrigger(p, 1))
		assert.Equal(t, TriggerNone, CheckStopTrigger(p, 1e9))
	})

	t.Run("short take profit at target", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionShort, EntryPrice: 100, Size: 1, Leverage: 1, TakeProfit: fp(90)}
		assert.Equal(t, TriggerTakeProfit, CheckStopTrigger(p, 90))
	})

	t.Run("long take profit and stop loss", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionLong, EntryPrice: 100, Size: 1, Leverage: 1,
			TakeProfit: fp(110), StopLoss: fp(95)}
		assert.Equal(t, TriggerTakeProfit, CheckStopTrigger(p, 111))
		assert.Equal(t, TriggerStopLoss, CheckStopTrigger(p, 94))
		assert.Equal(t, TriggerNone, CheckStopTrigger(p, 100))
	})

	t.Run("take profit wins when both levels crossed", func(t *testing.T) {
		// 止盈线被错误配置在止损线之下时，止盈优先
		p := Position{Instrument: "X", Direction: DirectionLong, EntryPrice: 100, Size: 1, Leverage: 1,
			TakeProfit: fp(90), StopLoss: fp(95)}
		assert.Equal(t, TriggerTakeProfit, CheckStopTrigger(p, 92))
	})

	t.Run("short stop loss above entry", func(t *testing.T) {
		p := Position{Instrument: "X", Direction: DirectionShort, EntryPrice: 100, Size: 1, Leverage: 1, StopLoss: fp(105)}
		assert.Equal(t, TriggerStopLoss, CheckStopTrigger(p, 106))
		assert.Equal(t, TriggerNone, CheckStopTrigger(p, 104))
	})
}

func TestValidate(t *testing.T) {
	valid := Position{Instrument: "ETH-USDT-SWAP", Direction: DirectionLong, EntryPrice: 100, Size: 1, Leverage: 1}
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Position)
	}{
		{"empty instrument", func(p *Position) { p.Instrument = " " }},
		{"bad direction", func(p *Position) { p.Direction = "sideways" }},
		{"zero size", func(p *Position) { p.Size = 0 }},
		{"negative entry", func(p *Position) { p.EntryPrice = -1 }},
		{"leverage below one", func(p *Position) { p.Leverage = 0.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" LONG ")
	assert.NoError(t, err)
	assert.Equal(t, DirectionLong, d)

	d, err = ParseDirection("buy_short")
	assert.NoError(t, err)
	assert.Equal(t, DirectionShort, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
