package smc

import (
	"time"

	"smc-trading-core/internal/market"
)

func candle(o, h, l, c, v float64) market.Candle {
	return market.Candle{Timestamp: time.Unix(0, 0), Open: o, High: h, Low: l, Close: c, Volume: v}
}

func candleAt(idx int, o, h, l, c, v float64) market.Candle {
	return market.Candle{Timestamp: time.Unix(int64(idx)*60, 0), Open: o, High: h, Low: l, Close: c, Volume: v}
}

// flatWindow returns n identical candles, useful for no-signal cases.
func flatWindow(n int, price float64) market.Window {
	w := make(market.Window, n)
	for i := range w {
		w[i] = candleAt(i, price, price, price, price, 1000)
	}
	return w
}

// bullishZigzag builds an ascending two-candle staircase that yields clean
// alternating swing highs and lows under a 1-bar fractal lookback.
func bullishZigzag(steps int) market.Window {
	var w market.Window
	for k := 0; k < steps; k++ {
		base := 100 + float64(k)*2
		w = append(w,
			candleAt(len(w), base, base+1, base-0.5, base+0.5, 1000),
			candleAt(len(w)+1, base+0.1, base+0.2, base-1, base-0.8, 1000),
		)
	}
	return w
}

// bearishZigzag mirrors bullishZigzag downward.
func bearishZigzag(steps int) market.Window {
	var w market.Window
	for k := 0; k < steps; k++ {
		base := 100 - float64(k)*2
		w = append(w,
			candleAt(len(w), base, base+1, base-0.5, base+0.5, 1000),
			candleAt(len(w)+1, base+0.1, base+0.2, base-1, base-0.8, 1000),
		)
	}
	return w
}

// mirrorWindow reflects every candle around the given price level,
// turning a long scenario into its exact short counterpart.
func mirrorWindow(w market.Window, level float64) market.Window {
	out := make(market.Window, len(w))
	for i, c := range w {
		out[i] = market.Candle{
			Timestamp: c.Timestamp,
			Open:      level - c.Open,
			High:      level - c.Low,
			Low:       level - c.High,
			Close:     level - c.Close,
			Volume:    c.Volume,
		}
	}
	return out
}

// stubBiasSource answers bias lookups from a fixed table.
type stubBiasSource map[market.Timeframe]Bias

func (s stubBiasSource) Bias(tf market.Timeframe) (Bias, bool) {
	b, ok := s[tf]
	return b, ok
}
