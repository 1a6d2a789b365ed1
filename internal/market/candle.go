package market

import "time"

// Timeframe represents different chart timeframes
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Candle is a single OHLCV bar. Candles are immutable and supplied by the
// data collaborator ordered oldest to newest.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Body returns the absolute open-to-close range of the candle.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Window is a read-only view over a time-ascending candle sequence.
// All detectors consume a Window; none of them mutate it.
type Window []Candle

// Len returns the number of candles in the window.
func (w Window) Len() int { return len(w) }

// LastClose returns the close of the most recent candle, or 0 for an empty
// window.
func (w Window) LastClose() float64 {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1].Close
}

// Last returns the most recent candle. Calling Last on an empty window
// returns the zero candle.
func (w Window) Last() Candle {
	if len(w) == 0 {
		return Candle{}
	}
	return w[len(w)-1]
}

// ATR computes the average true range over the trailing period bars ending
// at index end (inclusive). Returns 0 when fewer than two candles are
// available, never an error.
func (w Window) ATR(period, end int) float64 {
	if end >= len(w) {
		end = len(w) - 1
	}
	if period <= 0 || end < 1 {
		return 0
	}
	start := end - period + 1
	if start < 1 {
		start = 1
	}
	sum := 0.0
	count := 0
	for i := start; i <= end; i++ {
		sum += trueRange(w[i], w[i-1])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// AverageBody returns the mean candle body over window indices [start, end).
func (w Window) AverageBody(start, end int) float64 {
	if start < 0 {
		start = 0
	}
	if end > len(w) {
		end = len(w)
	}
	if end <= start {
		return 0
	}
	sum := 0.0
	for i := start; i < end; i++ {
		sum += w[i].Body()
	}
	return sum / float64(end-start)
}

// AverageVolume returns the mean volume over window indices [start, end).
func (w Window) AverageVolume(start, end int) float64 {
	if start < 0 {
		start = 0
	}
	if end > len(w) {
		end = len(w)
	}
	if end <= start {
		return 0
	}
	sum := 0.0
	for i := start; i < end; i++ {
		sum += w[i].Volume
	}
	return sum / float64(end-start)
}

func trueRange(cur, prev Candle) float64 {
	tr := cur.High - cur.Low
	if hc := abs(cur.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := abs(cur.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
