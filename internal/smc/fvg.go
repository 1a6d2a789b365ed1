package smc

import (
	"time"

	"smc-trading-core/internal/market"
)

// FairValueGap is a three-candle price imbalance expected to be filled by
// future price action.
type FairValueGap struct {
	Top       float64
	Bottom    float64
	Midpoint  float64
	Direction Direction
	Size      float64
	IsFilled  bool
	Timestamp time.Time
}

const (
	fvgATRPeriod = 14
	fvgATRRatio  = 0.3
)

// FVGDetector finds three-candle imbalances and tracks their fill status.
type FVGDetector struct{}

// NewFVGDetector creates a fair value gap detector.
func NewFVGDetector() *FVGDetector {
	return &FVGDetector{}
}

// Detect scans each consecutive candle triple (c1,c2,c3). A bullish gap
// exists when c1.High < c3.Low, a bearish gap when c1.Low > c3.High. A gap
// is recorded only when its size exceeds 0.3x the 14-bar ATR trailing the
// gap; with a flat window (ATR near zero) nothing qualifies. Fill status
// is evaluated once against the latest close: a bullish gap is filled when
// close >= top, a bearish gap when close <= bottom.
func (fd *FVGDetector) Detect(candles market.Window) []FairValueGap {
	if len(candles) < 3 {
		return nil
	}

	var gaps []FairValueGap
	for i := 0; i+2 < len(candles); i++ {
		c1 := candles[i]
		c2 := candles[i+1]
		c3 := candles[i+2]

		atr := candles.ATR(fvgATRPeriod, i+2)

		if c1.High < c3.Low {
			size := c3.Low - c1.High
			if size > fvgATRRatio*atr && atr > 0 {
				gaps = append(gaps, FairValueGap{
					Top:       c3.Low,
					Bottom:    c1.High,
					Midpoint:  (c3.Low + c1.High) / 2,
					Direction: DirectionBullish,
					Size:      size,
					Timestamp: c2.Timestamp,
				})
			}
		}

		if c1.Low > c3.High {
			size := c1.Low - c3.High
			if size > fvgATRRatio*atr && atr > 0 {
				gaps = append(gaps, FairValueGap{
					Top:       c1.Low,
					Bottom:    c3.High,
					Midpoint:  (c1.Low + c3.High) / 2,
					Direction: DirectionBearish,
					Size:      size,
					Timestamp: c2.Timestamp,
				})
			}
		}
	}

	lastClose := candles.LastClose()
	for i := range gaps {
		switch gaps[i].Direction {
		case DirectionBullish:
			gaps[i].IsFilled = lastClose >= gaps[i].Top
		case DirectionBearish:
			gaps[i].IsFilled = lastClose <= gaps[i].Bottom
		}
	}
	return gaps
}

// Unfilled returns only the gaps that have not been filled.
func Unfilled(gaps []FairValueGap) []FairValueGap {
	var out []FairValueGap
	for _, g := range gaps {
		if !g.IsFilled {
			out = append(out, g)
		}
	}
	return out
}
