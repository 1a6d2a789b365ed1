package smc

import (
	"time"

	"smc-trading-core/internal/market"
)

// SwingPoint represents a confirmed local price extremum.
type SwingPoint struct {
	Price     float64
	Index     int
	Timestamp time.Time
	IsHigh    bool
	Strength  int // bars in the lookback window dominated by the pivot
}

// SwingDetector finds fractal swing highs and lows over a symmetric
// lookback window.
type SwingDetector struct {
	lookback int
}

// NewSwingDetector creates a swing detector. The lookback must be odd; an
// invalid value falls back to the default of 5.
func NewSwingDetector(lookback int) *SwingDetector {
	if lookback <= 0 || lookback%2 == 0 {
		lookback = 5
	}
	return &SwingDetector{lookback: lookback}
}

// Detect returns all swing points in the window, ordered by candle index.
// An index i is a swing high when high[i] is the strict maximum of
// high[i-L..i+L], and a swing low symmetrically. Windows shorter than
// 2L+1 yield no swings.
func (sd *SwingDetector) Detect(candles market.Window) []SwingPoint {
	l := sd.lookback
	if len(candles) < 2*l+1 {
		return nil
	}

	var swings []SwingPoint
	for i := l; i < len(candles)-l; i++ {
		if high, strength := sd.checkHigh(candles, i); high {
			swings = append(swings, SwingPoint{
				Price:     candles[i].High,
				Index:     i,
				Timestamp: candles[i].Timestamp,
				IsHigh:    true,
				Strength:  strength,
			})
			continue
		}
		if low, strength := sd.checkLow(candles, i); low {
			swings = append(swings, SwingPoint{
				Price:     candles[i].Low,
				Index:     i,
				Timestamp: candles[i].Timestamp,
				IsHigh:    false,
				Strength:  strength,
			})
		}
	}
	return swings
}

func (sd *SwingDetector) checkHigh(candles market.Window, i int) (bool, int) {
	pivot := candles[i].High
	strength := 0
	for j := i - sd.lookback; j <= i+sd.lookback; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= pivot {
			return false, 0
		}
		strength++
	}
	return true, strength
}

func (sd *SwingDetector) checkLow(candles market.Window, i int) (bool, int) {
	pivot := candles[i].Low
	strength := 0
	for j := i - sd.lookback; j <= i+sd.lookback; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= pivot {
			return false, 0
		}
		strength++
	}
	return true, strength
}

// Highs filters swing highs from a detected swing list.
func Highs(swings []SwingPoint) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if s.IsHigh {
			out = append(out, s)
		}
	}
	return out
}

// Lows filters swing lows from a detected swing list.
func Lows(swings []SwingPoint) []SwingPoint {
	var out []SwingPoint
	for _, s := range swings {
		if !s.IsHigh {
			out = append(out, s)
		}
	}
	return out
}
