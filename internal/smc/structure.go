package smc

import "smc-trading-core/internal/market"

// Bias represents the market structure direction.
type Bias string

const (
	BiasBullish  Bias = "bullish"
	BiasBearish  Bias = "bearish"
	BiasSideways Bias = "sideways"
)

const minStructureCandles = 20

// StructureClassifier turns recent swing points into a structure bias.
// It compares the last three swing highs and the last three swing lows:
// both trending up is bullish, both trending down is bearish, anything
// else is sideways. This is a trend-of-pivots test, resistant to
// single-candle noise but lagging by the swing lookback.
type StructureClassifier struct {
	swings *SwingDetector
}

// NewStructureClassifier creates a structure classifier using the given
// swing detector.
func NewStructureClassifier(swings *SwingDetector) *StructureClassifier {
	return &StructureClassifier{swings: swings}
}

// Classify returns the structure bias for the window. Windows shorter
// than 20 candles, or windows with fewer than three swing highs or three
// swing lows, classify as sideways. Insufficient data is a neutral
// outcome, not an error.
func (sc *StructureClassifier) Classify(candles market.Window) Bias {
	if len(candles) < minStructureCandles {
		return BiasSideways
	}

	swings := sc.swings.Detect(candles)
	highs := Highs(swings)
	lows := Lows(swings)
	if len(highs) < 3 || len(lows) < 3 {
		return BiasSideways
	}

	highs = highs[len(highs)-3:]
	lows = lows[len(lows)-3:]

	higherHighs := highs[2].Price > highs[0].Price
	higherLows := lows[2].Price > lows[0].Price
	lowerHighs := highs[2].Price < highs[0].Price
	lowerLows := lows[2].Price < lows[0].Price

	switch {
	case higherHighs && higherLows:
		return BiasBullish
	case lowerHighs && lowerLows:
		return BiasBearish
	default:
		return BiasSideways
	}
}
