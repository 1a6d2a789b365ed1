package smc

import (
	"time"

	"smc-trading-core/internal/market"
)

// Direction is the side of an order block or setup.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// OrderBlock is the candle range preceding a high-volume displacement
// move, interpreted as an institutional entry zone.
type OrderBlock struct {
	PriceLevel  float64
	Direction   Direction
	Top         float64
	Bottom      float64
	Volume      float64
	Strength    float64 // 0.0 to 1.0
	IsMitigated bool
	Timestamp   time.Time
}

const (
	obScanStart           = 10
	obScanTailMargin      = 5
	obAvgLookback         = 10
	obBodyRatio           = 1.5
	obVolumeRatio         = 1.2
	obMitigationLookahead = 20
)

// OrderBlockDetector finds displacement candles and tracks mitigation.
type OrderBlockDetector struct{}

// NewOrderBlockDetector creates an order block detector.
func NewOrderBlockDetector() *OrderBlockDetector {
	return &OrderBlockDetector{}
}

// Detect scans candles from index 10 to len-5 for displacement candles: a
// body above 1.5x the trailing 10-bar average body on volume above 1.2x
// the trailing 10-bar average. A bullish displacement after a bearish
// candle records a bullish block at the preceding candle's low; the
// bearish case mirrors. A block is mitigated when, within the next 20
// bars, price both trades above level*1.001 and below level*0.999 (not
// necessarily in the same bar). Windows too short to scan yield nil.
func (od *OrderBlockDetector) Detect(candles market.Window) []OrderBlock {
	if len(candles) < obScanStart+obScanTailMargin {
		return nil
	}

	var blocks []OrderBlock
	for i := obScanStart; i < len(candles)-obScanTailMargin; i++ {
		avgBody := candles.AverageBody(i-obAvgLookback, i)
		avgVolume := candles.AverageVolume(i-obAvgLookback, i)
		if avgBody == 0 || avgVolume == 0 {
			continue
		}

		cur := candles[i]
		prev := candles[i-1]
		if cur.Body() <= avgBody*obBodyRatio || cur.Volume <= avgVolume*obVolumeRatio {
			continue
		}

		var block OrderBlock
		switch {
		case cur.IsBullish() && prev.IsBearish():
			block = OrderBlock{
				PriceLevel: prev.Low,
				Direction:  DirectionBullish,
				Top:        prev.High,
				Bottom:     prev.Low,
			}
		case cur.IsBearish() && prev.IsBullish():
			block = OrderBlock{
				PriceLevel: prev.High,
				Direction:  DirectionBearish,
				Top:        prev.High,
				Bottom:     prev.Low,
			}
		default:
			continue
		}

		strength := cur.Body() / avgBody
		if strength > 2.0 {
			strength = 2.0
		}
		block.Strength = strength / 2.0
		block.Volume = cur.Volume
		block.Timestamp = prev.Timestamp
		block.IsMitigated = od.isMitigated(candles, i, block.PriceLevel)

		blocks = append(blocks, block)
	}
	return blocks
}

func (od *OrderBlockDetector) isMitigated(candles market.Window, from int, level float64) bool {
	end := from + obMitigationLookahead
	if end > len(candles) {
		end = len(candles)
	}
	crossedAbove := false
	crossedBelow := false
	for i := from + 1; i < end; i++ {
		if candles[i].High >= level*1.001 {
			crossedAbove = true
		}
		if candles[i].Low <= level*0.999 {
			crossedBelow = true
		}
		if crossedAbove && crossedBelow {
			return true
		}
	}
	return false
}
