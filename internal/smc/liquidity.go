package smc

import (
	"math"
	"sort"
	"time"

	"smc-trading-core/internal/market"
)

// ZoneType classifies a liquidity zone.
type ZoneType string

const (
	ZoneEqualHigh ZoneType = "equal_high"
	ZoneEqualLow  ZoneType = "equal_low"
	ZoneSweep     ZoneType = "sweep"
	ZoneStopHunt  ZoneType = "stop_hunt"
)

// LiquidityZone is a cluster of equal swing highs or lows. A zone is
// promoted to a sweep once a recent candle wick pierces its level.
type LiquidityZone struct {
	PriceLevel float64
	Type       ZoneType
	Strength   float64 // 0.0 to 1.0
	WickCount  int
	VolumeSum  float64
	Timestamp  time.Time
	// originally equal-high or equal-low; preserved through sweep promotion
	// so the synthesizer can tell which side the zone sits on.
	Origin ZoneType
}

const (
	zoneTolerancePct = 0.001 // 0.1% of last close per tolerance bucket
	sweepLookback    = 10    // candles scanned for a sweeping wick
	sweepBoost       = 1.5
)

// LiquidityDetector clusters swing points into equal-high / equal-low
// zones and flags sweeps.
type LiquidityDetector struct{}

// NewLiquidityDetector creates a liquidity zone detector.
func NewLiquidityDetector() *LiquidityDetector {
	return &LiquidityDetector{}
}

// Detect groups the given swing points into liquidity zones. Swing prices
// are bucketed with a tolerance of 0.1% of the last close; a bucket becomes
// a zone only with two or more touches. Zone strength is touch count over
// five, capped at 1.0. Zones whose level was pierced by a wick within the
// last ten candles are retyped as sweeps with strength boosted 1.5x
// (capped at 1.0). An empty or too-short window yields no zones.
func (ld *LiquidityDetector) Detect(candles market.Window, swings []SwingPoint) []LiquidityZone {
	if len(candles) == 0 || len(swings) == 0 {
		return nil
	}
	tol := candles.LastClose() * zoneTolerancePct
	if tol <= 0 {
		return nil
	}

	zones := ld.cluster(candles, Highs(swings), tol, ZoneEqualHigh)
	zones = append(zones, ld.cluster(candles, Lows(swings), tol, ZoneEqualLow)...)

	for i := range zones {
		ld.promoteSweep(candles, &zones[i])
	}

	sort.Slice(zones, func(i, j int) bool { return zones[i].PriceLevel < zones[j].PriceLevel })
	return zones
}

func (ld *LiquidityDetector) cluster(candles market.Window, swings []SwingPoint, tol float64, zoneType ZoneType) []LiquidityZone {
	buckets := make(map[int64][]SwingPoint)
	for _, s := range swings {
		key := int64(math.Round(s.Price / tol))
		buckets[key] = append(buckets[key], s)
	}

	var zones []LiquidityZone
	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}

		level := 0.0
		volumeSum := 0.0
		latest := members[0].Timestamp
		for _, m := range members {
			level += m.Price
			volumeSum += candles[m.Index].Volume
			if m.Timestamp.After(latest) {
				latest = m.Timestamp
			}
		}
		level /= float64(len(members))

		strength := float64(len(members)) / 5.0
		if strength > 1.0 {
			strength = 1.0
		}

		zones = append(zones, LiquidityZone{
			PriceLevel: level,
			Type:       zoneType,
			Origin:     zoneType,
			Strength:   strength,
			WickCount:  len(members),
			VolumeSum:  volumeSum,
			Timestamp:  latest,
		})
	}
	return zones
}

// promoteSweep retypes a zone as a sweep when one of the last ten candles
// wicked through its level.
func (ld *LiquidityDetector) promoteSweep(candles market.Window, zone *LiquidityZone) {
	start := len(candles) - sweepLookback
	if start < 0 {
		start = 0
	}
	for i := start; i < len(candles); i++ {
		swept := false
		switch zone.Origin {
		case ZoneEqualHigh:
			swept = candles[i].High >= zone.PriceLevel*0.999
		case ZoneEqualLow:
			swept = candles[i].Low <= zone.PriceLevel*1.001
		}
		if swept {
			zone.Type = ZoneSweep
			zone.Strength *= sweepBoost
			if zone.Strength > 1.0 {
				zone.Strength = 1.0
			}
			return
		}
	}
}
