package smc

import (
	"time"

	"github.com/rs/zerolog"

	"smc-trading-core/internal/events"
	"smc-trading-core/internal/market"
	"smc-trading-core/internal/metrics"
)

// Confidence grades a setup's quality score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// TradeSetup is a directional trade proposal synthesized from market
// structure, a liquidity sweep and an order block. Setups are created once
// per analysis call and never mutated.
type TradeSetup struct {
	Symbol          string
	Direction       Direction
	EntryPrice      float64
	StopLoss        float64
	TargetPrice     float64
	RiskRewardRatio float64
	StructureBias   Bias
	LiquiditySweep  *LiquidityZone
	OrderBlock      OrderBlock
	FVG             *FairValueGap
	MTF             MTFBias
	MTFConfirmation bool
	QualityScore    float64 // clamped to [0,1]
	Confidence      Confidence
	Timestamp       time.Time
}

// Config holds the tunable engine parameters.
type Config struct {
	// SwingWindow is the symmetric fractal lookback; must be odd.
	SwingWindow int `yaml:"swing_window" default:"5" validate:"gt=0"`
	// MinRiskReward is the minimum reward-to-risk ratio a setup must
	// clear before it is emitted.
	MinRiskReward float64 `yaml:"min_risk_reward" default:"1.5" validate:"gt=0"`
	// MinOrderBlockStrength gates which order blocks may anchor a setup.
	MinOrderBlockStrength float64 `yaml:"min_order_block_strength" default:"0.6" validate:"gte=0,lte=1"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		SwingWindow:           5,
		MinRiskReward:         1.5,
		MinOrderBlockStrength: 0.6,
	}
}

// Snapshot is one analysis input: the lower-timeframe window, an optional
// higher-timeframe window, and the full set of declared timeframes.
type Snapshot struct {
	Symbol     string
	LTF        market.Window
	LTFLabel   market.Timeframe
	HTF        market.Window
	HTFLabel   market.Timeframe
	Timeframes []market.Timeframe
}

// Engine runs the detectors against a candle snapshot and synthesizes a
// directional trade setup. The engine holds no per-call state and is safe
// to use concurrently across symbols and timeframes.
type Engine struct {
	cfg       Config
	swings    *SwingDetector
	structure *StructureClassifier
	liquidity *LiquidityDetector
	blocks    *OrderBlockDetector
	fvg       *FVGDetector
	mtf       *MTFAnalyzer

	logger  zerolog.Logger
	bus     *events.Bus
	metrics *metrics.Recorder
}

// NewEngine creates a signal engine. The bias source, bus and recorder may
// all be nil.
func NewEngine(cfg Config, source BiasSource, logger zerolog.Logger, bus *events.Bus, rec *metrics.Recorder) *Engine {
	swings := NewSwingDetector(cfg.SwingWindow)
	structure := NewStructureClassifier(swings)
	return &Engine{
		cfg:       cfg,
		swings:    swings,
		structure: structure,
		liquidity: NewLiquidityDetector(),
		blocks:    NewOrderBlockDetector(),
		fvg:       NewFVGDetector(),
		mtf:       NewMTFAnalyzer(structure, source),
		logger:    logger.With().Str("component", "SignalEngine").Logger(),
		bus:       bus,
		metrics:   rec,
	}
}

// Analyze runs the full detection pipeline over the snapshot and returns a
// setup, or nil when any precondition is missing. A nil result is the
// expected common outcome, not an error; short windows degrade to
// sideways/no-setup instead of failing.
func (e *Engine) Analyze(snap Snapshot) *TradeSetup {
	if len(snap.LTF) == 0 {
		e.metrics.RecordNoSetup("insufficient_structure")
		return nil
	}

	bias := e.structure.Classify(snap.LTF)
	mtf := e.mtf.Analyze(snap.LTF, snap.HTF, snap.LTFLabel, snap.HTFLabel, snap.Timeframes)

	swings := e.swings.Detect(snap.LTF)
	zones := e.liquidity.Detect(snap.LTF, swings)
	blocks := e.blocks.Detect(snap.LTF)
	gaps := e.fvg.Detect(snap.LTF)
	price := snap.LTF.LastClose()

	setup, reason := e.synthesize(DirectionBullish, snap, bias, mtf, zones, blocks, gaps, price)
	if setup == nil {
		var shortReason string
		setup, shortReason = e.synthesize(DirectionBearish, snap, bias, mtf, zones, blocks, gaps, price)
		if setup == nil {
			// report the long-side reason unless only the short side got
			// past the structure gate
			if reason == "insufficient_structure" {
				reason = shortReason
			}
			e.metrics.RecordNoSetup(reason)
			e.logger.Debug().
				Str("symbol", snap.Symbol).
				Str("structure_bias", string(bias)).
				Str("reason", reason).
				Msg("no setup")
			return nil
		}
	}

	e.metrics.RecordSetup(string(setup.Direction), setup.QualityScore)
	e.bus.PublishSetupGenerated(snap.Symbol, string(setup.Direction),
		setup.EntryPrice, setup.StopLoss, setup.TargetPrice, setup.QualityScore)
	e.logger.Info().
		Str("symbol", snap.Symbol).
		Str("direction", string(setup.Direction)).
		Float64("entry", setup.EntryPrice).
		Float64("stop", setup.StopLoss).
		Float64("target", setup.TargetPrice).
		Float64("rr", setup.RiskRewardRatio).
		Float64("quality", setup.QualityScore).
		Msg("setup generated")
	return setup
}

// synthesize walks the setup state machine for one direction:
// structure gate -> sweep -> order block -> optional FVG -> risk/reward.
// It returns the setup or a nil setup with the failed precondition.
func (e *Engine) synthesize(dir Direction, snap Snapshot, bias Bias, mtf MTFBias,
	zones []LiquidityZone, blocks []OrderBlock, gaps []FairValueGap, price float64) (*TradeSetup, string) {

	wantBias := BiasBullish
	if dir == DirectionBearish {
		wantBias = BiasBearish
	}
	if bias != wantBias && mtf.Primary != wantBias && !mtf.TrendAlignment {
		return nil, "insufficient_structure"
	}

	sweep := e.pickSweep(dir, zones, price)
	if sweep == nil {
		return nil, "no_sweep"
	}

	block := e.pickOrderBlock(dir, blocks, price)
	if block == nil {
		return nil, "no_order_block"
	}

	gap := e.pickFVG(dir, gaps, price)

	entry := price
	var stop float64
	if dir == DirectionBullish {
		stop = sweep.PriceLevel * 0.998
	} else {
		stop = sweep.PriceLevel * 1.002
	}
	target := block.PriceLevel

	risk := absDiff(entry, stop)
	if risk == 0 {
		return nil, "poor_risk_reward"
	}
	rr := absDiff(target, entry) / risk
	if rr < e.cfg.MinRiskReward {
		return nil, "poor_risk_reward"
	}

	quality := e.qualityScore(dir, bias, mtf, sweep, block, gap)

	return &TradeSetup{
		Symbol:          snap.Symbol,
		Direction:       dir,
		EntryPrice:      entry,
		StopLoss:        stop,
		TargetPrice:     target,
		RiskRewardRatio: rr,
		StructureBias:   bias,
		LiquiditySweep:  sweep,
		OrderBlock:      *block,
		FVG:             gap,
		MTF:             mtf,
		MTFConfirmation: mtf.TrendAlignment || mtf.Primary == wantBias,
		QualityScore:    quality,
		Confidence:      confidenceFor(quality),
		Timestamp:       snap.LTF.Last().Timestamp,
	}, ""
}

// pickSweep selects the strongest swept liquidity zone on the stop side of
// price: an equal-low sweep below price for longs, an equal-high sweep
// above price for shorts.
func (e *Engine) pickSweep(dir Direction, zones []LiquidityZone, price float64) *LiquidityZone {
	var best *LiquidityZone
	for i := range zones {
		z := &zones[i]
		if z.Type != ZoneSweep {
			continue
		}
		if dir == DirectionBullish {
			if z.Origin != ZoneEqualLow || z.PriceLevel >= price {
				continue
			}
		} else {
			if z.Origin != ZoneEqualHigh || z.PriceLevel <= price {
				continue
			}
		}
		if best == nil || z.Strength > best.Strength {
			best = z
		}
	}
	return best
}

// pickOrderBlock selects the nearest eligible block on the target side of
// price: non-mitigated, strong enough, bullish blocks above price for
// longs and bearish blocks below for shorts.
func (e *Engine) pickOrderBlock(dir Direction, blocks []OrderBlock, price float64) *OrderBlock {
	var best *OrderBlock
	for i := range blocks {
		b := &blocks[i]
		if b.IsMitigated || b.Strength <= e.cfg.MinOrderBlockStrength || b.Direction != dir {
			continue
		}
		if dir == DirectionBullish {
			if b.PriceLevel <= price {
				continue
			}
			if best == nil || b.PriceLevel < best.PriceLevel {
				best = b
			}
		} else {
			if b.PriceLevel >= price {
				continue
			}
			if best == nil || b.PriceLevel > best.PriceLevel {
				best = b
			}
		}
	}
	return best
}

// pickFVG selects the nearest unfilled gap in the setup direction beyond
// price. The gap is optional context, never a gate.
func (e *Engine) pickFVG(dir Direction, gaps []FairValueGap, price float64) *FairValueGap {
	var best *FairValueGap
	for i := range gaps {
		g := &gaps[i]
		if g.IsFilled || g.Direction != dir {
			continue
		}
		if dir == DirectionBullish {
			if g.Midpoint <= price {
				continue
			}
			if best == nil || g.Midpoint < best.Midpoint {
				best = g
			}
		} else {
			if g.Midpoint >= price {
				continue
			}
			if best == nil || g.Midpoint > best.Midpoint {
				best = g
			}
		}
	}
	return best
}

// qualityScore weights the confluence factors. The nominal weights sum to
// 1.2, so the result is clamped to [0,1]; the overshoot is inherited
// tuning, the emitted score always stays in range.
func (e *Engine) qualityScore(dir Direction, bias Bias, mtf MTFBias,
	sweep *LiquidityZone, block *OrderBlock, gap *FairValueGap) float64 {

	wantBias := BiasBullish
	if dir == DirectionBearish {
		wantBias = BiasBearish
	}

	score := 0.10
	if bias != BiasSideways {
		score = 0.20
	}
	score += sweep.Strength * 0.20
	score += block.Strength * 0.20
	if gap != nil {
		score += 0.10
	}
	score += mtf.ConfluenceScore * 0.30
	if mtf.TrendAlignment {
		score += 0.10
	}
	if mtf.Primary == wantBias {
		score += 0.10
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

func confidenceFor(quality float64) Confidence {
	switch {
	case quality > 0.8:
		return ConfidenceHigh
	case quality > 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
