package smc

import "smc-trading-core/internal/market"

// BiasSource supplies structure bias for timeframes the caller declares
// without providing real candle data. Implementations typically compute
// the bias from their own candle feeds. Returning ok=false skips the
// timeframe rather than guessing.
type BiasSource interface {
	Bias(tf market.Timeframe) (Bias, bool)
}

// MTFBias aggregates structure bias across timeframes into a confluence
// score.
type MTFBias struct {
	Primary         Bias
	BiasStrength    float64 // winning-side fraction of resolved votes
	ConfluenceScore float64 // majority fraction minus sideways penalty
	TrendAlignment  bool    // LTF and HTF agree on a non-sideways bias
	Biases          map[market.Timeframe]Bias
	// timeframes declared without candle data or a bias source answer;
	// they carry no vote.
	Unresolved []market.Timeframe
}

const sidewaysPenalty = 0.3

// MTFAnalyzer computes per-timeframe structure bias and aggregates it by
// majority vote.
type MTFAnalyzer struct {
	structure *StructureClassifier
	source    BiasSource
}

// NewMTFAnalyzer creates a multi-timeframe bias analyzer. The bias source
// may be nil, in which case timeframes without candle data are left
// unresolved.
func NewMTFAnalyzer(structure *StructureClassifier, source BiasSource) *MTFAnalyzer {
	return &MTFAnalyzer{structure: structure, source: source}
}

// Analyze computes bias for the lower-timeframe window, the optional
// higher-timeframe window, and any remaining declared timeframes via the
// bias source. Aggregation is a majority vote; ties resolve to sideways.
// The analyzer is deterministic: timeframes it cannot resolve are skipped,
// never simulated.
func (ma *MTFAnalyzer) Analyze(ltf, htf market.Window, ltfLabel, htfLabel market.Timeframe, declared []market.Timeframe) MTFBias {
	result := MTFBias{
		Primary: BiasSideways,
		Biases:  make(map[market.Timeframe]Bias),
	}

	ltfBias := ma.structure.Classify(ltf)
	result.Biases[ltfLabel] = ltfBias

	htfBias := BiasSideways
	htfPresent := len(htf) > 0
	if htfPresent {
		htfBias = ma.structure.Classify(htf)
		result.Biases[htfLabel] = htfBias
	}

	for _, tf := range declared {
		if tf == ltfLabel || (htfPresent && tf == htfLabel) {
			continue
		}
		if ma.source != nil {
			if bias, ok := ma.source.Bias(tf); ok {
				result.Biases[tf] = bias
				continue
			}
		}
		result.Unresolved = append(result.Unresolved, tf)
	}

	counts := make(map[Bias]int)
	total := 0
	for _, b := range result.Biases {
		counts[b]++
		total++
	}
	if total == 0 {
		return result
	}

	primary, winning := majority(counts)
	result.Primary = primary
	result.BiasStrength = float64(winning) / float64(total)

	sidewaysFraction := float64(counts[BiasSideways]) / float64(total)
	result.ConfluenceScore = result.BiasStrength - sidewaysPenalty*sidewaysFraction
	if result.ConfluenceScore < 0 {
		result.ConfluenceScore = 0
	}

	result.TrendAlignment = htfPresent &&
		ltfBias == htfBias &&
		ltfBias != BiasSideways

	return result
}

func majority(counts map[Bias]int) (Bias, int) {
	best := BiasSideways
	bestCount := 0
	tied := false
	for _, b := range []Bias{BiasBullish, BiasBearish, BiasSideways} {
		c := counts[b]
		if c > bestCount {
			best = b
			bestCount = c
			tied = false
		} else if c == bestCount && c > 0 && b != best {
			tied = true
		}
	}
	if tied {
		return BiasSideways, bestCount
	}
	return best, bestCount
}
