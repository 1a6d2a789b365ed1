package risk

import (
	"fmt"
	"math"
)

// Firewall layer names, in audit order.
const (
	LayerPositionSizing = "position_sizing"
	LayerStopLoss       = "stop_loss"
	LayerCorrelation    = "correlation"
	LayerFirmRisk       = "firm_risk"
	LayerSurvival       = "survival"
)

var layerOrder = []string{
	LayerPositionSizing,
	LayerStopLoss,
	LayerCorrelation,
	LayerFirmRisk,
	LayerSurvival,
}

// LayerResult is the outcome of one firewall layer. Layers always produce
// a result, never an error; a failed check is data. Score is 0..1 for most
// layers and 0..100 for the survival guard.
type LayerResult struct {
	Passed  bool
	Score   float64
	Reason  string
	Details map[string]interface{}
}

// effectiveStop returns the stop used for sizing, defaulting to a
// configured percentage below price when the request omits one.
func (a *Auditor) effectiveStop(req TradeRequest) float64 {
	if req.StopLoss > 0 {
		return req.StopLoss
	}
	return req.Price * (1 - a.cfg.DefaultStopPercent)
}

// checkPositionSizing enforces the two independent sizing limits: risk at
// stop must stay within max_risk_per_trade of capital, and position value
// must stay within max_position_size of capital.
func (a *Auditor) checkPositionSizing(req TradeRequest) LayerResult {
	riskPerShare := math.Abs(req.Price - a.effectiveStop(req))
	riskAmount := riskPerShare * req.Quantity
	maxRisk := a.capital * a.cfg.MaxRiskPerTrade

	positionValue := req.Price * req.Quantity
	maxValue := a.capital * a.cfg.MaxPositionSize

	result := LayerResult{
		Passed: true,
		Score:  1.0,
		Reason: "position size within limits",
		Details: map[string]interface{}{
			"risk_amount":        riskAmount,
			"max_risk_amount":    maxRisk,
			"risk_per_share":     riskPerShare,
			"position_value":     positionValue,
			"max_position_value": maxValue,
		},
	}

	if riskAmount > maxRisk {
		result.Passed = false
		result.Reason = fmt.Sprintf("risk %.2f exceeds max risk per trade %.2f", riskAmount, maxRisk)
	}
	if positionValue > maxValue {
		result.Passed = false
		result.Reason = fmt.Sprintf("position value %.2f exceeds max position size %.2f", positionValue, maxValue)
	}
	if !result.Passed {
		result.Score = subLimitScore(riskAmount, maxRisk) * subLimitScore(positionValue, maxValue)
	}
	return result
}

// subLimitScore grades how far a quantity sits inside (1.0) or outside
// (toward 0) its limit.
func subLimitScore(actual, limit float64) float64 {
	if actual <= limit {
		return 1.0
	}
	if actual == 0 {
		return 0
	}
	return limit / actual
}

// checkStopLoss validates stop distance when a stop is given. An omitted
// stop passes at reduced confidence rather than failing, since a default
// stop is applied for sizing.
func (a *Auditor) checkStopLoss(req TradeRequest) LayerResult {
	if req.StopLoss <= 0 {
		return LayerResult{
			Passed: true,
			Score:  0.8,
			Reason: "no stop loss provided, default stop applied",
			Details: map[string]interface{}{
				"default_stop": a.effectiveStop(req),
			},
		}
	}

	if req.Price <= 0 {
		return LayerResult{
			Passed:  false,
			Score:   0,
			Reason:  "invalid price for stop validation",
			Details: map[string]interface{}{"price": req.Price},
		}
	}

	stopPercent := math.Abs(req.Price-req.StopLoss) / req.Price
	details := map[string]interface{}{
		"stop_percent": stopPercent,
		"min_percent":  minStopPercent,
		"max_percent":  maxStopPercent,
	}

	if stopPercent < minStopPercent {
		return LayerResult{
			Passed:  false,
			Score:   0,
			Reason:  fmt.Sprintf("stop distance %.2f%% below minimum %.1f%%", stopPercent*100, minStopPercent*100),
			Details: details,
		}
	}
	if stopPercent > maxStopPercent {
		return LayerResult{
			Passed:  false,
			Score:   0,
			Reason:  fmt.Sprintf("stop distance %.2f%% above maximum %.0f%%", stopPercent*100, maxStopPercent*100),
			Details: details,
		}
	}
	return LayerResult{
		Passed:  true,
		Score:   1.0,
		Reason:  "stop loss within sane bounds",
		Details: details,
	}
}

const (
	minStopPercent = 0.005
	maxStopPercent = 0.10
)

// checkCorrelation sums existing notional in the request's sector plus the
// proposed trade and fails when the resulting exposure exceeds the sector
// cap. Adding to an already-held symbol passes at reduced score to flag
// concentration.
func (a *Auditor) checkCorrelation(req TradeRequest) LayerResult {
	sector := req.Sector
	if sector == "" {
		sector = a.sectors.Lookup(req.Symbol)
	}

	sectorNotional := 0.0
	heldSymbol := false
	for _, p := range a.positions {
		if p.Symbol == req.Symbol {
			heldSymbol = true
		}
		ps := p.Sector
		if ps == "" {
			ps = a.sectors.Lookup(p.Symbol)
		}
		if ps == sector {
			sectorNotional += p.Notional()
		}
	}

	proposed := req.Price * req.Quantity
	exposure := 0.0
	if a.capital > 0 {
		exposure = (sectorNotional + proposed) / a.capital
	}

	details := map[string]interface{}{
		"sector":              sector,
		"sector_exposure":     exposure,
		"max_sector_exposure": a.cfg.MaxSectorExposure,
		"held_symbol":         heldSymbol,
	}

	if exposure > a.cfg.MaxSectorExposure {
		return LayerResult{
			Passed:  false,
			Score:   subLimitScore(exposure, a.cfg.MaxSectorExposure),
			Reason:  fmt.Sprintf("sector %s exposure %.1f%% exceeds cap %.1f%%", sector, exposure*100, a.cfg.MaxSectorExposure*100),
			Details: details,
		}
	}
	if heldSymbol {
		return LayerResult{
			Passed:  true,
			Score:   0.7,
			Reason:  fmt.Sprintf("adding to existing %s position", req.Symbol),
			Details: details,
		}
	}
	return LayerResult{
		Passed:  true,
		Score:   1.0,
		Reason:  "sector exposure within limits",
		Details: details,
	}
}

// checkFirmRisk enforces the account-wide trading limits: daily and weekly
// loss caps, trade count, open positions and projected margin utilization.
func (a *Auditor) checkFirmRisk(req TradeRequest) LayerResult {
	checks := 5
	failed := 0
	reason := "firm risk limits respected"

	fail := func(r string) {
		failed++
		if failed == 1 {
			reason = r
		}
	}

	maxDaily := a.capital * a.cfg.MaxDailyLoss
	if a.state.DailyPnL < -maxDaily {
		fail(fmt.Sprintf("daily loss %.2f beyond limit %.2f", -a.state.DailyPnL, maxDaily))
	}
	maxWeekly := a.capital * a.cfg.MaxWeeklyLoss
	if a.state.WeeklyPnL < -maxWeekly {
		fail(fmt.Sprintf("weekly loss %.2f beyond limit %.2f", -a.state.WeeklyPnL, maxWeekly))
	}
	if a.state.DailyTrades >= a.cfg.MaxDailyTrades {
		fail(fmt.Sprintf("daily trade count %d at limit %d", a.state.DailyTrades, a.cfg.MaxDailyTrades))
	}
	if a.state.OpenPositions >= a.cfg.MaxOpenPositions {
		fail(fmt.Sprintf("open positions %d at limit %d", a.state.OpenPositions, a.cfg.MaxOpenPositions))
	}

	projected := 0.0
	totalMargin := a.state.UsedMargin + a.state.AvailableMargin
	if totalMargin > 0 {
		projected = (a.state.UsedMargin + req.Price*req.Quantity) / totalMargin
		if projected > a.cfg.MaxMarginUtilization {
			fail(fmt.Sprintf("projected margin utilization %.1f%% exceeds %.1f%%", projected*100, a.cfg.MaxMarginUtilization*100))
		}
	}

	return LayerResult{
		Passed: failed == 0,
		Score:  float64(checks-failed) / float64(checks),
		Reason: reason,
		Details: map[string]interface{}{
			"daily_pnl":            a.state.DailyPnL,
			"weekly_pnl":           a.state.WeeklyPnL,
			"daily_trades":         a.state.DailyTrades,
			"open_positions":       a.state.OpenPositions,
			"projected_margin_use": projected,
		},
	}
}

// survivalOutcome carries the survival guard result plus whether this
// audit breached the kill-switch threshold.
type survivalOutcome struct {
	result       LayerResult
	killBreached bool
}

// checkSurvival scores account survivability from 100 down, deducting for
// drawdown, daily loss and margin stress, and detects a kill-switch
// breach. Score is on the 0..100 scale.
func (a *Auditor) checkSurvival() survivalOutcome {
	drawdownFactor := 0.0
	if a.cfg.MaxDrawdown > 0 {
		drawdownFactor = (a.state.CurrentDrawdown / a.cfg.MaxDrawdown) * 30
	}

	dailyLossFactor := 0.0
	if a.capital > 0 && a.cfg.KillSwitchThreshold > 0 {
		dailyLossFactor = (math.Abs(a.state.DailyPnL) / (a.capital * a.cfg.KillSwitchThreshold)) * 25
	}

	marginStress := 0.0
	if a.state.AvailableMargin > 0 {
		marginStress = (a.state.UsedMargin / a.state.AvailableMargin) * 20
	} else if a.state.UsedMargin > 0 {
		marginStress = 20
	}

	score := 100 - drawdownFactor - dailyLossFactor - marginStress
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	details := map[string]interface{}{
		"survival_score":    score,
		"drawdown_factor":   drawdownFactor,
		"daily_loss_factor": dailyLossFactor,
		"margin_stress":     marginStress,
		"current_drawdown":  a.state.CurrentDrawdown,
	}

	killBreached := a.capital > 0 &&
		math.Abs(a.state.DailyPnL)/a.capital >= a.cfg.KillSwitchThreshold

	switch {
	case killBreached:
		return survivalOutcome{
			result: LayerResult{
				Passed:  false,
				Score:   score,
				Reason:  fmt.Sprintf("daily loss %.2f breached kill-switch threshold %.1f%% of capital", a.state.DailyPnL, a.cfg.KillSwitchThreshold*100),
				Details: details,
			},
			killBreached: true,
		}
	case a.state.CurrentDrawdown >= a.cfg.MaxDrawdown:
		return survivalOutcome{result: LayerResult{
			Passed:  false,
			Score:   score,
			Reason:  fmt.Sprintf("drawdown %.1f%% at or beyond maximum %.1f%%", a.state.CurrentDrawdown*100, a.cfg.MaxDrawdown*100),
			Details: details,
		}}
	case score < 50:
		return survivalOutcome{result: LayerResult{
			Passed:  false,
			Score:   score,
			Reason:  fmt.Sprintf("survival score %.0f below minimum 50", score),
			Details: details,
		}}
	default:
		return survivalOutcome{result: LayerResult{
			Passed:  true,
			Score:   score,
			Reason:  "account survivability healthy",
			Details: details,
		}}
	}
}
