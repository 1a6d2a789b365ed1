package risk

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smc-trading-core/internal/events"
	"smc-trading-core/internal/metrics"
)

// Rating grades the overall risk of an audited request.
type Rating string

const (
	RatingLow     Rating = "LOW"
	RatingMedium  Rating = "MEDIUM"
	RatingHigh    Rating = "HIGH"
	RatingExtreme Rating = "EXTREME"
)

// RiskAudit is the aggregate firewall verdict for one trade request.
type RiskAudit struct {
	Allowed           bool
	Reason            string
	SuggestedQuantity float64
	RiskRating        Rating
	FirewallCode      string
	Layers            map[string]LayerResult
}

var (
	// ErrInvalidCapital is returned when an auditor is constructed with
	// non-positive capital.
	ErrInvalidCapital = errors.New("capital must be positive")
)

// Auditor runs the five-layer risk firewall. It exclusively owns the
// mutable account state and open-position list; every audit evaluates all
// layers and applies any kill-switch transition under a single lock, so
// two racing audits cannot both observe an inactive kill switch when
// either one would trip it.
type Auditor struct {
	mu        sync.Mutex
	cfg       Config
	capital   float64
	equity    float64
	sectors   SectorTable
	state     *State
	positions []PositionInfo

	logger  zerolog.Logger
	bus     *events.Bus
	metrics *metrics.Recorder
}

// NewAuditor creates a risk auditor over the given starting capital. The
// sector table, bus and recorder may be nil.
func NewAuditor(cfg Config, capital float64, sectors SectorTable, logger zerolog.Logger, bus *events.Bus, rec *metrics.Recorder) (*Auditor, error) {
	if capital <= 0 {
		return nil, ErrInvalidCapital
	}
	return &Auditor{
		cfg:     cfg,
		capital: capital,
		equity:  capital,
		sectors: sectors,
		state:   newState(capital, cfg.MaxDrawdown),
		logger:  logger.With().Str("component", "RiskAuditor").Logger(),
		bus:     bus,
		metrics: rec,
	}, nil
}

// Audit runs every firewall layer against the request and the current
// account state. All five layers always run and always produce a result;
// an active kill switch forces denial regardless of layer outcomes. Audit
// never mutates state except for kill-switch activation.
func (a *Auditor) Audit(req TradeRequest) RiskAudit {
	a.mu.Lock()
	defer a.mu.Unlock()

	layers := map[string]LayerResult{
		LayerPositionSizing: a.checkPositionSizing(req),
		LayerStopLoss:       a.checkStopLoss(req),
		LayerCorrelation:    a.checkCorrelation(req),
		LayerFirmRisk:       a.checkFirmRisk(req),
	}
	survival := a.checkSurvival()
	layers[LayerSurvival] = survival.result

	if survival.killBreached && !a.state.KillSwitchActive {
		a.activateKillSwitchLocked(survival.result.Reason)
	}

	failed := 0
	for _, name := range layerOrder {
		if !layers[name].Passed {
			failed++
			a.metrics.RecordLayerFailure(name)
		}
	}

	audit := RiskAudit{
		Allowed:           failed == 0 && !a.state.KillSwitchActive,
		Layers:            layers,
		FirewallCode:      firewallCode(layers, failed == 0 && !a.state.KillSwitchActive),
		RiskRating:        a.rating(layers, failed),
		SuggestedQuantity: a.suggestedQuantity(req, layers),
	}

	switch {
	case a.state.KillSwitchActive:
		audit.Reason = "Kill switch active: " + a.state.KillSwitchReason
	case failed > 0:
		audit.Reason = firstFailureReason(layers)
	default:
		audit.Reason = "all risk layers passed"
	}

	a.metrics.RecordAudit(audit.Allowed)
	a.bus.PublishAuditCompleted(req.Symbol, audit.FirewallCode, string(audit.RiskRating), audit.Allowed)

	evt := a.logger.Info()
	if !audit.Allowed {
		evt = a.logger.Warn()
	}
	evt.Str("symbol", req.Symbol).
		Str("side", string(req.Side)).
		Bool("allowed", audit.Allowed).
		Str("rating", string(audit.RiskRating)).
		Str("firewall_code", audit.FirewallCode).
		Str("reason", audit.Reason).
		Msg("risk audit")

	return audit
}

// rating grades the audit: survival failure or three failed layers is
// extreme; firm-risk failure, two failures or a survival score under 70 is
// high; any failure or a score under 85 is medium.
func (a *Auditor) rating(layers map[string]LayerResult, failed int) Rating {
	survivalScore := layers[LayerSurvival].Score
	switch {
	case failed >= 3 || !layers[LayerSurvival].Passed:
		return RatingExtreme
	case failed >= 2 || !layers[LayerFirmRisk].Passed || survivalScore < 70:
		return RatingHigh
	case failed >= 1 || survivalScore < 85:
		return RatingMedium
	default:
		return RatingLow
	}
}

// suggestedQuantity recomputes a viable quantity when sizing failed, and
// scales it down proportionally under survival stress. Never below 1.
func (a *Auditor) suggestedQuantity(req TradeRequest, layers map[string]LayerResult) float64 {
	qty := req.Quantity
	sizing := layers[LayerPositionSizing]
	if !sizing.Passed {
		riskPerShare, _ := sizing.Details["risk_per_share"].(float64)
		if riskPerShare > 0 {
			qty = math.Floor(a.capital * a.cfg.MaxRiskPerTrade / riskPerShare)
		}
		if survivalScore := layers[LayerSurvival].Score; survivalScore < 70 {
			qty = math.Floor(qty * survivalScore / 100)
		}
		if qty < 1 {
			qty = 1
		}
	}
	return qty
}

// firewallCode builds the opaque audit-trail token: RMS-<hex time>-<verdict>
// plus one letter per layer (its initial when passed, X when failed).
func firewallCode(layers map[string]LayerResult, allowed bool) string {
	verdict := "FAIL"
	if allowed {
		verdict = "PASS"
	}

	letters := map[string]byte{
		LayerPositionSizing: 'P',
		LayerStopLoss:       'S',
		LayerCorrelation:    'C',
		LayerFirmRisk:       'F',
		LayerSurvival:       'G',
	}
	var code strings.Builder
	for _, name := range layerOrder {
		if layers[name].Passed {
			code.WriteByte(letters[name])
		} else {
			code.WriteByte('X')
		}
	}

	return fmt.Sprintf("RMS-%s-%s-%s",
		strings.ToUpper(strconv.FormatInt(time.Now().Unix(), 16)), verdict, code.String())
}

func firstFailureReason(layers map[string]LayerResult) string {
	for _, name := range layerOrder {
		if !layers[name].Passed {
			return layers[name].Reason
		}
	}
	return ""
}

// activateKillSwitchLocked flips the kill switch. Caller holds the lock.
// The transition is logged at error severity for the observability
// collaborator and stays active until an explicit deactivation call.
func (a *Auditor) activateKillSwitchLocked(reason string) {
	a.state.KillSwitchActive = true
	a.state.KillSwitchReason = reason
	a.metrics.SetKillSwitch(true)
	a.bus.PublishKillSwitchActivated(reason)
	a.logger.Error().
		Str("reason", reason).
		Float64("daily_pnl", a.state.DailyPnL).
		Msg("kill switch activated")
}

// ActivateKillSwitch manually halts all trading until deactivation.
func (a *Auditor) ActivateKillSwitch(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.KillSwitchActive {
		return
	}
	a.activateKillSwitchLocked(reason)
}

// DeactivateKillSwitch clears the kill switch. This is the only way the
// deny-all state ends.
func (a *Auditor) DeactivateKillSwitch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.state.KillSwitchActive {
		return
	}
	a.state.KillSwitchActive = false
	a.state.KillSwitchReason = ""
	a.metrics.SetKillSwitch(false)
	a.bus.PublishKillSwitchDeactivated()
	a.logger.Warn().Msg("kill switch deactivated")
}

// AddPosition registers an open position for exposure tracking.
func (a *Auditor) AddPosition(p PositionInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.positions = append(a.positions, p)
	a.state.OpenPositions = len(a.positions)
}

// RemovePosition drops a tracked position by symbol, reporting whether one
// was removed.
func (a *Auditor) RemovePosition(symbol string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range a.positions {
		if p.Symbol == symbol {
			a.positions = append(a.positions[:i], a.positions[i+1:]...)
			a.state.OpenPositions = len(a.positions)
			return true
		}
	}
	return false
}

// Positions returns a copy of the tracked open positions.
func (a *Auditor) Positions() []PositionInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]PositionInfo, len(a.positions))
	copy(out, a.positions)
	return out
}

// RecordTradeResult folds a realized trade PnL into the account state.
func (a *Auditor) RecordTradeResult(pnl float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.equity += pnl
	a.state.applyPnL(pnl, a.equity)
}

// UpdateMargin sets the current margin figures supplied by the broker
// collaborator.
func (a *Auditor) UpdateMargin(used, available float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.UsedMargin = used
	a.state.AvailableMargin = available
}

// ResetDaily clears the daily counters. Scheduling the call is the
// external scheduler's responsibility.
func (a *Auditor) ResetDaily() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.resetDaily()
	a.bus.PublishRiskStateReset("daily")
}

// ResetWeekly clears the weekly counters.
func (a *Auditor) ResetWeekly() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.resetWeekly()
	a.bus.PublishRiskStateReset("weekly")
}

// ResetMonthly rebases drawdown tracking on current equity.
func (a *Auditor) ResetMonthly() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.resetMonthly(a.equity)
	a.bus.PublishRiskStateReset("monthly")
}

// State returns a copy of the current risk state.
func (a *Auditor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.state
}
