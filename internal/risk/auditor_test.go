package risk

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"smc-trading-core/internal/events"
)

func newTestAuditor(t *testing.T) *Auditor {
	t.Helper()
	a, err := NewAuditor(DefaultConfig(), 100000, SectorTable{"AAPL": "tech", "MSFT": "tech"}, zerolog.Nop(), nil, nil)
	if err != nil {
		t.Fatalf("NewAuditor: %v", err)
	}
	return a
}

func cleanRequest() TradeRequest {
	return TradeRequest{
		Symbol:   "RELIANCE",
		Side:     SideBuy,
		Quantity: 100,
		Price:    50,
		StopLoss: 49,
		Sector:   "energy",
	}
}

// TestAuditCleanPass tests a request that clears every firewall layer
func TestAuditCleanPass(t *testing.T) {
	a := newTestAuditor(t)

	audit := a.Audit(cleanRequest())
	if !audit.Allowed {
		t.Fatalf("Expected allowed audit, got denial: %s", audit.Reason)
	}
	if audit.Reason != "all risk layers passed" {
		t.Errorf("Unexpected reason: %s", audit.Reason)
	}
	if audit.RiskRating != RatingLow {
		t.Errorf("Expected LOW rating, got %s", audit.RiskRating)
	}
	if audit.SuggestedQuantity != 100 {
		t.Errorf("Expected suggested quantity unchanged at 100, got %f", audit.SuggestedQuantity)
	}
	if len(audit.Layers) != 5 {
		t.Errorf("Expected 5 layer results, got %d", len(audit.Layers))
	}
	if !strings.HasPrefix(audit.FirewallCode, "RMS-") || !strings.HasSuffix(audit.FirewallCode, "-PASS-PSCFG") {
		t.Errorf("Unexpected firewall code: %s", audit.FirewallCode)
	}
}

// TestAuditOversizedPosition tests the sizing layer rejecting a position
// whose value exceeds the capital cap, with a resized suggestion
func TestAuditOversizedPosition(t *testing.T) {
	a := newTestAuditor(t)

	audit := a.Audit(TradeRequest{
		Symbol:   "TCS",
		Side:     SideBuy,
		Quantity: 100,
		Price:    200,
		StopLoss: 196,
	})
	if audit.Allowed {
		t.Fatal("Expected denial for oversized position")
	}
	if audit.Layers[LayerPositionSizing].Passed {
		t.Error("Expected position sizing layer to fail")
	}
	if !strings.Contains(audit.Reason, "position value") {
		t.Errorf("Expected position value in reason, got: %s", audit.Reason)
	}
	// 1% of capital over the 4.00 risk per share
	if audit.SuggestedQuantity != 250 {
		t.Errorf("Expected suggested quantity 250, got %f", audit.SuggestedQuantity)
	}
	if audit.RiskRating != RatingMedium {
		t.Errorf("Expected MEDIUM rating for one failed layer, got %s", audit.RiskRating)
	}
	if !strings.HasSuffix(audit.FirewallCode, "-FAIL-XSCFG") {
		t.Errorf("Unexpected firewall code: %s", audit.FirewallCode)
	}
}

// TestAuditStopLossBounds tests the stop sanity layer across its bounds
func TestAuditStopLossBounds(t *testing.T) {
	tests := []struct {
		name     string
		stop     float64
		passed   bool
		inReason string
	}{
		{"too tight", 99.7, false, "below minimum"},
		{"too wide", 85, false, "above maximum"},
		{"in bounds", 98, true, ""},
	}

	for _, tt := range tests {
		a := newTestAuditor(t)
		audit := a.Audit(TradeRequest{
			Symbol:   "INFY",
			Side:     SideSell,
			Quantity: 10,
			Price:    100,
			StopLoss: tt.stop,
		})

		layer := audit.Layers[LayerStopLoss]
		if layer.Passed != tt.passed {
			t.Errorf("%s: stop layer passed = %v, expected %v", tt.name, layer.Passed, tt.passed)
		}
		if tt.inReason != "" && !strings.Contains(layer.Reason, tt.inReason) {
			t.Errorf("%s: expected %q in reason, got: %s", tt.name, tt.inReason, layer.Reason)
		}
	}
}

// TestAuditOmittedStop tests that a missing stop passes at reduced score
// and a default stop is used for sizing
func TestAuditOmittedStop(t *testing.T) {
	a := newTestAuditor(t)

	audit := a.Audit(TradeRequest{
		Symbol:   "INFY",
		Side:     SideBuy,
		Quantity: 10,
		Price:    100,
	})
	if !audit.Allowed {
		t.Fatalf("Expected allowed audit, got denial: %s", audit.Reason)
	}
	layer := audit.Layers[LayerStopLoss]
	if !layer.Passed || layer.Score != 0.8 {
		t.Errorf("Expected pass at score 0.8 without a stop, got passed=%v score=%f", layer.Passed, layer.Score)
	}
	if layer.Details["default_stop"] != 98.0 {
		t.Errorf("Expected default stop 98.0, got %v", layer.Details["default_stop"])
	}
}

// TestAuditSectorExposure tests the correlation layer's sector cap
func TestAuditSectorExposure(t *testing.T) {
	a := newTestAuditor(t)
	a.AddPosition(PositionInfo{Symbol: "AAPL", Quantity: 100, EntryPrice: 230, CurrentPrice: 240})

	audit := a.Audit(TradeRequest{
		Symbol:   "MSFT",
		Side:     SideBuy,
		Quantity: 10,
		Price:    150,
		StopLoss: 147,
	})
	if audit.Allowed {
		t.Fatal("Expected denial for sector exposure breach")
	}
	layer := audit.Layers[LayerCorrelation]
	if layer.Passed {
		t.Error("Expected correlation layer to fail")
	}
	if !strings.Contains(layer.Reason, "tech") {
		t.Errorf("Expected sector in reason, got: %s", layer.Reason)
	}
}

// TestAuditHeldSymbol tests that adding to an existing position passes the
// correlation layer at reduced score
func TestAuditHeldSymbol(t *testing.T) {
	a := newTestAuditor(t)
	a.AddPosition(PositionInfo{Symbol: "AAPL", Quantity: 100, EntryPrice: 230, CurrentPrice: 240})

	audit := a.Audit(TradeRequest{
		Symbol:   "AAPL",
		Side:     SideBuy,
		Quantity: 1,
		Price:    100,
		StopLoss: 98,
	})
	layer := audit.Layers[LayerCorrelation]
	if !layer.Passed || layer.Score != 0.7 {
		t.Errorf("Expected pass at score 0.7 for held symbol, got passed=%v score=%f", layer.Passed, layer.Score)
	}
}

// TestAuditDailyLossLimit tests the firm risk layer tripping on the daily
// loss cap without reaching the kill switch
func TestAuditDailyLossLimit(t *testing.T) {
	a := newTestAuditor(t)
	a.RecordTradeResult(-2500)

	audit := a.Audit(cleanRequest())
	if audit.Allowed {
		t.Fatal("Expected denial past the daily loss limit")
	}
	if audit.Layers[LayerFirmRisk].Passed {
		t.Error("Expected firm risk layer to fail")
	}
	if !audit.Layers[LayerSurvival].Passed {
		t.Error("Expected survival layer to still pass")
	}
	if audit.RiskRating != RatingHigh {
		t.Errorf("Expected HIGH rating on firm risk failure, got %s", audit.RiskRating)
	}
	if a.State().KillSwitchActive {
		t.Error("Kill switch must stay inactive below its threshold")
	}
}

// TestAuditTradeCountLimit tests the firm risk layer tripping on the daily
// trade count
func TestAuditTradeCountLimit(t *testing.T) {
	a := newTestAuditor(t)
	for i := 0; i < 50; i++ {
		a.RecordTradeResult(10)
	}

	audit := a.Audit(cleanRequest())
	if audit.Allowed {
		t.Fatal("Expected denial at the trade count limit")
	}
	layer := audit.Layers[LayerFirmRisk]
	if layer.Passed {
		t.Error("Expected firm risk layer to fail")
	}
	if !strings.Contains(layer.Reason, "trade count") {
		t.Errorf("Expected trade count in reason, got: %s", layer.Reason)
	}
}

// TestAuditMarginUtilization tests the projected margin check and the
// survival scaling of the suggested quantity under margin stress
func TestAuditMarginUtilization(t *testing.T) {
	a := newTestAuditor(t)
	a.UpdateMargin(80000, 20000)

	audit := a.Audit(TradeRequest{
		Symbol:   "TCS",
		Side:     SideBuy,
		Quantity: 100,
		Price:    200,
		StopLoss: 196,
	})
	if audit.Allowed {
		t.Fatal("Expected denial under margin stress")
	}
	if audit.Layers[LayerFirmRisk].Passed {
		t.Error("Expected firm risk layer to fail on projected margin")
	}
	if audit.Layers[LayerSurvival].Passed {
		t.Error("Expected survival layer to fail at score 20")
	}
	// 250 from the sizing limit, scaled by the survival score of 20
	if audit.SuggestedQuantity != 50 {
		t.Errorf("Expected suggested quantity 50, got %f", audit.SuggestedQuantity)
	}
	if audit.RiskRating != RatingExtreme {
		t.Errorf("Expected EXTREME rating on survival failure, got %s", audit.RiskRating)
	}
}

// TestKillSwitchBreach tests that a daily loss at the threshold trips the
// kill switch during the audit and forces denial
func TestKillSwitchBreach(t *testing.T) {
	a := newTestAuditor(t)
	a.RecordTradeResult(-5100)

	audit := a.Audit(cleanRequest())
	if audit.Allowed {
		t.Fatal("Expected denial after kill-switch breach")
	}
	if !strings.HasPrefix(audit.Reason, "Kill switch active:") {
		t.Errorf("Expected kill switch reason, got: %s", audit.Reason)
	}
	if audit.RiskRating != RatingExtreme {
		t.Errorf("Expected EXTREME rating, got %s", audit.RiskRating)
	}
	if !a.State().KillSwitchActive {
		t.Error("Expected kill switch active in state")
	}

	// stays denied on subsequent audits until deactivated
	if again := a.Audit(cleanRequest()); again.Allowed {
		t.Error("Expected continued denial while kill switch is active")
	}
}

// TestKillSwitchDeactivation tests that trading resumes only after an
// explicit deactivation and counter resets
func TestKillSwitchDeactivation(t *testing.T) {
	a := newTestAuditor(t)
	a.RecordTradeResult(-5100)
	a.Audit(cleanRequest())

	a.DeactivateKillSwitch()
	a.ResetDaily()
	a.ResetWeekly()

	audit := a.Audit(cleanRequest())
	if !audit.Allowed {
		t.Fatalf("Expected allowed audit after deactivation, got: %s", audit.Reason)
	}
	// the 5.1% drawdown survives the resets and keeps the rating elevated
	if audit.RiskRating != RatingMedium {
		t.Errorf("Expected MEDIUM rating under drawdown, got %s", audit.RiskRating)
	}
}

// TestManualKillSwitch tests the manual halt path denying a clean request
func TestManualKillSwitch(t *testing.T) {
	a := newTestAuditor(t)
	a.ActivateKillSwitch("manual halt")

	audit := a.Audit(cleanRequest())
	if audit.Allowed {
		t.Fatal("Expected denial under manual kill switch")
	}
	if !strings.Contains(audit.Reason, "manual halt") {
		t.Errorf("Expected manual reason, got: %s", audit.Reason)
	}

	a.DeactivateKillSwitch()
	if audit := a.Audit(cleanRequest()); !audit.Allowed {
		t.Errorf("Expected allowed audit after deactivation, got: %s", audit.Reason)
	}
}

// TestAuditDeterminism tests that identical state yields identical audits
func TestAuditDeterminism(t *testing.T) {
	a := newTestAuditor(t)

	first := a.Audit(cleanRequest())
	second := a.Audit(cleanRequest())
	first.FirewallCode = ""
	second.FirewallCode = ""

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Audits differ for identical state:\n%+v\n%+v", first, second)
	}
}

// TestKillSwitchEvent tests that a breach publishes the activation event
func TestKillSwitchEvent(t *testing.T) {
	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventKillSwitchActivated, func(e events.Event) {
		received <- e
	})

	a, err := NewAuditor(DefaultConfig(), 100000, nil, zerolog.Nop(), bus, nil)
	if err != nil {
		t.Fatalf("NewAuditor: %v", err)
	}
	a.RecordTradeResult(-5100)
	a.Audit(cleanRequest())

	select {
	case ev := <-received:
		if ev.Data["reason"] == "" {
			t.Error("Expected a reason on the activation event")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for kill switch event")
	}
}

// TestPositionTracking tests add, list and remove of open positions
func TestPositionTracking(t *testing.T) {
	a := newTestAuditor(t)

	a.AddPosition(PositionInfo{Symbol: "AAPL", Quantity: 10, CurrentPrice: 240})
	a.AddPosition(PositionInfo{Symbol: "MSFT", Quantity: 5, CurrentPrice: 400})
	if got := len(a.Positions()); got != 2 {
		t.Fatalf("Expected 2 positions, got %d", got)
	}
	if a.State().OpenPositions != 2 {
		t.Errorf("Expected open position count 2, got %d", a.State().OpenPositions)
	}

	if !a.RemovePosition("AAPL") {
		t.Error("Expected removal of tracked position")
	}
	if a.RemovePosition("AAPL") {
		t.Error("Expected second removal to report false")
	}
	if a.State().OpenPositions != 1 {
		t.Errorf("Expected open position count 1, got %d", a.State().OpenPositions)
	}
}

// TestInvalidCapital tests auditor construction with non-positive capital
func TestInvalidCapital(t *testing.T) {
	if _, err := NewAuditor(DefaultConfig(), 0, nil, zerolog.Nop(), nil, nil); err != ErrInvalidCapital {
		t.Errorf("Expected ErrInvalidCapital, got %v", err)
	}
}

// BenchmarkAudit benchmarks a full five-layer audit
func BenchmarkAudit(b *testing.B) {
	a, err := NewAuditor(DefaultConfig(), 100000, nil, zerolog.Nop(), nil, nil)
	if err != nil {
		b.Fatalf("NewAuditor: %v", err)
	}
	req := cleanRequest()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Audit(req)
	}
}
