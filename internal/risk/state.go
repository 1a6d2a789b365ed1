package risk

// State is the mutable, process-lifetime account state consulted by every
// audit. It is owned exclusively by the Auditor: all reads and writes go
// through Auditor methods under its lock, and reset calls are the external
// scheduler's responsibility.
type State struct {
	DailyPnL         float64
	WeeklyPnL        float64
	DailyTrades      int
	WeeklyTrades     int
	OpenPositions    int
	UsedMargin       float64
	AvailableMargin  float64
	MaxDrawdown      float64 // configured ceiling, as a fraction of peak equity
	CurrentDrawdown  float64 // fraction of peak equity given back
	KillSwitchActive bool
	KillSwitchReason string
	PeakEquity       float64
	TroughEquity     float64
}

func newState(capital float64, maxDrawdown float64) *State {
	return &State{
		MaxDrawdown:  maxDrawdown,
		PeakEquity:   capital,
		TroughEquity: capital,
	}
}

// applyPnL folds a realized trade result into the running state and
// refreshes the drawdown bookkeeping. Caller holds the auditor lock.
func (s *State) applyPnL(pnl, equity float64) {
	s.DailyPnL += pnl
	s.WeeklyPnL += pnl
	s.DailyTrades++
	s.WeeklyTrades++

	if equity > s.PeakEquity {
		s.PeakEquity = equity
		s.TroughEquity = equity
	}
	if equity < s.TroughEquity {
		s.TroughEquity = equity
	}
	if s.PeakEquity > 0 {
		s.CurrentDrawdown = (s.PeakEquity - equity) / s.PeakEquity
	}
}

func (s *State) resetDaily() {
	s.DailyPnL = 0
	s.DailyTrades = 0
}

func (s *State) resetWeekly() {
	s.WeeklyPnL = 0
	s.WeeklyTrades = 0
}

// resetMonthly rebases the drawdown tracking on the current equity.
func (s *State) resetMonthly(equity float64) {
	s.PeakEquity = equity
	s.TroughEquity = equity
	s.CurrentDrawdown = 0
}
