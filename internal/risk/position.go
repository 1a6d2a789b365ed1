package risk

// Side is the direction of a trade request.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeRequest is a proposed trade submitted to the firewall, either
// synthesized from a setup or entered manually. It is input only and never
// persisted by the core. StopLoss, Target and Sector are optional; zero or
// empty means absent.
type TradeRequest struct {
	Symbol   string
	Exchange string
	Side     Side
	Quantity float64
	Price    float64
	StopLoss float64
	Target   float64
	Sector   string
}

// PositionInfo describes one open position. Positions are added and
// removed explicitly by the caller and are used only for correlation and
// exposure computation.
type PositionInfo struct {
	Symbol       string
	Exchange     string
	Quantity     float64
	EntryPrice   float64
	CurrentPrice float64
	PnL          float64
	Sector       string
}

// Notional returns the absolute current market value of the position.
func (p PositionInfo) Notional() float64 {
	v := p.Quantity * p.CurrentPrice
	if v < 0 {
		return -v
	}
	return v
}

// SectorTable maps symbols to sectors for exposure grouping. It is static
// configuration supplied at construction.
type SectorTable map[string]string

const sectorUnclassified = "unclassified"

// Lookup returns the sector for a symbol, falling back to a shared
// unclassified bucket.
func (t SectorTable) Lookup(symbol string) string {
	if t != nil {
		if s, ok := t[symbol]; ok && s != "" {
			return s
		}
	}
	return sectorUnclassified
}
