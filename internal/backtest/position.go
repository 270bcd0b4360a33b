package backtest

// Side is the direction of the open position.
type Side int

const (
	Flat Side = iota
	Long
	Short
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Position is the engine's state between bars. EntryPrice is the
// cost-adjusted fill price; EquityAtEntry is the equity basis the position
// scales from. Both are zero while Flat.
type Position struct {
	Side          Side
	EntryPrice    float64
	EquityAtEntry float64
}

// Mark values the position at px. Flat positions return carry unchanged.
func (p Position) Mark(px, carry float64) float64 {
	switch p.Side {
	case Long:
		return p.EquityAtEntry * (px / p.EntryPrice)
	case Short:
		pnl := (p.EntryPrice - px) / p.EntryPrice
		return p.EquityAtEntry * (1 + pnl)
	default:
		return carry
	}
}

// pnlAt is the fractional return of closing at exit, signed by direction.
func (p Position) pnlAt(exit float64) float64 {
	if p.Side == Short {
		return (p.EntryPrice - exit) / p.EntryPrice
	}
	return (exit - p.EntryPrice) / p.EntryPrice
}
