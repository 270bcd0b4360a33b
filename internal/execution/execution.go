// Package execution models simulated fills and the proportional cost model applied to them.
package execution

import (
	"errors"
	"fmt"
	"time"
)

// Side enumerates fill directions.
type Side string

const (
	// Buy opens a long or covers a short.
	Buy Side = "BUY"
	// Sell closes a long or opens a short.
	Sell Side = "SELL"
)

// Action names the position transition a fill belongs to.
type Action string

const (
	OpenLong   Action = "open_long"
	CloseLong  Action = "close_long"
	OpenShort  Action = "open_short"
	CloseShort Action = "close_short"
)

// Side reports which way the market is hit for the action.
func (a Action) Side() Side {
	switch a {
	case OpenLong, CloseShort:
		return Buy
	default:
		return Sell
	}
}

// Opens reports whether the action starts a new position.
func (a Action) Opens() bool { return a == OpenLong || a == OpenShort }

// Fill is one simulated execution at a bar's open.
type Fill struct {
	Time     time.Time `json:"time"`
	Bar      int       `json:"bar"`
	Action   Action    `json:"action"`
	Side     Side      `json:"side"`
	RefPrice float64   `json:"ref_price"`
	Price    float64   `json:"price"`
	// Equity is the equity basis right after the fill: the new position's
	// equity at entry for opens, the realized equity for closes.
	Equity float64 `json:"equity"`
}

// ErrInvalidCosts is returned for negative rates or rates that would push a sell fill to zero.
var ErrInvalidCosts = errors.New("invalid cost model")

// Costs holds the proportional fee and slippage applied to every fill.
type Costs struct {
	FeeRate      float64 `json:"fee_rate"`
	SlippageRate float64 `json:"slippage_rate"`
}

// FromBps converts basis points (20 = 0.2%) into a cost model.
func FromBps(feeBps, slippageBps float64) Costs {
	return Costs{FeeRate: feeBps / 10000, SlippageRate: slippageBps / 10000}
}

// Validate checks the rates are usable for a run.
func (c Costs) Validate() error {
	if c.FeeRate < 0 || c.SlippageRate < 0 {
		return fmt.Errorf("%w: fee=%g slippage=%g must be non-negative", ErrInvalidCosts, c.FeeRate, c.SlippageRate)
	}
	if c.FeeRate+c.SlippageRate >= 1 {
		return fmt.Errorf("%w: fee+slippage=%g must stay below 1", ErrInvalidCosts, c.FeeRate+c.SlippageRate)
	}
	return nil
}

// BuyPrice is the achieved price when buying at ref.
func (c Costs) BuyPrice(ref float64) float64 {
	return ref * (1 + c.SlippageRate + c.FeeRate)
}

// SellPrice is the achieved price when selling at ref.
func (c Costs) SellPrice(ref float64) float64 {
	return ref * (1 - c.SlippageRate - c.FeeRate)
}

// Price applies the cost for the given side.
func (c Costs) Price(side Side, ref float64) float64 {
	if side == Buy {
		return c.BuyPrice(ref)
	}
	return c.SellPrice(ref)
}
