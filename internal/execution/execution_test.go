package execution

import (
	"errors"
	"math"
	"testing"
)

func TestFromBps(t *testing.T) {
	c := FromBps(20, 5)
	if math.Abs(c.FeeRate-0.002) > 1e-12 || math.Abs(c.SlippageRate-0.0005) > 1e-12 {
		t.Fatalf("unexpected rates: %+v", c)
	}
}

func TestCostPrices(t *testing.T) {
	c := Costs{FeeRate: 0.002, SlippageRate: 0.001}
	if got := c.BuyPrice(100); math.Abs(got-100.3) > 1e-9 {
		t.Fatalf("expected buy 100.3, got %v", got)
	}
	if got := c.SellPrice(100); math.Abs(got-99.7) > 1e-9 {
		t.Fatalf("expected sell 99.7, got %v", got)
	}
	if c.Price(Buy, 50) != c.BuyPrice(50) || c.Price(Sell, 50) != c.SellPrice(50) {
		t.Fatalf("Price should dispatch on side")
	}

	var zero Costs
	if zero.BuyPrice(123.45) != 123.45 || zero.SellPrice(123.45) != 123.45 {
		t.Fatalf("zero costs must leave prices untouched")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		costs Costs
		ok    bool
	}{
		{"zero", Costs{}, true},
		{"typical", FromBps(20, 5), true},
		{"negative fee", Costs{FeeRate: -0.001}, false},
		{"negative slippage", Costs{SlippageRate: -0.001}, false},
		{"too large", Costs{FeeRate: 0.6, SlippageRate: 0.4}, false},
	}
	for _, tc := range cases {
		err := tc.costs.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidCosts) {
			t.Fatalf("%s: expected ErrInvalidCosts, got %v", tc.name, err)
		}
	}
}

func TestActionSide(t *testing.T) {
	cases := map[Action]Side{
		OpenLong:   Buy,
		CloseShort: Buy,
		CloseLong:  Sell,
		OpenShort:  Sell,
	}
	for action, side := range cases {
		if action.Side() != side {
			t.Fatalf("%s: expected %s, got %s", action, side, action.Side())
		}
	}
	if !OpenLong.Opens() || !OpenShort.Opens() || CloseLong.Opens() || CloseShort.Opens() {
		t.Fatalf("Opens misclassified an action")
	}
}
