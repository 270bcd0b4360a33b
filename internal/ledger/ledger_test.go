package ledger

import (
	"testing"

	"github.com/laurin2323/eth-ml-bot/internal/execution"
)

func TestLedgerRecordSnapshot(t *testing.T) {
	ledger := NewLedger(2)
	fill := execution.Fill{Bar: 3, Action: execution.OpenLong, Side: execution.Buy, Price: 100.25}
	ledger.Record(fill)

	snapshot := ledger.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(snapshot))
	}
	if snapshot[0] != fill {
		t.Fatalf("unexpected fill %+v", snapshot[0])
	}

	snapshot[0].Price = 0
	if ledger.Snapshot()[0].Price != 100.25 {
		t.Fatalf("snapshot must be a copy")
	}

	ledger.Reset()
	if ledger.Len() != 0 {
		t.Fatalf("expected ledger reset")
	}
}

func TestNewLedgerNegativeCapacity(t *testing.T) {
	ledger := NewLedger(-5)
	ledger.Record(execution.Fill{})
	if ledger.Len() != 1 {
		t.Fatalf("expected one fill")
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewLedger(0), NewLedger(0)
	multi := Multi{a, nil, b}
	multi.Record(execution.Fill{Bar: 1})
	multi.Record(execution.Fill{Bar: 2})
	if a.Len() != 2 || b.Len() != 2 {
		t.Fatalf("expected both ledgers to see 2 fills, got %d and %d", a.Len(), b.Len())
	}
}
