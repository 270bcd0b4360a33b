// Package ledger collects simulated fills emitted by the backtest engine.
package ledger

import (
	"sync"

	"github.com/laurin2323/eth-ml-bot/internal/execution"
)

// Ledger stores fills in memory for quick inspection.
type Ledger struct {
	mu    sync.Mutex
	fills []execution.Fill
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{fills: make([]execution.Fill, 0, capacity)}
}

// Record appends a fill to the ledger.
func (l *Ledger) Record(fill execution.Fill) {
	l.mu.Lock()
	l.fills = append(l.fills, fill)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded fills.
func (l *Ledger) Snapshot() []execution.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// Len reports how many fills are stored.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fills)
}

// Reset clears all stored fills.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.fills = l.fills[:0]
	l.mu.Unlock()
}

// Recorder is anything that accepts fills.
type Recorder interface {
	Record(execution.Fill)
}

// Multi fans a fill out to several recorders, skipping nils.
type Multi []Recorder

// Record forwards the fill to every recorder in order.
func (m Multi) Record(fill execution.Fill) {
	for _, r := range m {
		if r != nil {
			r.Record(fill)
		}
	}
}
