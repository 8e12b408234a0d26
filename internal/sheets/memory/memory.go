// Package memory captures mirrored balances in process. It stands in
// for the Google Sheets writer in tests and when no spreadsheet is
// configured.
package memory

import (
	"context"
	"sync"

	"tripsplit/internal/core"
)

type Writer struct {
	mu       sync.Mutex
	balances []core.GroupBalance
}

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteGroupBalance(_ context.Context, b core.GroupBalance) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances = append(w.balances, b)
	return nil
}

// Written returns a copy of everything mirrored so far.
func (w *Writer) Written() []core.GroupBalance {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.GroupBalance(nil), w.balances...)
}
