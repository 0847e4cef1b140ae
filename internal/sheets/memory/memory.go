// Package memory is an in-process PanelWriter for development and tests.
package memory

import (
	"context"
	"sync"

	"igreja/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	panels map[int][][]any
	writes int
}

var _ sheets.PanelWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{panels: make(map[int][][]any)}
}

// WritePanel replaces the stored table of year.
func (w *Writer) WritePanel(_ context.Context, year int, table [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := make([][]any, len(table))
	for i, row := range table {
		cp[i] = append([]any(nil), row...)
	}
	w.panels[year] = cp
	w.writes++
	return nil
}

// Panel returns the last table written for year.
func (w *Writer) Panel(year int) ([][]any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.panels[year]
	return t, ok
}

// Writes counts every WritePanel call.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
