package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"igreja/internal/amqp"
	"igreja/internal/core"
	"igreja/internal/export"
	"igreja/internal/sheets"
)

// PanelSource builds the annual panel of a year.
type PanelSource interface {
	AnnualPanel(ctx context.Context, canRead bool, year int) (core.AnnualPanel, error)
}

// SyncWorker mirrors annual panels from the record store to a spreadsheet.
type SyncWorker struct {
	panels PanelSource
	writer sheets.PanelWriter
	now    func() time.Time
}

func NewSyncWorker(panels PanelSource, writer sheets.PanelWriter) *SyncWorker {
	return &SyncWorker{panels: panels, writer: writer, now: time.Now}
}

// HandlePanelSync processes one panel sync message from AMQP.
func (w *SyncWorker) HandlePanelSync(ctx context.Context, msg *amqp.PanelSyncMessage) error {
	slog.InfoContext(ctx, "Processing panel sync message",
		"year", msg.Year,
		"timestamp", msg.Timestamp)
	return w.SyncYear(ctx, msg.Year)
}

// SyncYear rebuilds the panel of year and overwrites its sheet.
func (w *SyncWorker) SyncYear(ctx context.Context, year int) error {
	panel, err := w.panels.AnnualPanel(ctx, true, year)
	if err != nil {
		return fmt.Errorf("build panel %d: %w", year, err)
	}

	if err := w.writer.WritePanel(ctx, year, export.PanelTable(panel)); err != nil {
		slog.ErrorContext(ctx, "Failed to write panel", "year", year, "error", err)
		return fmt.Errorf("write panel %d: %w", year, err)
	}

	slog.InfoContext(ctx, "Successfully synced panel",
		"year", year,
		"members", len(panel.Rows),
		"grand_total", panel.GrandTotal.String())
	return nil
}

// ResyncCurrentYear is the backstop for lost messages, run at startup and
// on every tick.
func (w *SyncWorker) ResyncCurrentYear(ctx context.Context) error {
	return w.SyncYear(ctx, w.now().Year())
}

// Run resyncs the current year every interval until ctx is done. Failures are
// logged and retried on the next tick.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.ResyncCurrentYear(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup resync failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ResyncCurrentYear(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic resync failed", "error", err)
			}
		}
	}
}
