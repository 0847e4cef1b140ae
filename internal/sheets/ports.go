// Package sheets defines the outbound port for mirroring panels into a
// spreadsheet service.
package sheets

import "context"

// PanelWriter replaces the contents of the year's panel sheet with table.
// The first row of table is the header.
type PanelWriter interface {
	WritePanel(ctx context.Context, year int, table [][]any) error
}
