package memory

import (
	"context"
	"fmt"
	"sync"

	ports "lifeledger/internal/sheets"
)

// Exporter keeps activity rows in memory. Used when no spreadsheet is configured.
type Exporter struct {
	mu   sync.Mutex
	rows []ports.ActivityRow
}

var _ ports.ActivityExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// AppendActivity stores the row and returns a synthetic row reference.
func (e *Exporter) AppendActivity(_ context.Context, row ports.ActivityRow) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows = append(e.rows, row)
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (e *Exporter) Rows() []ports.ActivityRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.ActivityRow(nil), e.rows...)
}
