package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lifeledger/internal/amqp"
	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
	"lifeledger/internal/sheets"
)

// ExportWorker mirrors ledger events into the spreadsheet activity log.
type ExportWorker struct {
	store    ledger.TransactionStore
	exporter sheets.ActivityExporter
	now      func() time.Time
}

func NewExportWorker(store ledger.TransactionStore, exporter sheets.ActivityExporter) *ExportWorker {
	return &ExportWorker{store: store, exporter: exporter, now: time.Now}
}

// HandleLedgerEvent appends one activity row per event. Created and updated
// events re-read the transaction so the sheet shows its committed state; an
// event for a row that has since been deleted is acknowledged and skipped.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEvent) error {
	row := sheets.ActivityRow{
		Event:         string(msg.Type),
		TransactionID: msg.TransactionID,
		UserID:        msg.UserID,
		OccurredOn:    msg.OccurredOn,
		RecordedAt:    w.now(),
	}

	if msg.Type != amqp.TransactionDeleted {
		t, err := w.store.Get(ctx, msg.TransactionID, msg.UserID)
		if errors.Is(err, core.ErrNotFound) {
			slog.InfoContext(ctx, "Transaction gone before export, skipping",
				"type", msg.Type,
				"transaction_id", msg.TransactionID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load transaction %s: %w", msg.TransactionID, err)
		}
		row.Kind = t.Kind
		row.Category = t.Category
		row.Amount = t.Amount
		row.OccurredOn = t.OccurredOn
		if t.Note != nil {
			row.Note = *t.Note
		}
	}

	ref, err := w.exporter.AppendActivity(ctx, row)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}

	slog.InfoContext(ctx, "Exported ledger event",
		"type", msg.Type,
		"transaction_id", msg.TransactionID,
		"ref", ref)
	return nil
}
