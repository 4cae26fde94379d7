package sheets

import (
	"context"
	"time"

	"lifeledger/internal/core"
)

// ActivityRow is one line of the spreadsheet activity log.
type ActivityRow struct {
	Event         string
	TransactionID string
	UserID        string
	Kind          core.Kind
	Category      string
	Amount        core.Money
	OccurredOn    core.Date
	Note          string
	RecordedAt    time.Time
}

// ActivityHeader names the columns written for every ActivityRow.
var ActivityHeader = []string{"Recorded at", "Event", "Transaction", "User", "Date", "Type", "Category", "Amount", "Note"}

// Values renders the row in ActivityHeader order. Amounts keep two decimals.
func (r ActivityRow) Values() []any {
	var amount string
	if r.Kind != "" {
		amount = r.Amount.String()
	}
	return []any{
		r.RecordedAt.UTC().Format(time.RFC3339),
		r.Event,
		r.TransactionID,
		r.UserID,
		r.OccurredOn.String(),
		string(r.Kind),
		r.Category,
		amount,
		r.Note,
	}
}

// ActivityExporter appends ledger activity to an external sheet.
type ActivityExporter interface {
	AppendActivity(ctx context.Context, row ActivityRow) (rowRef string, err error)
}
