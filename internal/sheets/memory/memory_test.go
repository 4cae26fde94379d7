package memory

import (
	"context"
	"testing"

	ports "lifeledger/internal/sheets"
)

func TestExporterAppend(t *testing.T) {
	e := New()
	ref, err := e.AppendActivity(context.Background(), ports.ActivityRow{Event: "transaction.created", TransactionID: "t1"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("unexpected ref %q", ref)
	}
	ref, _ = e.AppendActivity(context.Background(), ports.ActivityRow{Event: "transaction.deleted", TransactionID: "t1"})
	if ref != "mem:2" {
		t.Fatalf("unexpected ref %q", ref)
	}

	rows := e.Rows()
	if len(rows) != 2 || rows[1].Event != "transaction.deleted" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rows[0].Event = "mutated"
	if e.Rows()[0].Event != "transaction.created" {
		t.Fatal("Rows must return a copy")
	}
}
