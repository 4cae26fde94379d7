package core

import (
	"encoding/json"
	"strings"
)

// Optional is one slot of a partial update. Set is true when the caller supplied
// the field, even if the supplied value is the zero value (or nil).
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a supplied slot holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UnmarshalJSON marks the slot as supplied. encoding/json only calls it when the
// key is present, including for an explicit null.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

// TransactionPatch lists the mutable transaction fields a caller wants to change.
type TransactionPatch struct {
	Kind       Optional[Kind]    `json:"type"`
	Category   Optional[string]  `json:"category"`
	Amount     Optional[Money]   `json:"amount"`
	Note       Optional[*string] `json:"note"`
	OccurredOn Optional[Date]    `json:"date"`
}

// IsEmpty reports whether no field was supplied.
func (p TransactionPatch) IsEmpty() bool {
	return !p.Kind.Set && !p.Category.Set && !p.Amount.Set && !p.Note.Set && !p.OccurredOn.Set
}

func (p TransactionPatch) Validate() error {
	if p.IsEmpty() {
		return Invalid("", ErrNoFieldsToUpdate)
	}
	if p.Kind.Set && !p.Kind.Value.Valid() {
		return Invalid("type", ErrInvalidKind)
	}
	if p.Category.Set {
		if err := validateCategory(p.Category.Value); err != nil {
			return err
		}
	}
	if p.Amount.Set {
		if err := p.Amount.Value.Validate(); err != nil {
			return Invalid("amount", err)
		}
	}
	if p.OccurredOn.Set {
		if err := p.OccurredOn.Value.Validate(); err != nil {
			return Invalid("date", err)
		}
	}
	return nil
}

// Normalize trims supplied text fields. A supplied blank note clears the note.
func (p TransactionPatch) Normalize() TransactionPatch {
	if p.Category.Set {
		p.Category.Value = strings.TrimSpace(p.Category.Value)
	}
	if p.Note.Set {
		p.Note.Value = normalizeNote(p.Note.Value)
	}
	return p
}

// Apply copies the supplied fields onto t. Identity, owner and timestamps are untouched.
func (p TransactionPatch) Apply(t *Transaction) {
	if p.Kind.Set {
		t.Kind = p.Kind.Value
	}
	if p.Category.Set {
		t.Category = p.Category.Value
	}
	if p.Amount.Set {
		t.Amount = p.Amount.Value
	}
	if p.Note.Set {
		t.Note = p.Note.Value
	}
	if p.OccurredOn.Set {
		t.OccurredOn = p.OccurredOn.Value
	}
}

// Fields names the supplied slots, in a stable order. Used for logging.
func (p TransactionPatch) Fields() []string {
	var out []string
	if p.Kind.Set {
		out = append(out, "type")
	}
	if p.Category.Set {
		out = append(out, "category")
	}
	if p.Amount.Set {
		out = append(out, "amount")
	}
	if p.Note.Set {
		out = append(out, "note")
	}
	if p.OccurredOn.Set {
		out = append(out, "date")
	}
	return out
}
