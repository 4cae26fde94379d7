package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindIncome    Kind = "income"
	KindExpense   Kind = "expense"
	KindLoanGiven Kind = "loan_given"
	KindLoanTaken Kind = "loan_taken"
	KindSavings   Kind = "savings"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const maxCategoryLength = 100

type (
	// Kind is the closed set of transaction types.
	Kind string

	Role string

	Transaction struct {
		ID         string
		OwnerID    string
		Kind       Kind
		Category   string
		Amount     Money
		Note       *string // nil when absent
		OccurredOn Date
		CreatedAt  time.Time
		ModifiedAt time.Time
	}

	// NewTransaction holds the caller-supplied fields of a transaction to create.
	NewTransaction struct {
		Kind       Kind
		Category   string
		Amount     Money
		Note       *string
		OccurredOn Date
	}

	User struct {
		ID         string
		Name       string
		Email      string
		Role       Role
		CreatedAt  time.Time
		ModifiedAt time.Time
	}
)

var (
	ErrInvalidKind      = errors.New("invalid transaction type")
	ErrEmptyCategory    = errors.New("category is required")
	ErrCategoryTooLong  = errors.New("category too long (max 100 characters)")
	ErrEmptyOwner       = errors.New("owner is required")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmptyName        = errors.New("name is required")
	ErrInvalidEmail     = errors.New("invalid email format")
)

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindIncome, KindExpense, KindLoanGiven, KindLoanTaken, KindSavings}
}

func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindLoanGiven, KindLoanTaken, KindSavings:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts the wire name of a kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", Invalid("type", ErrInvalidKind)
	}
	return k, nil
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func validateCategory(c string) error {
	c = strings.TrimSpace(c)
	if c == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if len(c) > maxCategoryLength {
		return Invalid("category", ErrCategoryTooLong)
	}
	return nil
}

func (n NewTransaction) Validate() error {
	if !n.Kind.Valid() {
		return Invalid("type", ErrInvalidKind)
	}
	if err := validateCategory(n.Category); err != nil {
		return err
	}
	if err := n.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if err := n.OccurredOn.Validate(); err != nil {
		return Invalid("date", err)
	}
	return nil
}

// Normalize trims free-text fields. An all-blank note becomes absent.
func (n NewTransaction) Normalize() NewTransaction {
	n.Category = strings.TrimSpace(n.Category)
	n.Note = normalizeNote(n.Note)
	return n
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	v := strings.TrimSpace(*note)
	if v == "" {
		return nil
	}
	return &v
}

// ValidateOwner rejects a blank owner identity.
func ValidateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return Invalid("user_id", ErrEmptyOwner)
	}
	return nil
}

// Month returns the calendar year and month the transaction is grouped under.
func (t Transaction) Month() (int, int) {
	return t.OccurredOn.Year(), t.OccurredOn.Month()
}

// NewUser is the input for creating a user.
type NewUser struct {
	Name  string
	Email string
	Role  Role
}

func (u NewUser) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	email := strings.TrimSpace(u.Email)
	at := strings.Index(email, "@")
	if at < 1 || strings.ContainsAny(email, " \t\n") || !strings.Contains(email[at+1:], ".") ||
		strings.HasSuffix(email, ".") {
		return Invalid("email", ErrInvalidEmail)
	}
	if !u.Role.Valid() {
		return Invalid("role", ErrInvalidRole)
	}
	return nil
}

// Normalize trims the name and lowercases the email so uniqueness is case-insensitive.
func (u NewUser) Normalize() NewUser {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleUser
	}
	return u
}
