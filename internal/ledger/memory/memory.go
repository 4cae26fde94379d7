// Package memory is an in-process ledger backend for development and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]core.User
	txs   map[string]core.Transaction
	now   func() time.Time
}

func New() *Store {
	return &Store{
		users: map[string]core.User{},
		txs:   map[string]core.Transaction{},
		now:   ledger.Now,
	}
}

// WithClock replaces the store clock. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

var _ ledger.Ledger = (*Store)(nil)

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Create stores the transaction under owner.
func (s *Store) Create(_ context.Context, owner string, n core.NewTransaction) (core.Transaction, error) {
	n, err := ledger.PrepareCreate(owner, n)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[owner]; !ok {
		return core.Transaction{}, core.ErrReference
	}
	now := s.now()
	t := core.Transaction{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Kind:       n.Kind,
		Category:   n.Category,
		Amount:     n.Amount,
		Note:       cloneNote(n.Note),
		OccurredOn: n.OccurredOn,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.txs[t.ID] = t
	return copyTx(t), nil
}

func (s *Store) Get(_ context.Context, id, owner string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.owned(id, owner)
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return copyTx(t), nil
}

func (s *Store) ListByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.RLock()
	out := make([]core.Transaction, 0)
	for _, t := range s.txs {
		if t.OwnerID == owner {
			out = append(out, copyTx(t))
		}
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b core.Transaction) int {
		if c := b.OccurredOn.Compare(a.OccurredOn.Time); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) Update(_ context.Context, id, owner string, p core.TransactionPatch) (core.Transaction, error) {
	p, err := ledger.PreparePatch(p)
	if err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.owned(id, owner)
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	p.Apply(&t)
	t.Note = cloneNote(t.Note)
	t.ModifiedAt = ledger.Touch(t.ModifiedAt, s.now())
	s.txs[id] = t
	return copyTx(t), nil
}

func (s *Store) Delete(_ context.Context, id, owner string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owned(id, owner); !ok {
		return false, nil
	}
	delete(s.txs, id)
	return true, nil
}

func (s *Store) owned(id, owner string) (core.Transaction, bool) {
	t, ok := s.txs[id]
	if !ok || t.OwnerID != owner {
		return core.Transaction{}, false
	}
	return t, true
}

func inMonth(t core.Transaction, year, month int) bool {
	y, m := t.Month()
	return y == year && m == month
}

func (s *Store) MonthlyTotals(_ context.Context, owner string, year, month int) (core.MonthlyTotals, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := core.MonthlyTotals{}
	for _, t := range s.txs {
		if t.OwnerID == owner && inMonth(t, year, month) {
			totals[t.Kind] = totals[t.Kind].Add(t.Amount)
		}
	}
	return totals, nil
}

func (s *Store) ExpenseByCategory(_ context.Context, owner string, year, month int) ([]core.CategoryAmount, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	s.mu.RLock()
	sums := map[string]core.Money{}
	for _, t := range s.txs {
		if t.OwnerID == owner && t.Kind == core.KindExpense && inMonth(t, year, month) {
			sums[t.Category] = sums[t.Category].Add(t.Amount)
		}
	}
	s.mu.RUnlock()
	out := make([]core.CategoryAmount, 0, len(sums))
	for c, total := range sums {
		out = append(out, core.CategoryAmount{Category: c, Total: total})
	}
	core.SortCategoryAmounts(out)
	return out, nil
}

func (s *Store) TransactionCount(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.txs)), nil
}

func (s *Store) MostActiveOwners(_ context.Context, limit int) ([]core.ActivityRank, error) {
	if err := ledger.ValidateLimit(limit); err != nil {
		return nil, err
	}
	s.mu.RLock()
	counts := make(map[string]int64, len(s.users))
	for _, t := range s.txs {
		counts[t.OwnerID]++
	}
	users := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(users, func(a, b core.User) int {
		if c := cmp.Compare(counts[b.ID], counts[a.ID]); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(users) > limit {
		users = users[:limit]
	}
	out := make([]core.ActivityRank, len(users))
	for i, u := range users {
		out[i] = core.ActivityRank{UserID: u.ID, Name: u.Name, Email: u.Email, TransactionCount: counts[u.ID]}
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.NewUser) (core.User, error) {
	u, err := ledger.PrepareUser(u)
	if err != nil {
		return core.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return core.User{}, core.ErrConflict
		}
	}
	now := s.now()
	user := core.User{
		ID:         uuid.NewString(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

// ListUsers returns users newest first.
func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.RLock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b core.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false, nil
	}
	delete(s.users, id)
	for txID, t := range s.txs {
		if t.OwnerID == id {
			delete(s.txs, txID)
		}
	}
	return true, nil
}

func copyTx(t core.Transaction) core.Transaction {
	t.Note = cloneNote(t.Note)
	return t
}

func cloneNote(n *string) *string {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
