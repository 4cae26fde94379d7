package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lifeledger/internal/amqp"
	"lifeledger/internal/core"
	"lifeledger/internal/ledger"
)

// EventPublisher is the outbound side of the AMQP client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService wraps a backend and announces every committed transaction
// mutation. With WithSummaryCache the month aggregates are memoized per owner
// and dropped on every mutation of that owner's ledger. Other reads and user
// operations pass straight through.
type LedgerService struct {
	ledger.Ledger
	publisher EventPublisher
	summaries *summaryCache
}

type Option func(*LedgerService)

// WithSummaryCache memoizes MonthlyTotals and ExpenseByCategory for up to size
// owner-months each, for at most ttl.
func WithSummaryCache(size int, ttl time.Duration) Option {
	return func(s *LedgerService) {
		if size > 0 && ttl > 0 {
			s.summaries = newSummaryCache(size, ttl)
		}
	}
}

func NewLedgerService(backend ledger.Ledger, publisher EventPublisher, opts ...Option) *LedgerService {
	s := &LedgerService{Ledger: backend, publisher: publisher}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create saves the transaction, then publishes transaction.created.
func (s *LedgerService) Create(ctx context.Context, owner string, n core.NewTransaction) (core.Transaction, error) {
	t, err := s.Ledger.Create(ctx, owner, n)
	if err != nil {
		return core.Transaction{}, err
	}
	s.invalidate(owner)
	s.publish(ctx, amqp.TransactionCreated, t)
	return t, nil
}

func (s *LedgerService) Update(ctx context.Context, id, owner string, p core.TransactionPatch) (core.Transaction, error) {
	t, err := s.Ledger.Update(ctx, id, owner, p)
	if err != nil {
		return core.Transaction{}, err
	}
	s.invalidate(owner)
	s.publish(ctx, amqp.TransactionUpdated, t)
	return t, nil
}

// Delete publishes transaction.deleted only when a row was actually removed.
func (s *LedgerService) Delete(ctx context.Context, id, owner string) (bool, error) {
	// Read first so the event can carry the occurrence date.
	t, getErr := s.Ledger.Get(ctx, id, owner)
	ok, err := s.Ledger.Delete(ctx, id, owner)
	if err != nil || !ok {
		return ok, err
	}
	s.invalidate(owner)
	if getErr != nil {
		t = core.Transaction{ID: id, OwnerID: owner}
	}
	s.publish(ctx, amqp.TransactionDeleted, t)
	return true, nil
}

// DeleteUser removes the user and, with it, every cached month of theirs.
func (s *LedgerService) DeleteUser(ctx context.Context, id string) (bool, error) {
	ok, err := s.Ledger.DeleteUser(ctx, id)
	if ok {
		s.invalidate(id)
	}
	return ok, err
}

func (s *LedgerService) MonthlyTotals(ctx context.Context, owner string, year, month int) (core.MonthlyTotals, error) {
	if s.summaries == nil {
		return s.Ledger.MonthlyTotals(ctx, owner, year, month)
	}
	key := monthKey(owner, year, month)
	if t, ok := s.summaries.getTotals(key); ok {
		return t, nil
	}
	gen := s.summaries.generation(owner)
	t, err := s.Ledger.MonthlyTotals(ctx, owner, year, month)
	if err != nil {
		return nil, err
	}
	s.summaries.setTotals(owner, gen, key, t)
	return t, nil
}

func (s *LedgerService) ExpenseByCategory(ctx context.Context, owner string, year, month int) ([]core.CategoryAmount, error) {
	if s.summaries == nil {
		return s.Ledger.ExpenseByCategory(ctx, owner, year, month)
	}
	key := monthKey(owner, year, month)
	if rows, ok := s.summaries.getCategories(key); ok {
		return rows, nil
	}
	gen := s.summaries.generation(owner)
	rows, err := s.Ledger.ExpenseByCategory(ctx, owner, year, month)
	if err != nil {
		return nil, err
	}
	s.summaries.setCategories(owner, gen, key, rows)
	return rows, nil
}

func (s *LedgerService) invalidate(owner string) {
	if s.summaries != nil {
		s.summaries.invalidate(owner)
	}
}

// publish never fails the request: the mutation is already committed.
func (s *LedgerService) publish(ctx context.Context, typ amqp.EventType, t core.Transaction) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger event", "type", typ)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(typ, t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", typ,
			"transaction_id", t.ID,
			"error", err)
	}
}

// Ping checks the backend when it supports health checks.
func (s *LedgerService) Ping(ctx context.Context) error {
	if p, ok := s.Ledger.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close closes the backend and the publisher when they support it.
func (s *LedgerService) Close() error {
	if s.summaries != nil {
		s.summaries.close()
	}
	var errs []error
	if c, ok := s.Ledger.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
