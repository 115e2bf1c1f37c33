// Package services orchestrates the storage layer, the backup codec and the
// optional event publisher behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reinanbr/money-std/internal/backup"
	"github.com/reinanbr/money-std/internal/core"
	"github.com/reinanbr/money-std/internal/events"
	"github.com/reinanbr/money-std/internal/storage"
)

// Finance coordinates reads and writes over SQLite and publishes data-change
// events when a broker is configured. Event publishing never fails a request:
// the local write is the source of truth.
type Finance struct {
	store     *storage.Repository
	publisher *events.Publisher
	codec     *backup.Codec
}

func NewFinance(store *storage.Repository, publisher *events.Publisher) *Finance {
	return &Finance{
		store:     store,
		publisher: publisher,
		codec:     backup.NewCodec(store),
	}
}

func (s *Finance) ListCategories(ctx context.Context, typeFilter core.TransactionType) ([]core.Category, error) {
	return s.store.ListCategories(ctx, typeFilter)
}

func (s *Finance) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.publish(ctx, events.EntityCategory, events.ActionCreated, created.ID)
	return created, nil
}

// DeleteCategory removes a category; its transactions survive uncategorized.
// Returns false when no category with that id exists.
func (s *Finance) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	n, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	s.publish(ctx, events.EntityCategory, events.ActionDeleted, id)
	return true, nil
}

func (s *Finance) ListTransactions(ctx context.Context, f storage.TransactionFilters) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *Finance) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.store.AddTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, events.EntityTransaction, events.ActionCreated, created.ID)
	return created, nil
}

// UpdateTransaction replaces the transaction with the given id. Returns false
// when no such transaction exists.
func (s *Finance) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (bool, error) {
	n, err := s.store.UpdateTransaction(ctx, id, t)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	s.publish(ctx, events.EntityTransaction, events.ActionUpdated, id)
	return true, nil
}

// DeleteTransaction removes the transaction with the given id. Returns false
// when no such transaction exists.
func (s *Finance) DeleteTransaction(ctx context.Context, id int64) (bool, error) {
	n, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	s.publish(ctx, events.EntityTransaction, events.ActionDeleted, id)
	return true, nil
}

func (s *Finance) GetBalance(ctx context.Context) (core.Balance, error) {
	return s.store.GetBalance(ctx)
}

func (s *Finance) BalanceHistory(ctx context.Context, days int) ([]core.BalanceSnapshot, error) {
	return s.store.BalanceHistory(ctx, days)
}

// ExportBackup serializes the whole dataset to a JSON document.
func (s *Finance) ExportBackup(ctx context.Context) ([]byte, error) {
	return s.codec.Export(ctx)
}

// RestoreBackup replaces the whole dataset with the given document. A
// rejected document leaves current data untouched.
func (s *Finance) RestoreBackup(ctx context.Context, raw []byte) error {
	if err := s.codec.Import(ctx, raw); err != nil {
		return err
	}
	s.publish(ctx, events.EntityBackup, events.ActionRestored, 0)
	return nil
}

func (s *Finance) publish(ctx context.Context, entity, action string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, entity, action, id); err != nil {
		// Local write already succeeded; the event is best effort.
		slog.ErrorContext(ctx, "Failed to publish data event",
			"entity", entity,
			"action", action,
			"id", id,
			"error", err)
	}
}

// Close closes storage and the broker connection, if any.
func (s *Finance) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close finance service: %v", errs)
	}
	return nil
}
