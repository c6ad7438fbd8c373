package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/ports"
)

// EventPublisher is the outbound side of transaction events
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error
	Close() error
}

// TransactionService orchestrates transaction writes across the store and AMQP
type TransactionService struct {
	store     ports.Store
	publisher EventPublisher
	logger    *applog.Logger
}

// NewTransactionService accepts a nil publisher, which disables events.
func NewTransactionService(store ports.Store, publisher EventPublisher, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentTransaction),
	}
}

func (s *TransactionService) Store() ports.Store { return s.store }

// Create saves t and publishes a created event
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.EventCreated, saved)
	return saved, nil
}

// Update replaces the stored transaction with the same ID
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.store.UpdateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.EventUpdated, saved)
	return saved, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, amqp.EventDeleted, existing)
	return nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) List(ctx context.Context, f ports.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

// publish never fails the write; the transaction is already stored.
func (s *TransactionService) publish(ctx context.Context, typ amqp.EventType, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	evt := amqp.NewTransactionEvent(typ, t)
	if err := s.publisher.PublishTransactionEvent(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			applog.FieldEventType, typ,
			applog.FieldTransactionID, t.ID,
			applog.FieldError, err)
	}
}

// Close closes the publisher. The store is owned by the backend cleanup.
func (s *TransactionService) Close() error {
	var errs []error
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close transaction service: %w", err)
	}
	return nil
}
