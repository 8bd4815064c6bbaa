package services

import (
	"context"
	"fmt"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/log"
	"finbook/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP.
type TransactionService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	logger     *log.Logger
}

func NewTransactionService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		logger:     log.ForComponent(log.ComponentApp),
	}
}

// CreateTransaction saves a transaction locally and publishes an export
// message. Publish failures never fail the request.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (int64, error) {
	id, err := s.storage.CreateTransaction(ctx, userID, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if err := s.publishExportMessage(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish export message",
			log.FieldTxID, id, log.FieldError, err)
	}

	return id, nil
}

// UpdateTransaction updates a transaction locally and re-queues it for export.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID int64, t core.Transaction) error {
	if err := s.storage.UpdateTransaction(ctx, userID, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publishExportMessage(ctx, t.ID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish export message",
			log.FieldTxID, t.ID, log.FieldError, err)
	}

	return nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *TransactionService) publishExportMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishTransactionExport(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}

	return nil
}
