package services

import (
	"context"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/cache"
	"wholesale-backend/internal/logger"
	"wholesale-backend/internal/metrics"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/timeutil"
)

// DeliveryService drives the delivery state machine. Every order of a batch
// moves in its own unit of work; one failure never rolls back the others.
type DeliveryService struct {
	Store store.Store
}

func NewDeliveryService(s store.Store) *DeliveryService {
	return &DeliveryService{Store: s}
}

// Start moves REQUESTED orders to DELIVERING
func (s *DeliveryService) Start(ctx context.Context, orderIDs []int, userID int) *models.DeliveryBatchResult {
	return s.transition(ctx, orderIDs, models.DeliveryStatusDelivering, userID)
}

// Cancel moves DELIVERING orders back to REQUESTED
func (s *DeliveryService) Cancel(ctx context.Context, orderIDs []int, userID int) *models.DeliveryBatchResult {
	return s.transition(ctx, orderIDs, models.DeliveryStatusRequested, userID)
}

// Complete finishes REQUESTED or DELIVERING orders and books the sale on the
// customer ledger
func (s *DeliveryService) Complete(ctx context.Context, orderIDs []int, userID int) *models.DeliveryBatchResult {
	return s.transition(ctx, orderIDs, models.DeliveryStatusCompleted, userID)
}

func (s *DeliveryService) transition(ctx context.Context, orderIDs []int, target models.DeliveryStatus, userID int) *models.DeliveryBatchResult {
	batch := &models.DeliveryBatchResult{Results: make([]models.DeliveryResult, 0, len(orderIDs))}

	for _, id := range orderIDs {
		result := models.DeliveryResult{OrderID: id}
		header, err := s.transitionOne(ctx, id, target, userID)
		if err != nil {
			appErr := apperr.From(err)
			result.Code = appErr.Code
			result.Message = appErr.Message
			if appErr.Code == apperr.CodeInternalError {
				logger.LogError("delivery", "transition", string(target), id, err)
			}
			batch.Failed++
			metrics.DeliveryTransitionsTotal.WithLabelValues(string(target), "failed").Inc()
		} else {
			result.Success = true
			result.Status = header.DeliveryStatus
			batch.Succeeded++
			metrics.DeliveryTransitionsTotal.WithLabelValues(string(target), "ok").Inc()
			if target == models.DeliveryStatusCompleted {
				cache.InvalidateBalance(ctx, header.CustomerID)
			}
		}
		batch.Results = append(batch.Results, result)
	}
	return batch
}

func (s *DeliveryService) transitionOne(ctx context.Context, orderID int, target models.DeliveryStatus, userID int) (*models.OrderHeader, error) {
	var header *models.OrderHeader
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		header, err = tx.Orders().LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if !header.DeliveryStatus.CanTransitionTo(target) {
			return apperr.InvalidTransition(string(header.DeliveryStatus), string(target))
		}

		header.DeliveryStatus = target
		if target == models.DeliveryStatusCompleted {
			now := timeutil.Now()
			header.CompletedAt = &now

			if header.TotalAmount > 0 {
				ref := header.ID
				if err := appendLedgerEntry(ctx, tx, &models.CustomerLedgerEntry{
					CustomerID:      header.CustomerID,
					EntryDate:       now,
					EntryType:       models.LedgerEntryTypeSale,
					Amount:          header.TotalAmount,
					ReferenceType:   models.LedgerRefOrder,
					ReferenceID:     &ref,
					Memo:            header.OrderNo,
					CreatedByUserID: userID,
				}); err != nil {
					return err
				}
			}
		}
		return tx.Orders().UpdateOrder(ctx, header)
	})
	if err != nil {
		return nil, err
	}
	return header, nil
}
