package services

import (
	"context"
	"fmt"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/cache"
	"wholesale-backend/internal/metrics"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/timeutil"
)

// ReturnService processes partial returns against completed order lines.
// A return reserves its quantity on the line at creation; rejection and
// deletion release the reservation, approval keeps it.
type ReturnService struct {
	Store   store.Store
	Pricing Pricing
}

func NewReturnService(s store.Store, pricing Pricing) *ReturnService {
	return &ReturnService{Store: s, Pricing: pricing}
}

func (s *ReturnService) CreateReturn(ctx context.Context, req *models.CreateReturnRequest, userID int) (*models.ReturnRecord, error) {
	if req.Quantity <= 0 {
		return nil, apperr.Validation("return quantity must be positive")
	}

	var rec *models.ReturnRecord
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		line, err := tx.Orders().LockLine(ctx, req.OrderLineID)
		if err != nil {
			return err
		}
		header, err := tx.Orders().GetOrder(ctx, line.OrderID)
		if err != nil {
			return err
		}
		if header.DeliveryStatus != models.DeliveryStatusCompleted {
			return apperr.OverReturn(fmt.Sprintf("order %s is %s; only completed orders accept returns", header.OrderNo, header.DeliveryStatus))
		}
		if available := line.AvailableReturnQuantity(); req.Quantity > available {
			return apperr.OverReturn(fmt.Sprintf("only %d units can still be returned", available)).
				WithDetails(map[string]string{
					"available": fmt.Sprint(available),
					"requested": fmt.Sprint(req.Quantity),
				})
		}

		item, err := tx.Catalog().GetItem(ctx, line.ItemID)
		if err != nil {
			return err
		}

		line.ReturnedQuantity += req.Quantity
		if err := tx.Orders().UpdateLine(ctx, line); err != nil {
			return err
		}

		rec = &models.ReturnRecord{
			OrderID:           header.ID,
			OrderLineID:       line.ID,
			CustomerID:        header.CustomerID,
			ItemID:            line.ItemID,
			WarehouseID:       line.ReleaseWarehouseID,
			Quantity:          req.Quantity,
			UnitPrice:         line.UnitPrice,
			Status:            models.ReturnStatusUnapproved,
			Amounts:           s.Pricing.ReturnAmounts(line, req.Quantity, item.Taxable),
			Reason:            req.Reason,
			RequestedByUserID: userID,
		}
		return tx.Returns().Create(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	metrics.ReturnsTotal.WithLabelValues(string(models.ReturnStatusUnapproved)).Inc()
	return rec, nil
}

// ApproveReturn restocks the returned units and credits the customer
func (s *ReturnService) ApproveReturn(ctx context.Context, returnID int, userID int) (*models.ReturnRecord, error) {
	var rec *models.ReturnRecord
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rec, err = tx.Returns().Lock(ctx, returnID)
		if err != nil {
			return err
		}
		if rec.Status != models.ReturnStatusUnapproved {
			return apperr.InvalidTransition(string(rec.Status), string(models.ReturnStatusApproved))
		}

		now := timeutil.Now()
		ref := rec.ID
		if _, err := applyStockChange(ctx, tx, stockChange{
			WarehouseID:   rec.WarehouseID,
			ItemID:        rec.ItemID,
			Delta:         rec.Quantity,
			Type:          models.MovementTypeIn,
			UnitPrice:     rec.UnitPrice,
			Date:          now,
			ReferenceType: models.StockRefReturn,
			ReferenceID:   &ref,
			Memo:          rec.Reason,
			UserID:        userID,
		}); err != nil {
			return err
		}

		if rec.TotalAmount > 0 {
			if err := appendLedgerEntry(ctx, tx, &models.CustomerLedgerEntry{
				CustomerID:      rec.CustomerID,
				EntryDate:       now,
				EntryType:       models.LedgerEntryTypeReturnDeposit,
				Amount:          rec.TotalAmount,
				ReferenceType:   models.LedgerRefReturn,
				ReferenceID:     &ref,
				Memo:            rec.Reason,
				CreatedByUserID: userID,
			}); err != nil {
				return err
			}
		}

		s.markProcessed(rec, models.ReturnStatusApproved, userID)
		return tx.Returns().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateBalance(ctx, rec.CustomerID)
	metrics.ReturnsTotal.WithLabelValues(string(models.ReturnStatusApproved)).Inc()
	return rec, nil
}

// RejectReturn voids the request and frees the reserved quantity; the record stays
func (s *ReturnService) RejectReturn(ctx context.Context, returnID int, userID int) (*models.ReturnRecord, error) {
	var rec *models.ReturnRecord
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rec, err = tx.Returns().Lock(ctx, returnID)
		if err != nil {
			return err
		}
		if rec.Status != models.ReturnStatusUnapproved {
			return apperr.InvalidTransition(string(rec.Status), string(models.ReturnStatusRejected))
		}
		if err := releaseReservation(ctx, tx, rec); err != nil {
			return err
		}
		s.markProcessed(rec, models.ReturnStatusRejected, userID)
		return tx.Returns().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	metrics.ReturnsTotal.WithLabelValues(string(models.ReturnStatusRejected)).Inc()
	return rec, nil
}

// DeleteReturn removes an UNAPPROVED request and frees the reserved quantity
func (s *ReturnService) DeleteReturn(ctx context.Context, returnID int) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		rec, err := tx.Returns().Lock(ctx, returnID)
		if err != nil {
			return err
		}
		if rec.Status != models.ReturnStatusUnapproved {
			return apperr.InvalidState(fmt.Sprintf("return %d is %s; only unapproved returns can be deleted", rec.ID, rec.Status))
		}
		if err := releaseReservation(ctx, tx, rec); err != nil {
			return err
		}
		return tx.Returns().Delete(ctx, rec.ID)
	})
}

func releaseReservation(ctx context.Context, tx store.Tx, rec *models.ReturnRecord) error {
	line, err := tx.Orders().LockLine(ctx, rec.OrderLineID)
	if err != nil {
		return err
	}
	if line.ReturnedQuantity < rec.Quantity {
		return fmt.Errorf("order line %d reserves %d units but return %d holds %d", line.ID, line.ReturnedQuantity, rec.ID, rec.Quantity)
	}
	line.ReturnedQuantity -= rec.Quantity
	return tx.Orders().UpdateLine(ctx, line)
}

func (s *ReturnService) markProcessed(rec *models.ReturnRecord, status models.ReturnStatus, userID int) {
	now := timeutil.Now()
	rec.Status = status
	rec.ProcessedByUserID = &userID
	rec.ProcessedAt = &now
}

func (s *ReturnService) GetReturn(ctx context.Context, returnID int) (*models.ReturnRecord, error) {
	var rec *models.ReturnRecord
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		rec, err = tx.Returns().Get(ctx, returnID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *ReturnService) ListReturns(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnRecord, error) {
	var recs []models.ReturnRecord
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		recs, err = tx.Returns().List(ctx, filter)
		return err
	})
	return recs, err
}
