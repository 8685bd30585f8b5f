package services

import (
	"context"
	"fmt"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/metrics"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/store"
	"wholesale-backend/internal/timeutil"
)

type OrderService struct {
	Store   store.Store
	Pricing Pricing
}

func NewOrderService(s store.Store, pricing Pricing) *OrderService {
	return &OrderService{Store: s, Pricing: pricing}
}

// pricedLine is a validated input with its catalog item and amounts
type pricedLine struct {
	input       models.OrderLineInput
	warehouseID int
	amounts     models.Amounts
}

// priceLines validates every input against the catalog and the customer's
// limits and prices it. Limits apply to the summed quantity per item.
func (s *OrderService) priceLines(ctx context.Context, tx store.Tx, customerID, warehouseID int, inputs []models.OrderLineInput) ([]pricedLine, error) {
	if len(inputs) == 0 {
		return nil, apperr.Validation("an order needs at least one line")
	}

	perItem := map[int]int{}
	out := make([]pricedLine, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("lines[%d]", i)
		if in.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive").WithDetail("field", field)
		}
		if in.UnitPrice < 0 {
			return nil, apperr.Validation("unit price must not be negative").WithDetail("field", field)
		}

		item, err := tx.Catalog().GetItem(ctx, in.ItemID)
		if err != nil {
			return nil, err
		}
		if !item.Active {
			return nil, apperr.Validation(fmt.Sprintf("item %s is not active", item.Code)).WithDetail("field", field)
		}
		if item.MinOrderQuantity > 0 && in.Quantity < item.MinOrderQuantity {
			return nil, apperr.Validation(fmt.Sprintf("item %s requires at least %d units", item.Code, item.MinOrderQuantity)).WithDetail("field", field)
		}
		if item.MaxOrderQuantity > 0 && in.Quantity > item.MaxOrderQuantity {
			return nil, apperr.Validation(fmt.Sprintf("item %s allows at most %d units", item.Code, item.MaxOrderQuantity)).WithDetail("field", field)
		}

		release := warehouseID
		if in.ReleaseWarehouseID != 0 && in.ReleaseWarehouseID != warehouseID {
			w, err := tx.Catalog().GetWarehouse(ctx, in.ReleaseWarehouseID)
			if err != nil {
				return nil, err
			}
			if !w.Active {
				return nil, apperr.Validation(fmt.Sprintf("warehouse %s is not active", w.Code)).WithDetail("field", field)
			}
			release = w.ID
		}

		perItem[item.ID] += in.Quantity
		out = append(out, pricedLine{
			input:       in,
			warehouseID: release,
			amounts:     s.Pricing.LineAmounts(in.Quantity, in.UnitPrice, item.Taxable),
		})
	}

	for itemID, qty := range perItem {
		limit, err := tx.Catalog().FindOrderLimit(ctx, customerID, itemID)
		if err != nil {
			return nil, err
		}
		if limit != nil && qty > limit.MaxQuantity {
			return nil, apperr.Validation(fmt.Sprintf("customer limit for item %d is %d units per order", itemID, limit.MaxQuantity)).
				WithDetail("item_id", fmt.Sprint(itemID))
		}
	}
	return out, nil
}

func (s *OrderService) checkParties(ctx context.Context, tx store.Tx, customerID, warehouseID int) error {
	customer, err := tx.Catalog().GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if !customer.Active {
		return apperr.Validation(fmt.Sprintf("customer %s is not active", customer.Code))
	}
	warehouse, err := tx.Catalog().GetWarehouse(ctx, warehouseID)
	if err != nil {
		return err
	}
	if !warehouse.Active {
		return apperr.Validation(fmt.Sprintf("warehouse %s is not active", warehouse.Code))
	}
	return nil
}

// refreshHeader recomputes the header aggregates from the stored lines
func refreshHeader(ctx context.Context, tx store.Tx, header *models.OrderHeader) ([]models.OrderLine, error) {
	lines, err := tx.Orders().ListLines(ctx, header.ID)
	if err != nil {
		return nil, err
	}
	header.Amounts, header.TotalQuantity = HeaderTotals(lines)
	if err := tx.Orders().UpdateOrder(ctx, header); err != nil {
		return nil, err
	}
	return lines, nil
}

// CreateOrder validates, prices and books an order, consuming stock for every line
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, userID int) (*models.OrderDetail, error) {
	var detail *models.OrderDetail
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := s.checkParties(ctx, tx, req.CustomerID, req.WarehouseID); err != nil {
			return err
		}
		priced, err := s.priceLines(ctx, tx, req.CustomerID, req.WarehouseID, req.Lines)
		if err != nil {
			return err
		}

		now := timeutil.Now()
		keys := make([]stockKey, 0, len(priced))
		for _, p := range priced {
			keys = append(keys, stockKey{p.warehouseID, p.input.ItemID})
		}
		if err := lockStockKeys(ctx, tx, now, keys); err != nil {
			return err
		}

		orderNo, err := tx.Orders().NextOrderNo(ctx, now)
		if err != nil {
			return err
		}
		header := &models.OrderHeader{
			OrderNo:         orderNo,
			CustomerID:      req.CustomerID,
			WarehouseID:     req.WarehouseID,
			VehicleID:       req.VehicleID,
			DeliveryStatus:  models.DeliveryStatusRequested,
			PaymentStatus:   models.PaymentStatusUnpaid,
			Memo:            req.Memo,
			OrderedAt:       now,
			CreatedByUserID: userID,
		}
		if err := tx.Orders().CreateOrder(ctx, header); err != nil {
			return err
		}
		orderRef := header.ID

		for _, p := range priced {
			line := &models.OrderLine{
				OrderID:            header.ID,
				ItemID:             p.input.ItemID,
				ReleaseWarehouseID: p.warehouseID,
				UnitPrice:          p.input.UnitPrice,
				OrderQuantity:      p.input.Quantity,
				Amounts:            p.amounts,
			}
			if err := tx.Orders().InsertLine(ctx, line); err != nil {
				return err
			}
			if _, err := applyStockChange(ctx, tx, stockChange{
				WarehouseID:   line.ReleaseWarehouseID,
				ItemID:        line.ItemID,
				Delta:         -line.OrderQuantity,
				Type:          models.MovementTypeOut,
				UnitPrice:     line.UnitPrice,
				Date:          now,
				ReferenceType: models.StockRefOrder,
				ReferenceID:   &orderRef,
				Memo:          orderNo,
				UserID:        userID,
			}); err != nil {
				return err
			}
		}

		lines, err := refreshHeader(ctx, tx, header)
		if err != nil {
			return err
		}
		detail = &models.OrderDetail{OrderHeader: *header, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	return detail, nil
}

// UpdateOrderItems replaces the line set of a REQUESTED order. Inputs with a
// LineID update that line, inputs without one are added, and stored lines
// missing from the request are removed. Stock follows every quantity change.
func (s *OrderService) UpdateOrderItems(ctx context.Context, orderID int, req *models.UpdateOrderItemsRequest, userID int) (*models.OrderDetail, error) {
	var detail *models.OrderDetail
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		header, err := tx.Orders().LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if header.DeliveryStatus != models.DeliveryStatusRequested {
			return apperr.InvalidTransitionFor("update order items", string(header.DeliveryStatus))
		}

		priced, err := s.priceLines(ctx, tx, header.CustomerID, header.WarehouseID, req.Lines)
		if err != nil {
			return err
		}

		stored, err := tx.Orders().ListLines(ctx, orderID)
		if err != nil {
			return err
		}
		existing := make(map[int]models.OrderLine, len(stored))
		for _, l := range stored {
			existing[l.ID] = l
		}

		kept := map[int]bool{}
		for _, p := range priced {
			if p.input.LineID == 0 {
				continue
			}
			if _, ok := existing[p.input.LineID]; !ok {
				return apperr.NotFound("order line", p.input.LineID)
			}
			if kept[p.input.LineID] {
				return apperr.Validation(fmt.Sprintf("line %d appears more than once", p.input.LineID))
			}
			kept[p.input.LineID] = true
		}

		now := timeutil.Now()
		keys := make([]stockKey, 0, len(stored)+len(priced))
		for _, l := range stored {
			keys = append(keys, stockKey{l.ReleaseWarehouseID, l.ItemID})
		}
		for _, p := range priced {
			keys = append(keys, stockKey{p.warehouseID, p.input.ItemID})
		}
		if err := lockStockKeys(ctx, tx, now, keys); err != nil {
			return err
		}

		move := func(line models.OrderLine, delta int) error {
			if delta == 0 {
				return nil
			}
			mt := models.MovementTypeOut
			if delta > 0 {
				mt = models.MovementTypeIn
			}
			lineID := line.ID
			_, err := applyStockChange(ctx, tx, stockChange{
				WarehouseID:   line.ReleaseWarehouseID,
				ItemID:        line.ItemID,
				Delta:         delta,
				Type:          mt,
				UnitPrice:     line.UnitPrice,
				Date:          now,
				ReferenceType: models.StockRefOrderLine,
				ReferenceID:   &lineID,
				Memo:          header.OrderNo,
				UserID:        userID,
			})
			return err
		}

		// Releases run first so freed stock can serve the increases.
		for _, l := range stored {
			if kept[l.ID] {
				continue
			}
			if err := move(l, l.OrderQuantity); err != nil {
				return err
			}
			if err := tx.Orders().DeleteLine(ctx, l.ID); err != nil {
				return err
			}
		}

		for _, p := range priced {
			if p.input.LineID == 0 {
				continue
			}
			old := existing[p.input.LineID]
			updated := old
			updated.ItemID = p.input.ItemID
			updated.ReleaseWarehouseID = p.warehouseID
			updated.UnitPrice = p.input.UnitPrice
			updated.OrderQuantity = p.input.Quantity
			updated.Amounts = p.amounts

			if old.ItemID != updated.ItemID || old.ReleaseWarehouseID != updated.ReleaseWarehouseID {
				if err := move(old, old.OrderQuantity); err != nil {
					return err
				}
				if err := move(updated, -updated.OrderQuantity); err != nil {
					return err
				}
			} else if err := move(updated, old.OrderQuantity-updated.OrderQuantity); err != nil {
				return err
			}
			if err := tx.Orders().UpdateLine(ctx, &updated); err != nil {
				return err
			}
		}

		for _, p := range priced {
			if p.input.LineID != 0 {
				continue
			}
			line := &models.OrderLine{
				OrderID:            header.ID,
				ItemID:             p.input.ItemID,
				ReleaseWarehouseID: p.warehouseID,
				UnitPrice:          p.input.UnitPrice,
				OrderQuantity:      p.input.Quantity,
				Amounts:            p.amounts,
			}
			if err := tx.Orders().InsertLine(ctx, line); err != nil {
				return err
			}
			if err := move(*line, -line.OrderQuantity); err != nil {
				return err
			}
		}

		lines, err := refreshHeader(ctx, tx, header)
		if err != nil {
			return err
		}
		detail = &models.OrderDetail{OrderHeader: *header, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteOrder restores the stock of every line and removes a REQUESTED order
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int, userID int) error {
	return s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		header, err := tx.Orders().LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if header.DeliveryStatus != models.DeliveryStatusRequested {
			return apperr.InvalidTransitionFor("delete order", string(header.DeliveryStatus))
		}

		lines, err := tx.Orders().ListLines(ctx, orderID)
		if err != nil {
			return err
		}
		now := timeutil.Now()
		keys := make([]stockKey, 0, len(lines))
		for _, l := range lines {
			keys = append(keys, stockKey{l.ReleaseWarehouseID, l.ItemID})
		}
		if err := lockStockKeys(ctx, tx, now, keys); err != nil {
			return err
		}

		orderRef := header.ID
		for _, l := range lines {
			if _, err := applyStockChange(ctx, tx, stockChange{
				WarehouseID:   l.ReleaseWarehouseID,
				ItemID:        l.ItemID,
				Delta:         l.OrderQuantity,
				Type:          models.MovementTypeIn,
				UnitPrice:     l.UnitPrice,
				Date:          now,
				ReferenceType: models.StockRefOrder,
				ReferenceID:   &orderRef,
				Memo:          "delete " + header.OrderNo,
				UserID:        userID,
			}); err != nil {
				return err
			}
			if err := tx.Orders().DeleteLine(ctx, l.ID); err != nil {
				return err
			}
		}
		return tx.Orders().DeleteOrder(ctx, orderID)
	})
}

// DeleteOrderLine removes one line of a REQUESTED order and restores its stock.
// The last line cannot be removed; delete the order instead.
func (s *OrderService) DeleteOrderLine(ctx context.Context, lineID int, userID int) (*models.OrderDetail, error) {
	var detail *models.OrderDetail
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		probe, err := tx.Orders().GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		header, err := tx.Orders().LockOrder(ctx, probe.OrderID)
		if err != nil {
			return err
		}
		if header.DeliveryStatus != models.DeliveryStatusRequested {
			return apperr.InvalidTransitionFor("delete order line", string(header.DeliveryStatus))
		}
		line, err := tx.Orders().LockLine(ctx, lineID)
		if err != nil {
			return err
		}

		lines, err := tx.Orders().ListLines(ctx, header.ID)
		if err != nil {
			return err
		}
		if len(lines) <= 1 {
			return apperr.Validation("cannot delete the last line of an order; delete the order instead")
		}

		lineRef := line.ID
		if _, err := applyStockChange(ctx, tx, stockChange{
			WarehouseID:   line.ReleaseWarehouseID,
			ItemID:        line.ItemID,
			Delta:         line.OrderQuantity,
			Type:          models.MovementTypeIn,
			UnitPrice:     line.UnitPrice,
			ReferenceType: models.StockRefOrderLine,
			ReferenceID:   &lineRef,
			Memo:          header.OrderNo,
			UserID:        userID,
		}); err != nil {
			return err
		}
		if err := tx.Orders().DeleteLine(ctx, line.ID); err != nil {
			return err
		}

		remaining, err := refreshHeader(ctx, tx, header)
		if err != nil {
			return err
		}
		detail = &models.OrderDetail{OrderHeader: *header, Lines: remaining}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int) (*models.OrderDetail, error) {
	var detail *models.OrderDetail
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		header, err := tx.Orders().GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		lines, err := tx.Orders().ListLines(ctx, orderID)
		if err != nil {
			return err
		}
		detail = &models.OrderDetail{OrderHeader: *header, Lines: lines}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderHeader, error) {
	var orders []models.OrderHeader
	err := s.Store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		orders, err = tx.Orders().ListOrders(ctx, filter)
		return err
	})
	return orders, err
}
