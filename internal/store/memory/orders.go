package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type orderRepo struct{ st *state }

func (r orderRepo) NextOrderNo(ctx context.Context, day time.Time) (string, error) {
	prefix := timeutil.In(day).Format(timeutil.OrderDayLayout)
	r.st.orderSeq[prefix]++
	return fmt.Sprintf("%s-%04d", prefix, r.st.orderSeq[prefix]), nil
}

func (r orderRepo) CreateOrder(ctx context.Context, order *models.OrderHeader) error {
	now := timeutil.Now()
	order.ID = r.st.nextID("order_headers")
	order.CreatedAt, order.UpdatedAt = now, now
	r.st.orders[order.ID] = *order
	return nil
}

func (r orderRepo) UpdateOrder(ctx context.Context, order *models.OrderHeader) error {
	if _, ok := r.st.orders[order.ID]; !ok {
		return apperr.NotFound("order", order.ID)
	}
	order.UpdatedAt = timeutil.Now()
	r.st.orders[order.ID] = *order
	return nil
}

func (r orderRepo) GetOrder(ctx context.Context, id int) (*models.OrderHeader, error) {
	o, ok := r.st.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	return &o, nil
}

func (r orderRepo) LockOrder(ctx context.Context, id int) (*models.OrderHeader, error) {
	return r.GetOrder(ctx, id)
}

func (r orderRepo) DeleteOrder(ctx context.Context, id int) error {
	for _, l := range r.st.lines {
		if l.OrderID == id {
			return fmt.Errorf("failed to delete order %d: lines still present", id)
		}
	}
	delete(r.st.orders, id)
	return nil
}

func (r orderRepo) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderHeader, error) {
	out := []models.OrderHeader{}
	for _, o := range r.st.orders {
		if filter.CustomerID != 0 && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.WarehouseID != 0 && o.WarehouseID != filter.WarehouseID {
			continue
		}
		if filter.DeliveryStatus != "" && o.DeliveryStatus != filter.DeliveryStatus {
			continue
		}
		if filter.StartDate != nil && o.OrderedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && !o.OrderedAt.Before(*filter.EndDate) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderedAt.Equal(out[j].OrderedAt) {
			return out[i].OrderedAt.After(out[j].OrderedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r orderRepo) InsertLine(ctx context.Context, line *models.OrderLine) error {
	now := timeutil.Now()
	line.ID = r.st.nextID("order_lines")
	line.CreatedAt, line.UpdatedAt = now, now
	r.st.lines[line.ID] = *line
	return nil
}

func (r orderRepo) UpdateLine(ctx context.Context, line *models.OrderLine) error {
	if _, ok := r.st.lines[line.ID]; !ok {
		return apperr.NotFound("order line", line.ID)
	}
	line.UpdatedAt = timeutil.Now()
	r.st.lines[line.ID] = *line
	return nil
}

func (r orderRepo) DeleteLine(ctx context.Context, id int) error {
	delete(r.st.lines, id)
	return nil
}

func (r orderRepo) GetLine(ctx context.Context, id int) (*models.OrderLine, error) {
	l, ok := r.st.lines[id]
	if !ok {
		return nil, apperr.NotFound("order line", id)
	}
	return &l, nil
}

func (r orderRepo) LockLine(ctx context.Context, id int) (*models.OrderLine, error) {
	return r.GetLine(ctx, id)
}

func (r orderRepo) ListLines(ctx context.Context, orderID int) ([]models.OrderLine, error) {
	out := []models.OrderLine{}
	for _, l := range r.st.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
