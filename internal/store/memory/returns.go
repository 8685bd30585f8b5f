package memory

import (
	"context"
	"sort"

	"wholesale-backend/internal/apperr"
	"wholesale-backend/internal/models"
	"wholesale-backend/internal/timeutil"
)

type returnRepo struct{ st *state }

func (r returnRepo) Create(ctx context.Context, rec *models.ReturnRecord) error {
	now := timeutil.Now()
	rec.ID = r.st.nextID("return_records")
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.st.returns[rec.ID] = *rec
	return nil
}

func (r returnRepo) Get(ctx context.Context, id int) (*models.ReturnRecord, error) {
	rec, ok := r.st.returns[id]
	if !ok {
		return nil, apperr.NotFound("return", id)
	}
	return &rec, nil
}

func (r returnRepo) Lock(ctx context.Context, id int) (*models.ReturnRecord, error) {
	return r.Get(ctx, id)
}

func (r returnRepo) Update(ctx context.Context, rec *models.ReturnRecord) error {
	if _, ok := r.st.returns[rec.ID]; !ok {
		return apperr.NotFound("return", rec.ID)
	}
	rec.UpdatedAt = timeutil.Now()
	r.st.returns[rec.ID] = *rec
	return nil
}

func (r returnRepo) Delete(ctx context.Context, id int) error {
	delete(r.st.returns, id)
	return nil
}

func (r returnRepo) List(ctx context.Context, filter models.ReturnFilter) ([]models.ReturnRecord, error) {
	out := []models.ReturnRecord{}
	for _, rec := range r.st.returns {
		if filter.CustomerID != 0 && rec.CustomerID != filter.CustomerID {
			continue
		}
		if filter.OrderID != 0 && rec.OrderID != filter.OrderID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter.Limit, filter.Offset), nil
}
