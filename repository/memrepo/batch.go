package memrepo

import (
	"context"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

func (s *Store) GetConfirmation(ctx context.Context, number string) (*models.Confirmation, error) {
	var (
		c  models.Confirmation
		ok bool
	)
	s.locked(func(t *tables) { c, ok = t.confirmations[number] })
	if !ok {
		return nil, repository.NotFound("Confirmation", number)
	}
	return &c, nil
}

func (s *Store) SaveConfirmation(ctx context.Context, c *models.Confirmation) error {
	s.locked(func(t *tables) {
		now := s.now()
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		t.confirmations[c.Number] = *c
	})
	return nil
}

func (s *Store) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var (
		b  models.Batch
		ok bool
	)
	s.locked(func(t *tables) { b, ok = t.batches[id] })
	if !ok {
		return nil, repository.NotFound("Batch", id)
	}
	return &b, nil
}

func (s *Store) ListBatchesByConfirmation(ctx context.Context, number string) ([]models.Batch, error) {
	var out []models.Batch
	s.locked(func(t *tables) {
		out = sortedValues(t.batches,
			func(b models.Batch) bool { return b.ConfirmationNumber == number },
			func(a, b models.Batch) bool { return a.ID < b.ID })
	})
	return out, nil
}

func (s *Store) SetBatchShipped(ctx context.Context, id string, shipped bool) error {
	var found bool
	s.locked(func(t *tables) {
		b, ok := t.batches[id]
		if !ok {
			return
		}
		found = true
		b.Shipped = shipped
		b.UpdatedAt = s.now()
		t.batches[id] = b
	})
	if !found {
		return repository.NotFound("Batch", id)
	}
	return nil
}

func (s *Store) SetBatchScanStatus(ctx context.Context, id string, version int, status models.ScanStatus, finishAt time.Time) (bool, error) {
	var (
		found, swapped bool
	)
	s.locked(func(t *tables) {
		b, ok := t.batches[id]
		if !ok {
			return
		}
		found = true
		if b.Version != version {
			return
		}
		b.ScanStatus = status
		b.FinishAt = &finishAt
		b.Version++
		b.UpdatedAt = s.now()
		t.batches[id] = b
		swapped = true
	})
	if !found {
		return false, repository.NotFound("Batch", id)
	}
	return swapped, nil
}

func receiverKey(batchID, operatorID string) string {
	return batchID + "/" + operatorID
}

func (s *Store) UpsertReceiver(ctx context.Context, r *models.BatchReceiver) error {
	s.locked(func(t *tables) {
		r.UpdatedAt = s.now()
		t.receivers[receiverKey(r.BatchID, r.OperatorID)] = *r
	})
	return nil
}

func (s *Store) ListReceivers(ctx context.Context, batchID string) ([]models.BatchReceiver, error) {
	var out []models.BatchReceiver
	s.locked(func(t *tables) {
		out = sortedValues(t.receivers,
			func(r models.BatchReceiver) bool { return r.BatchID == batchID },
			func(a, b models.BatchReceiver) bool { return a.OperatorID < b.OperatorID })
	})
	return out, nil
}

func (s *Store) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	var (
		p  models.Product
		ok bool
	)
	s.locked(func(t *tables) { p, ok = t.products[code] })
	if !ok {
		return nil, repository.NotFound("Product", code)
	}
	return &p, nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, batchID, productCode string) ([]models.PurchaseOrder, error) {
	var out []models.PurchaseOrder
	s.locked(func(t *tables) {
		out = sortedValues(t.purchaseOrders,
			func(po models.PurchaseOrder) bool { return po.BatchID == batchID && po.ProductCode == productCode },
			func(a, b models.PurchaseOrder) bool { return a.PONumber < b.PONumber })
	})
	return out, nil
}
