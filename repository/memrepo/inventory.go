package memrepo

import (
	"context"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

func (s *Store) GetLot(ctx context.Context, trackKey string) (*models.InventoryLot, error) {
	var (
		l  models.InventoryLot
		ok bool
	)
	s.locked(func(t *tables) { l, ok = t.lots[trackKey] })
	if !ok {
		return nil, repository.NotFound("InventoryLot", trackKey)
	}
	return &l, nil
}

func (s *Store) FindLot(ctx context.Context, batchID, productCode, lot, codeDate string) (*models.InventoryLot, error) {
	var (
		found models.InventoryLot
		ok    bool
	)
	s.locked(func(t *tables) {
		for _, l := range t.lots {
			if l.BatchID == batchID && l.ProductCode == productCode && l.Lot == lot && l.CodeDate == codeDate {
				found, ok = l, true
				return
			}
		}
	})
	if !ok {
		return nil, repository.NotFound("InventoryLot", batchID+"/"+productCode+"/"+lot)
	}
	return &found, nil
}

func (s *Store) SaveLot(ctx context.Context, l *models.InventoryLot) error {
	s.locked(func(t *tables) { t.lots[l.TrackKey] = *l })
	return nil
}

func (s *Store) DeleteLot(ctx context.Context, trackKey string) (bool, error) {
	var ok bool
	s.locked(func(t *tables) {
		if _, ok = t.lots[trackKey]; ok {
			delete(t.lots, trackKey)
		}
	})
	return ok, nil
}

func (s *Store) LatestCodeDate(ctx context.Context, productCode, owner, lot string) (string, error) {
	var latest string
	s.locked(func(t *tables) {
		for _, l := range t.lots {
			if l.ProductCode != productCode || l.CodeDate == "" || l.Quantity <= 0 {
				continue
			}
			if owner != "" && l.Owner != owner {
				continue
			}
			if lot != "" && l.Lot != lot {
				continue
			}
			if l.CodeDate > latest {
				latest = l.CodeDate
			}
		}
	})
	return latest, nil
}

func (s *Store) GetTransaction(ctx context.Context, trackKey string, dir models.Direction) (*models.InventoryTransaction, error) {
	var (
		found models.InventoryTransaction
		ok    bool
	)
	s.locked(func(t *tables) {
		for _, tx := range t.transactions {
			if tx.TrackKey == trackKey && tx.Direction == dir {
				found, ok = tx, true
				return
			}
		}
	})
	if !ok {
		return nil, repository.NotFound("InventoryTransaction", trackKey)
	}
	return &found, nil
}

func (s *Store) ListTransactions(ctx context.Context, batchID string, dir models.Direction) ([]models.InventoryTransaction, error) {
	var out []models.InventoryTransaction
	s.locked(func(t *tables) {
		out = sortedValues(t.transactions,
			func(tx models.InventoryTransaction) bool { return tx.BatchID == batchID && tx.Direction == dir },
			func(a, b models.InventoryTransaction) bool { return a.ID < b.ID })
	})
	return out, nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx *models.InventoryTransaction) error {
	s.locked(func(t *tables) {
		tx.UpdatedAt = s.now()
		t.transactions[tx.ID] = *tx
	})
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.locked(func(t *tables) { delete(t.transactions, id) })
	return nil
}

func (s *Store) SaveHold(ctx context.Context, h *models.Hold) error {
	s.locked(func(t *tables) {
		if h.CreatedAt.IsZero() {
			h.CreatedAt = s.now()
		}
		t.holds[h.ID] = *h
	})
	return nil
}

func (s *Store) ListHolds(ctx context.Context, palletID string) ([]models.Hold, error) {
	var out []models.Hold
	s.locked(func(t *tables) {
		out = sortedValues(t.holds,
			func(h models.Hold) bool { return h.PalletID == palletID },
			func(a, b models.Hold) bool { return a.ID < b.ID })
	})
	return out, nil
}

func (s *Store) DeleteHolds(ctx context.Context, palletID string) error {
	s.locked(func(t *tables) {
		for id, h := range t.holds {
			if h.PalletID == palletID {
				delete(t.holds, id)
			}
		}
	})
	return nil
}
