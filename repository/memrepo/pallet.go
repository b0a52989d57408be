package memrepo

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

func (s *Store) GetPallet(ctx context.Context, id string) (*models.Pallet, error) {
	var (
		p  models.Pallet
		ok bool
	)
	s.locked(func(t *tables) { p, ok = t.pallets[id] })
	if !ok {
		return nil, repository.NotFound("Pallet", id)
	}
	return &p, nil
}

func (s *Store) CreatePallet(ctx context.Context, p *models.Pallet) error {
	var exists bool
	s.locked(func(t *tables) {
		if _, exists = t.pallets[p.ID]; exists {
			return
		}
		now := s.now()
		p.CreatedAt, p.UpdatedAt = now, now
		if p.RecordType == "" {
			p.RecordType = models.RecordTypeTemporary
		}
		if p.Attributes == "" {
			p.Attributes = "{}"
		}
		t.pallets[p.ID] = *p
	})
	if exists {
		return &repository.RepositoryError{
			Code:    repository.CodePalletExists,
			Message: "Pallet already exists",
			Detail:  fmt.Sprintf("Pallet %s already received", p.ID),
		}
	}
	return nil
}

func (s *Store) SavePallet(ctx context.Context, p *models.Pallet) error {
	s.locked(func(t *tables) {
		now := s.now()
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		if p.Attributes == "" {
			p.Attributes = "{}"
		}
		t.pallets[p.ID] = *p
	})
	return nil
}

func (s *Store) DeletePallet(ctx context.Context, id string) (bool, error) {
	var ok bool
	s.locked(func(t *tables) {
		if _, ok = t.pallets[id]; ok {
			delete(t.pallets, id)
		}
	})
	return ok, nil
}

func (s *Store) ListPallets(ctx context.Context, filter repository.PalletFilter) ([]models.Pallet, error) {
	var out []models.Pallet
	s.locked(func(t *tables) {
		out = sortedValues(t.pallets,
			func(p models.Pallet) bool {
				return (filter.BatchID == "" || p.BatchID == filter.BatchID) &&
					(filter.TrackKey == "" || p.TrackKey == filter.TrackKey) &&
					(filter.ProductCode == "" || p.ProductCode == filter.ProductCode) &&
					(filter.RecordType == "" || p.RecordType == filter.RecordType)
			},
			func(a, b models.Pallet) bool {
				if !a.CreatedAt.Equal(b.CreatedAt) {
					return a.CreatedAt.Before(b.CreatedAt)
				}
				return a.ID < b.ID
			})
	})
	return out, nil
}

func (s *Store) ClearPairedReferences(ctx context.Context, palletID string) error {
	s.locked(func(t *tables) {
		for id, p := range t.pallets {
			if p.PairedPalletID != nil && *p.PairedPalletID == palletID {
				p.PairedPalletID = nil
				t.pallets[id] = p
			}
		}
	})
	return nil
}

func (s *Store) AddPalletDetail(ctx context.Context, d *models.PalletDetail) error {
	s.locked(func(t *tables) {
		t.nextID++
		d.ID = t.nextID
		t.details[d.ID] = *d
	})
	return nil
}

func (s *Store) ListPalletDetails(ctx context.Context, palletID string) ([]models.PalletDetail, error) {
	var out []models.PalletDetail
	s.locked(func(t *tables) {
		out = sortedValues(t.details,
			func(d models.PalletDetail) bool { return d.PalletID == palletID },
			func(a, b models.PalletDetail) bool { return a.Seq < b.Seq })
	})
	return out, nil
}

func (s *Store) DeletePalletDetails(ctx context.Context, palletID string) error {
	s.locked(func(t *tables) {
		for id, d := range t.details {
			if d.PalletID == palletID {
				delete(t.details, id)
			}
		}
	})
	return nil
}
