package memrepo

import (
	"context"
	"slices"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

func (s *Store) GetRequirementProfile(ctx context.Context, customerCode string) (*models.RequirementProfile, error) {
	var (
		p  models.RequirementProfile
		ok bool
	)
	s.locked(func(t *tables) { p, ok = t.profiles[customerCode] })
	if !ok {
		return nil, repository.NotFound("RequirementProfile", customerCode)
	}
	return &p, nil
}

// SaveRequirementProfile replaces a customer's profile
func (s *Store) SaveRequirementProfile(p models.RequirementProfile) {
	s.locked(func(t *tables) { t.profiles[p.CustomerCode] = p })
}

func (s *Store) GetFacilityConfig(ctx context.Context, facility string) (*models.FacilityConfig, error) {
	var (
		f  models.FacilityConfig
		ok bool
	)
	s.locked(func(t *tables) { f, ok = t.facilities[facility] })
	if !ok {
		return nil, repository.NotFound("FacilityConfig", facility)
	}
	return &f, nil
}

// SaveFacilityConfig replaces a facility's settings
func (s *Store) SaveFacilityConfig(f models.FacilityConfig) {
	s.locked(func(t *tables) { t.facilities[f.Facility] = f })
}

func (s *Store) GetOperator(ctx context.Context, id string) (*models.Operator, error) {
	var (
		o  models.Operator
		ok bool
	)
	s.locked(func(t *tables) { o, ok = t.operators[id] })
	if !ok {
		return nil, repository.NotFound("Operator", id)
	}
	return &o, nil
}

func (s *Store) FindCrossDockOrders(ctx context.Context, confirmation, productCode, customerCode string) ([]models.CrossDockOrder, error) {
	var out []models.CrossDockOrder
	s.locked(func(t *tables) {
		out = sortedValues(t.crossDock,
			func(o models.CrossDockOrder) bool {
				return o.ConfirmationNumber == confirmation && o.ProductCode == productCode &&
					o.CustomerCode == customerCode && !o.Shipped
			},
			func(a, b models.CrossDockOrder) bool { return a.ID < b.ID })
	})
	return out, nil
}

func (s *Store) ListCrossDockOrders(ctx context.Context, confirmation string) ([]models.CrossDockOrder, error) {
	var out []models.CrossDockOrder
	s.locked(func(t *tables) {
		out = sortedValues(t.crossDock,
			func(o models.CrossDockOrder) bool { return o.ConfirmationNumber == confirmation },
			func(a, b models.CrossDockOrder) bool { return a.ID < b.ID })
	})
	return out, nil
}

func (s *Store) SaveCrossDockOrder(ctx context.Context, o *models.CrossDockOrder) error {
	s.locked(func(t *tables) { t.crossDock[o.ID] = *o })
	return nil
}

func (s *Store) GetLocation(ctx context.Context, code string) (*models.Location, error) {
	var (
		l  models.Location
		ok bool
	)
	s.locked(func(t *tables) { l, ok = t.locations[code] })
	if !ok {
		return nil, repository.NotFound("Location", code)
	}
	return &l, nil
}

func (s *Store) WriteAudit(ctx context.Context, a *models.AuditRecord) error {
	s.locked(func(t *tables) {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = s.now()
		}
		t.audits = append(t.audits, *a)
	})
	return nil
}

func (s *Store) ListAudits(ctx context.Context, batchID string) ([]models.AuditRecord, error) {
	var out []models.AuditRecord
	s.locked(func(t *tables) {
		for _, a := range t.audits {
			if a.BatchID == batchID {
				out = append(out, a)
			}
		}
	})
	return out, nil
}

func (s *Store) SaveException(ctx context.Context, e *models.InventoryException) error {
	s.locked(func(t *tables) {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = s.now()
		}
		t.exceptions = append(t.exceptions, *e)
	})
	return nil
}

// Exceptions lists every recorded inventory exception
func (s *Store) Exceptions() []models.InventoryException {
	var out []models.InventoryException
	s.locked(func(t *tables) { out = slices.Clone(t.exceptions) })
	return out
}
