package compensate

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/shopspring/decimal"
)

// CancelPallet removes a pallet and every row that exists only because of it.
// It reports whether a pallet was found; cancelling a missing pallet is a no-op.
func (m *Manager) CancelPallet(ctx context.Context, palletID string) (bool, error) {
	removed := false
	err := m.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		removed, err = m.cancelPallet(ctx, tx, palletID)
		return err
	})
	if err != nil {
		return false, err
	}
	if removed {
		m.logger.Info("Pallet cancelled", "pallet", palletID)
	}
	return removed, nil
}

func (m *Manager) cancelPallet(ctx context.Context, tx repository.Store, palletID string) (bool, error) {
	pallet, err := tx.GetPallet(ctx, palletID)
	if err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	// weights come from the detail rows, so read them before they go
	var weight decimal.Decimal
	if pallet.IsCommitted() {
		product, err := tx.GetProduct(ctx, pallet.ProductCode)
		if err != nil && !repository.IsNotFound(err) {
			return false, err
		}
		if weight, err = PalletWeight(ctx, tx, pallet, product); err != nil {
			return false, err
		}
	}

	if err := tx.ClearPairedReferences(ctx, palletID); err != nil {
		return false, err
	}
	if err := tx.DeletePalletDetails(ctx, palletID); err != nil {
		return false, err
	}
	if err := m.releaseHolds(ctx, tx, palletID); err != nil {
		return false, err
	}
	if _, err := tx.DeletePallet(ctx, palletID); err != nil {
		return false, err
	}

	if pallet.TrackKey == "" {
		return true, nil
	}

	remaining, err := tx.ListPallets(ctx, repository.PalletFilter{TrackKey: pallet.TrackKey})
	if err != nil {
		return false, err
	}
	if len(remaining) > 0 {
		if pallet.IsCommitted() {
			return true, m.subtractFromLot(ctx, tx, pallet, weight)
		}
		return true, nil
	}

	lotDeleted, err := tx.DeleteLot(ctx, pallet.TrackKey)
	if err != nil {
		return false, err
	}
	if !lotDeleted {
		return true, nil
	}
	inbound, err := tx.GetTransaction(ctx, pallet.TrackKey, models.DirectionInbound)
	if err != nil {
		if repository.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	return true, tx.DeleteTransaction(ctx, inbound.ID)
}

func (m *Manager) releaseHolds(ctx context.Context, tx repository.Store, palletID string) error {
	holds, err := tx.ListHolds(ctx, palletID)
	if err != nil {
		return err
	}
	for _, h := range holds {
		if !h.External {
			continue
		}
		_, err := tx.RunRoutine(ctx, repository.RoutineStackHoldRelease, repository.RoutineIO{
			"pallet_id": palletID,
			"track_key": h.TrackKey,
			"hold_code": h.Code,
		})
		if err != nil {
			return fmt.Errorf("failed to release stack hold %s: %w", h.Code, err)
		}
	}
	return tx.DeleteHolds(ctx, palletID)
}

// subtractFromLot takes a committed pallet back out of a lot other pallets still share
func (m *Manager) subtractFromLot(ctx context.Context, tx repository.Store, pallet *models.Pallet, weight decimal.Decimal) error {
	lot, err := tx.GetLot(ctx, pallet.TrackKey)
	if err == nil {
		lot.Quantity -= pallet.Quantity
		lot.Weight = lot.Weight.Sub(weight)
		if err := tx.SaveLot(ctx, lot); err != nil {
			return err
		}
	} else if !repository.IsNotFound(err) {
		return err
	}

	inbound, err := tx.GetTransaction(ctx, pallet.TrackKey, models.DirectionInbound)
	if err == nil {
		inbound.PalletCount--
		inbound.Quantity -= pallet.Quantity
		inbound.Weight = inbound.Weight.Sub(weight)
		return tx.SaveTransaction(ctx, inbound)
	}
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}
