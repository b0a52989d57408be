package compensate

import (
	"context"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuickOut describes a quick-receive pallet to link to outbound stock
type QuickOut struct {
	Batch           *models.Batch
	Pallet          *models.Pallet
	Lot             *models.InventoryLot
	Weight          decimal.Decimal
	OutboundBatchID string
	StageDoor       string
}

// QuickOutResult reports what the finalize did
type QuickOutResult struct {
	Transaction *models.InventoryTransaction
	// Loading is set for truck-to-truck batches whose operator moves on to loading
	Loading bool
}

// QuickOutFinalize links a quick-receive pallet's lot to the outbound
// transaction of its outbound batch, creating the transaction when absent.
// It runs inside the caller's transaction.
func (m *Manager) QuickOutFinalize(ctx context.Context, tx repository.Store, q QuickOut) (*QuickOutResult, error) {
	res := &QuickOutResult{Loading: q.Batch.TruckToTruck}
	if q.OutboundBatchID == "" {
		return res, nil
	}

	out, err := tx.GetTransaction(ctx, q.Lot.TrackKey, models.DirectionOutbound)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		out = &models.InventoryTransaction{
			ID:        "TRX-" + uuid.New().String()[:8],
			TrackKey:  q.Lot.TrackKey,
			BatchID:   q.OutboundBatchID,
			Direction: models.DirectionOutbound,
		}
	}

	out.PalletCount++
	out.Quantity += q.Pallet.Quantity
	out.Weight = out.Weight.Add(q.Weight)
	if q.StageDoor != "" {
		out.StageDoor = q.StageDoor
	}

	// an unheld outbound row takes the lot's hold; a held row keeps its own code
	if out.HoldCode == "" {
		out.HoldCode = q.Lot.HoldCode
	}

	if err := tx.SaveTransaction(ctx, out); err != nil {
		return nil, err
	}
	res.Transaction = out

	m.logger.Info("Quick-out linked", "pallet", q.Pallet.ID, "track_key", q.Lot.TrackKey, "outbound_batch", q.OutboundBatchID, "stage", out.StageDoor)
	return res, nil
}
