package repository

import (
	"context"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// GetLot retrieves an inventory lot by track key
func (r *Repository) GetLot(ctx context.Context, trackKey string) (*models.InventoryLot, error) {
	var l models.InventoryLot
	err := r.conn(ctx).Where("track_key = ?", trackKey).First(&l).Error
	if err != nil {
		return nil, wrapDBError(err, "InventoryLot", trackKey, "Failed to query lot")
	}
	return &l, nil
}

// FindLot finds the lot of a batch holding product + lot + code date
func (r *Repository) FindLot(ctx context.Context, batchID, productCode, lot, codeDate string) (*models.InventoryLot, error) {
	var l models.InventoryLot
	err := r.conn(ctx).
		Where("batch_id = ? AND product_code = ? AND lot = ? AND code_date = ?", batchID, productCode, lot, codeDate).
		First(&l).Error
	if err != nil {
		return nil, wrapDBError(err, "InventoryLot", batchID+"/"+productCode+"/"+lot, "Failed to query lot")
	}
	return &l, nil
}

// SaveLot writes every lot column
func (r *Repository) SaveLot(ctx context.Context, l *models.InventoryLot) error {
	return wrapDBError(r.conn(ctx).Save(l).Error, "InventoryLot", l.TrackKey, "Failed to save lot")
}

// DeleteLot removes a lot and reports whether one existed
func (r *Repository) DeleteLot(ctx context.Context, trackKey string) (bool, error) {
	result := r.conn(ctx).Where("track_key = ?", trackKey).Delete(&models.InventoryLot{})
	if result.Error != nil {
		return false, wrapDBError(result.Error, "InventoryLot", trackKey, "Failed to delete lot")
	}
	return result.RowsAffected > 0, nil
}

// LatestCodeDate returns the newest code date received for product/owner/lot
func (r *Repository) LatestCodeDate(ctx context.Context, productCode, owner, lot string) (string, error) {
	q := r.conn(ctx).Model(&models.InventoryLot{}).
		Where("product_code = ? AND code_date <> '' AND quantity > 0", productCode)
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	if lot != "" {
		q = q.Where("lot = ?", lot)
	}

	var lots []models.InventoryLot
	if err := q.Order("code_date DESC").Limit(1).Find(&lots).Error; err != nil {
		return "", wrapDBError(err, "InventoryLot", productCode, "Failed to query latest code date")
	}
	if len(lots) == 0 {
		return "", nil
	}
	return lots[0].CodeDate, nil
}

// GetTransaction retrieves the transaction of a lot in one direction
func (r *Repository) GetTransaction(ctx context.Context, trackKey string, dir models.Direction) (*models.InventoryTransaction, error) {
	var t models.InventoryTransaction
	err := r.conn(ctx).Where("track_key = ? AND direction = ?", trackKey, dir).First(&t).Error
	if err != nil {
		return nil, wrapDBError(err, "InventoryTransaction", trackKey, "Failed to query transaction")
	}
	return &t, nil
}

// ListTransactions lists a batch's transactions in one direction
func (r *Repository) ListTransactions(ctx context.Context, batchID string, dir models.Direction) ([]models.InventoryTransaction, error) {
	var txs []models.InventoryTransaction
	err := r.conn(ctx).Where("batch_id = ? AND direction = ?", batchID, dir).Order("transaction_id").Find(&txs).Error
	if err != nil {
		return nil, wrapDBError(err, "InventoryTransaction", batchID, "Failed to query transactions")
	}
	return txs, nil
}

// SaveTransaction writes every transaction column
func (r *Repository) SaveTransaction(ctx context.Context, t *models.InventoryTransaction) error {
	return wrapDBError(r.conn(ctx).Save(t).Error, "InventoryTransaction", t.ID, "Failed to save transaction")
}

// DeleteTransaction removes a transaction row
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	err := r.conn(ctx).Where("transaction_id = ?", id).Delete(&models.InventoryTransaction{}).Error
	return wrapDBError(err, "InventoryTransaction", id, "Failed to delete transaction")
}

// SaveHold writes a hold row
func (r *Repository) SaveHold(ctx context.Context, h *models.Hold) error {
	return wrapDBError(r.conn(ctx).Save(h).Error, "Hold", h.ID, "Failed to save hold")
}

// ListHolds lists the holds of a pallet
func (r *Repository) ListHolds(ctx context.Context, palletID string) ([]models.Hold, error) {
	var holds []models.Hold
	err := r.conn(ctx).Where("pallet_id = ?", palletID).Order("created_at").Find(&holds).Error
	if err != nil {
		return nil, wrapDBError(err, "Hold", palletID, "Failed to query holds")
	}
	return holds, nil
}

// DeleteHolds removes every hold of a pallet
func (r *Repository) DeleteHolds(ctx context.Context, palletID string) error {
	err := r.conn(ctx).Where("pallet_id = ?", palletID).Delete(&models.Hold{}).Error
	return wrapDBError(err, "Hold", palletID, "Failed to delete holds")
}
