package repository

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// GetPallet retrieves a pallet by id
func (r *Repository) GetPallet(ctx context.Context, id string) (*models.Pallet, error) {
	var p models.Pallet
	err := r.conn(ctx).Where("pallet_id = ?", id).First(&p).Error
	if err != nil {
		return nil, wrapDBError(err, "Pallet", id, "Failed to query pallet")
	}
	return &p, nil
}

// CreatePallet inserts a new pallet, PALLET_EXISTS when the id is taken
func (r *Repository) CreatePallet(ctx context.Context, p *models.Pallet) error {
	err := r.conn(ctx).Create(p).Error
	if err != nil {
		if _, dup := uniqueViolation(err); dup {
			return &RepositoryError{
				Code:    CodePalletExists,
				Message: "Pallet already exists",
				Detail:  fmt.Sprintf("Pallet %s already received", p.ID),
			}
		}
		return wrapDBError(err, "Pallet", p.ID, "Failed to create pallet")
	}
	return nil
}

// SavePallet writes every pallet column
func (r *Repository) SavePallet(ctx context.Context, p *models.Pallet) error {
	return wrapDBError(r.conn(ctx).Save(p).Error, "Pallet", p.ID, "Failed to save pallet")
}

// DeletePallet removes a pallet row and reports whether one existed
func (r *Repository) DeletePallet(ctx context.Context, id string) (bool, error) {
	result := r.conn(ctx).Where("pallet_id = ?", id).Delete(&models.Pallet{})
	if result.Error != nil {
		return false, wrapDBError(result.Error, "Pallet", id, "Failed to delete pallet")
	}
	return result.RowsAffected > 0, nil
}

// ListPallets lists pallets matching the filter
func (r *Repository) ListPallets(ctx context.Context, filter PalletFilter) ([]models.Pallet, error) {
	q := r.conn(ctx).Model(&models.Pallet{})
	if filter.BatchID != "" {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	if filter.TrackKey != "" {
		q = q.Where("track_key = ?", filter.TrackKey)
	}
	if filter.ProductCode != "" {
		q = q.Where("product_code = ?", filter.ProductCode)
	}
	if filter.RecordType != "" {
		q = q.Where("record_type = ?", filter.RecordType)
	}

	var pallets []models.Pallet
	if err := q.Order("created_at, pallet_id").Find(&pallets).Error; err != nil {
		return nil, wrapDBError(err, "Pallet", filter.BatchID, "Failed to query pallets")
	}
	return pallets, nil
}

// ClearPairedReferences unlinks every pallet paired with palletID
func (r *Repository) ClearPairedReferences(ctx context.Context, palletID string) error {
	err := r.conn(ctx).Model(&models.Pallet{}).
		Where("paired_pallet_id = ?", palletID).
		Update("paired_pallet_id", nil).Error
	return wrapDBError(err, "Pallet", palletID, "Failed to clear paired pallets")
}

// AddPalletDetail stores one catch-weight reading
func (r *Repository) AddPalletDetail(ctx context.Context, d *models.PalletDetail) error {
	return wrapDBError(r.conn(ctx).Create(d).Error, "PalletDetail", d.PalletID, "Failed to create pallet detail")
}

// ListPalletDetails lists the catch-weight readings of a pallet
func (r *Repository) ListPalletDetails(ctx context.Context, palletID string) ([]models.PalletDetail, error) {
	var details []models.PalletDetail
	err := r.conn(ctx).Where("pallet_id = ?", palletID).Order("seq").Find(&details).Error
	if err != nil {
		return nil, wrapDBError(err, "PalletDetail", palletID, "Failed to query pallet details")
	}
	return details, nil
}

// DeletePalletDetails removes the catch-weight readings of a pallet
func (r *Repository) DeletePalletDetails(ctx context.Context, palletID string) error {
	err := r.conn(ctx).Where("pallet_id = ?", palletID).Delete(&models.PalletDetail{}).Error
	return wrapDBError(err, "PalletDetail", palletID, "Failed to delete pallet details")
}
