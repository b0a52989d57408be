package repository

import (
	"context"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetConfirmation retrieves a confirmation by number
func (r *Repository) GetConfirmation(ctx context.Context, number string) (*models.Confirmation, error) {
	var c models.Confirmation
	err := r.conn(ctx).Where("confirmation_number = ?", number).First(&c).Error
	if err != nil {
		return nil, wrapDBError(err, "Confirmation", number, "Failed to query confirmation")
	}
	return &c, nil
}

// SaveConfirmation inserts or updates a confirmation
func (r *Repository) SaveConfirmation(ctx context.Context, c *models.Confirmation) error {
	return wrapDBError(r.conn(ctx).Save(c).Error, "Confirmation", c.Number, "Failed to save confirmation")
}

// GetBatch retrieves a batch by id
func (r *Repository) GetBatch(ctx context.Context, id string) (*models.Batch, error) {
	var b models.Batch
	err := r.conn(ctx).Where("batch_id = ?", id).First(&b).Error
	if err != nil {
		return nil, wrapDBError(err, "Batch", id, "Failed to query batch")
	}
	return &b, nil
}

// ListBatchesByConfirmation lists every load sharing a confirmation number
func (r *Repository) ListBatchesByConfirmation(ctx context.Context, number string) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.conn(ctx).Where("confirmation_number = ?", number).Order("batch_id").Find(&batches).Error
	if err != nil {
		return nil, wrapDBError(err, "Batch", number, "Failed to query batches")
	}
	return batches, nil
}

// SetBatchShipped flips the shipped flag without touching status or version
func (r *Repository) SetBatchShipped(ctx context.Context, id string, shipped bool) error {
	result := r.conn(ctx).Model(&models.Batch{}).Where("batch_id = ?", id).Update("shipped", shipped)
	if result.Error != nil {
		return wrapDBError(result.Error, "Batch", id, "Failed to update batch shipped flag")
	}
	if result.RowsAffected == 0 {
		return NotFound("Batch", id)
	}
	return nil
}

// SetBatchScanStatus is a compare-and-swap on the batch version
func (r *Repository) SetBatchScanStatus(ctx context.Context, id string, version int, status models.ScanStatus, finishAt time.Time) (bool, error) {
	result := r.conn(ctx).Model(&models.Batch{}).
		Where("batch_id = ? AND version = ?", id, version).
		Updates(map[string]interface{}{
			"scan_status": status,
			"finish_at":   finishAt,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, wrapDBError(result.Error, "Batch", id, "Failed to update batch status")
	}
	return result.RowsAffected == 1, nil
}

// UpsertReceiver records an operator working a batch
func (r *Repository) UpsertReceiver(ctx context.Context, rcv *models.BatchReceiver) error {
	err := r.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "batch_id"}, {Name: "operator_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"terminal_id", "active", "updated_at"}),
	}).Create(rcv).Error
	return wrapDBError(err, "BatchReceiver", rcv.BatchID, "Failed to save receiver")
}

// ListReceivers lists the operators registered on a batch
func (r *Repository) ListReceivers(ctx context.Context, batchID string) ([]models.BatchReceiver, error) {
	var receivers []models.BatchReceiver
	err := r.conn(ctx).Where("batch_id = ?", batchID).Order("operator_id").Find(&receivers).Error
	if err != nil {
		return nil, wrapDBError(err, "BatchReceiver", batchID, "Failed to query receivers")
	}
	return receivers, nil
}

// GetProduct retrieves a product by code
func (r *Repository) GetProduct(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := r.conn(ctx).Where("product_code = ?", code).First(&p).Error
	if err != nil {
		return nil, wrapDBError(err, "Product", code, "Failed to query product")
	}
	return &p, nil
}

// ListPurchaseOrders lists the PO lines of a batch for one product
func (r *Repository) ListPurchaseOrders(ctx context.Context, batchID, productCode string) ([]models.PurchaseOrder, error) {
	var lines []models.PurchaseOrder
	err := r.conn(ctx).
		Where("batch_id = ? AND product_code = ?", batchID, productCode).
		Order("po_number").
		Find(&lines).Error
	if err != nil {
		return nil, wrapDBError(err, "PurchaseOrder", batchID, "Failed to query purchase orders")
	}
	return lines, nil
}
