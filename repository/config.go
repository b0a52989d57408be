package repository

import (
	"context"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// GetRequirementProfile loads a customer's receiving requirements
func (r *Repository) GetRequirementProfile(ctx context.Context, customerCode string) (*models.RequirementProfile, error) {
	var p models.RequirementProfile
	err := r.conn(ctx).Where("customer_code = ?", customerCode).First(&p).Error
	if err != nil {
		return nil, wrapDBError(err, "RequirementProfile", customerCode, "Failed to query requirement profile")
	}
	return &p, nil
}

// GetFacilityConfig loads a facility's receiving settings
func (r *Repository) GetFacilityConfig(ctx context.Context, facility string) (*models.FacilityConfig, error) {
	var f models.FacilityConfig
	err := r.conn(ctx).Where("facility = ?", facility).First(&f).Error
	if err != nil {
		return nil, wrapDBError(err, "FacilityConfig", facility, "Failed to query facility config")
	}
	return &f, nil
}

// GetOperator retrieves an operator by id
func (r *Repository) GetOperator(ctx context.Context, id string) (*models.Operator, error) {
	var o models.Operator
	err := r.conn(ctx).Where("operator_id = ?", id).First(&o).Error
	if err != nil {
		return nil, wrapDBError(err, "Operator", id, "Failed to query operator")
	}
	return &o, nil
}

// FindCrossDockOrders lists unshipped cross-dock lines for product + customer
func (r *Repository) FindCrossDockOrders(ctx context.Context, confirmation, productCode, customerCode string) ([]models.CrossDockOrder, error) {
	var orders []models.CrossDockOrder
	err := r.conn(ctx).
		Where("confirmation_number = ? AND product_code = ? AND customer_code = ? AND shipped = ?", confirmation, productCode, customerCode, false).
		Order("order_line_id").
		Find(&orders).Error
	if err != nil {
		return nil, wrapDBError(err, "CrossDockOrder", productCode, "Failed to query cross-dock orders")
	}
	return orders, nil
}

// ListCrossDockOrders lists every cross-dock line of a confirmation
func (r *Repository) ListCrossDockOrders(ctx context.Context, confirmation string) ([]models.CrossDockOrder, error) {
	var orders []models.CrossDockOrder
	err := r.conn(ctx).Where("confirmation_number = ?", confirmation).Order("order_line_id").Find(&orders).Error
	if err != nil {
		return nil, wrapDBError(err, "CrossDockOrder", confirmation, "Failed to query cross-dock orders")
	}
	return orders, nil
}

// SaveCrossDockOrder writes a cross-dock line
func (r *Repository) SaveCrossDockOrder(ctx context.Context, o *models.CrossDockOrder) error {
	return wrapDBError(r.conn(ctx).Save(o).Error, "CrossDockOrder", o.ID, "Failed to save cross-dock order")
}

// GetLocation retrieves a location by code
func (r *Repository) GetLocation(ctx context.Context, code string) (*models.Location, error) {
	var l models.Location
	err := r.conn(ctx).Where("location_code = ?", code).First(&l).Error
	if err != nil {
		return nil, wrapDBError(err, "Location", code, "Failed to query location")
	}
	return &l, nil
}

// WriteAudit stores an audit record
func (r *Repository) WriteAudit(ctx context.Context, a *models.AuditRecord) error {
	return wrapDBError(r.conn(ctx).Create(a).Error, "AuditRecord", a.ID, "Failed to write audit record")
}

// ListAudits lists the audit records of a batch
func (r *Repository) ListAudits(ctx context.Context, batchID string) ([]models.AuditRecord, error) {
	var audits []models.AuditRecord
	err := r.conn(ctx).Where("batch_id = ?", batchID).Order("created_at").Find(&audits).Error
	if err != nil {
		return nil, wrapDBError(err, "AuditRecord", batchID, "Failed to query audit records")
	}
	return audits, nil
}

// SaveException stores an inventory-control exception
func (r *Repository) SaveException(ctx context.Context, e *models.InventoryException) error {
	return wrapDBError(r.conn(ctx).Create(e).Error, "InventoryException", e.ID, "Failed to save exception")
}
