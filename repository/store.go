package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// Routines the receiving workflow invokes by name
const (
	RoutineAutoReceiveInbound   = "auto_receive_inbound"
	RoutineAutoReceiveCrossDock = "auto_receive_cross_dock"
	RoutineStackHoldCreate      = "stack_hold_create"
	RoutineStackHoldRelease     = "stack_hold_release"
	RoutineSlottingFetch        = "slotting_fetch"
	RoutineValidateMask         = "validate_mask"
	RoutineDynamicAttributes    = "resolve_dynamic_attributes"
)

// KnownRoutines lists every routine name RunRoutine accepts
var KnownRoutines = map[string]bool{
	RoutineAutoReceiveInbound:   true,
	RoutineAutoReceiveCrossDock: true,
	RoutineStackHoldCreate:      true,
	RoutineStackHoldRelease:     true,
	RoutineSlottingFetch:        true,
	RoutineValidateMask:         true,
	RoutineDynamicAttributes:    true,
}

// RoutineIO is the structured input and output of a named routine
type RoutineIO map[string]any

// String reads a value as text, whatever scalar type the routine returned
func (io RoutineIO) String(key string) string {
	v, ok := io[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool reads a boolean flag, accepting "Y"/"true" text as routines often return
func (io RoutineIO) Bool(key string) bool {
	switch v := io[key].(type) {
	case bool:
		return v
	case string:
		return v == "Y" || v == "true"
	}
	return false
}

// PalletFilter narrows ListPallets; empty fields do not filter
type PalletFilter struct {
	BatchID     string
	TrackKey    string
	ProductCode string
	RecordType  models.RecordType
}

// Store is the persistence gateway used by the receiving workflow
type Store interface {
	// WithTx runs fn against a store whose writes commit or roll back together
	WithTx(ctx context.Context, fn func(tx Store) error) error

	GetConfirmation(ctx context.Context, number string) (*models.Confirmation, error)
	SaveConfirmation(ctx context.Context, c *models.Confirmation) error
	GetBatch(ctx context.Context, id string) (*models.Batch, error)
	ListBatchesByConfirmation(ctx context.Context, number string) ([]models.Batch, error)
	// SetBatchShipped updates only the shipped flag
	SetBatchShipped(ctx context.Context, id string, shipped bool) error
	// SetBatchScanStatus updates the status only when the stored version still matches
	SetBatchScanStatus(ctx context.Context, id string, version int, status models.ScanStatus, finishAt time.Time) (bool, error)
	UpsertReceiver(ctx context.Context, r *models.BatchReceiver) error
	ListReceivers(ctx context.Context, batchID string) ([]models.BatchReceiver, error)

	GetProduct(ctx context.Context, code string) (*models.Product, error)
	ListPurchaseOrders(ctx context.Context, batchID, productCode string) ([]models.PurchaseOrder, error)

	GetPallet(ctx context.Context, id string) (*models.Pallet, error)
	CreatePallet(ctx context.Context, p *models.Pallet) error
	SavePallet(ctx context.Context, p *models.Pallet) error
	DeletePallet(ctx context.Context, id string) (bool, error)
	ListPallets(ctx context.Context, filter PalletFilter) ([]models.Pallet, error)
	ClearPairedReferences(ctx context.Context, palletID string) error
	AddPalletDetail(ctx context.Context, d *models.PalletDetail) error
	ListPalletDetails(ctx context.Context, palletID string) ([]models.PalletDetail, error)
	DeletePalletDetails(ctx context.Context, palletID string) error

	GetLot(ctx context.Context, trackKey string) (*models.InventoryLot, error)
	FindLot(ctx context.Context, batchID, productCode, lot, codeDate string) (*models.InventoryLot, error)
	SaveLot(ctx context.Context, l *models.InventoryLot) error
	DeleteLot(ctx context.Context, trackKey string) (bool, error)
	// LatestCodeDate returns the newest received code date (YYYYMMDD) or "" when none
	LatestCodeDate(ctx context.Context, productCode, owner, lot string) (string, error)
	GetTransaction(ctx context.Context, trackKey string, dir models.Direction) (*models.InventoryTransaction, error)
	ListTransactions(ctx context.Context, batchID string, dir models.Direction) ([]models.InventoryTransaction, error)
	SaveTransaction(ctx context.Context, t *models.InventoryTransaction) error
	DeleteTransaction(ctx context.Context, id string) error

	SaveHold(ctx context.Context, h *models.Hold) error
	ListHolds(ctx context.Context, palletID string) ([]models.Hold, error)
	DeleteHolds(ctx context.Context, palletID string) error

	GetRequirementProfile(ctx context.Context, customerCode string) (*models.RequirementProfile, error)
	GetFacilityConfig(ctx context.Context, facility string) (*models.FacilityConfig, error)
	GetOperator(ctx context.Context, id string) (*models.Operator, error)

	FindCrossDockOrders(ctx context.Context, confirmation, productCode, customerCode string) ([]models.CrossDockOrder, error)
	ListCrossDockOrders(ctx context.Context, confirmation string) ([]models.CrossDockOrder, error)
	SaveCrossDockOrder(ctx context.Context, o *models.CrossDockOrder) error
	GetLocation(ctx context.Context, code string) (*models.Location, error)

	WriteAudit(ctx context.Context, a *models.AuditRecord) error
	ListAudits(ctx context.Context, batchID string) ([]models.AuditRecord, error)
	SaveException(ctx context.Context, e *models.InventoryException) error

	// RunRoutine invokes a bulk procedural routine by name
	RunRoutine(ctx context.Context, name string, input RoutineIO) (RoutineIO, error)
}
