package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecordType separates pallets still being collected from committed ones
type RecordType string

const (
	RecordTypeTemporary RecordType = "T"
	RecordTypeCommitted RecordType = "C"
)

// Pallet is the physical unit being received
type Pallet struct {
	ID             string           `gorm:"column:pallet_id;primaryKey;type:varchar(30)"`
	BatchID        string           `gorm:"column:batch_id;type:varchar(30);index;not null"`
	ProductCode    string           `gorm:"column:product_code;type:varchar(20);index"`
	PONumber       string           `gorm:"column:po_number;type:varchar(20)"`
	Quantity       int              `gorm:"column:quantity;not null;default:0"`
	HoldCode       string           `gorm:"column:hold_code;type:varchar(10)"`
	Blast          bool             `gorm:"column:blast;default:false"`
	HPP            bool             `gorm:"column:hpp;default:false"`
	TrackKey       string           `gorm:"column:track_key;type:varchar(30);index"`
	RecordType     RecordType       `gorm:"column:record_type;type:varchar(1);default:'T'"`
	PalletType     string           `gorm:"column:pallet_type;type:varchar(10)"`
	PairedPalletID *string          `gorm:"column:paired_pallet_id;type:varchar(30);index"`
	MachineID      string           `gorm:"column:machine_id;type:varchar(20)"`
	Location       string           `gorm:"column:location;type:varchar(20)"`
	Lot            string           `gorm:"column:lot;type:varchar(30)"`
	CustomerLot    string           `gorm:"column:customer_lot;type:varchar(30)"`
	Establishment  string           `gorm:"column:establishment;type:varchar(15)"`
	SlaughterDate  string           `gorm:"column:slaughter_date;type:varchar(8)"`
	Reference      string           `gorm:"column:reference;type:varchar(30)"`
	Temperature    *decimal.Decimal `gorm:"column:temperature;type:decimal(8,2)"`
	CodeDate       string           `gorm:"column:code_date;type:varchar(8)"`
	Consignee      string           `gorm:"column:consignee;type:varchar(20)"`
	Attributes     string           `gorm:"column:attributes;type:jsonb;default:'{}'"`
	ReceivedBy     string           `gorm:"column:received_by;type:varchar(50)"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsCommitted reports whether the pallet left the temporary intake state
func (p *Pallet) IsCommitted() bool {
	return p.RecordType == RecordTypeCommitted
}

// BeforeSave keeps the jsonb column valid for pallets without dynamic attributes
func (p *Pallet) BeforeSave(tx *gorm.DB) error {
	if p.Attributes == "" {
		p.Attributes = "{}"
	}
	return nil
}

// PalletDetail holds one catch-weight reading of a pallet
type PalletDetail struct {
	ID       uint            `gorm:"column:detail_id;primaryKey;autoIncrement"`
	PalletID string          `gorm:"column:pallet_id;type:varchar(30);index;not null"`
	Seq      int             `gorm:"column:seq;not null"`
	Weight   decimal.Decimal `gorm:"column:weight;type:decimal(20,4);not null"`
}
