package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction of an inventory transaction
type Direction string

const (
	DirectionInbound  Direction = "IN"
	DirectionOutbound Direction = "OUT"
)

// InventoryLot rolls up product + lot + date for a batch
type InventoryLot struct {
	TrackKey    string          `gorm:"column:track_key;primaryKey;type:varchar(30)"`
	BatchID     string          `gorm:"column:batch_id;type:varchar(30);index;not null"`
	ProductCode string          `gorm:"column:product_code;type:varchar(20);not null"`
	Owner       string          `gorm:"column:owner;type:varchar(20)"`
	Lot         string          `gorm:"column:lot;type:varchar(30)"`
	CodeDate    string          `gorm:"column:code_date;type:varchar(8)"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	Weight      decimal.Decimal `gorm:"column:weight;type:decimal(20,4)"`
	HoldCode    string          `gorm:"column:hold_code;type:varchar(10)"`
	ReceivedAt  time.Time       `gorm:"column:received_at"`
}

// InventoryTransaction is the per-batch movement row for a lot
type InventoryTransaction struct {
	ID          string          `gorm:"column:transaction_id;primaryKey;type:varchar(40)"`
	TrackKey    string          `gorm:"column:track_key;type:varchar(30);index;not null"`
	BatchID     string          `gorm:"column:batch_id;type:varchar(30);index;not null"`
	Direction   Direction       `gorm:"column:direction;type:varchar(3);not null"`
	PalletCount int             `gorm:"column:pallet_count;not null;default:0"`
	Quantity    int             `gorm:"column:quantity;not null;default:0"`
	Weight      decimal.Decimal `gorm:"column:weight;type:decimal(20,4)"`
	StageDoor   string          `gorm:"column:stage_door;type:varchar(10)"`
	HoldCode    string          `gorm:"column:hold_code;type:varchar(10)"`
	Shipped     bool            `gorm:"column:shipped;default:false"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// HoldKind names what a hold is waiting for
type HoldKind string

const (
	HoldKindBlast HoldKind = "BLAST"
	HoldKindHPP   HoldKind = "HPP"
)

// Hold is a blast-room or HPP hold applied to a pallet and its lot
type Hold struct {
	ID         string     `gorm:"column:hold_id;primaryKey;type:varchar(40)"`
	PalletID   string     `gorm:"column:pallet_id;type:varchar(30);index;not null"`
	TrackKey   string     `gorm:"column:track_key;type:varchar(30);index"`
	Kind       HoldKind   `gorm:"column:kind;type:varchar(10);not null"`
	Code       string     `gorm:"column:code;type:varchar(10);not null"`
	External   bool       `gorm:"column:external;default:false"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	ReleasedAt *time.Time `gorm:"column:released_at"`
}
