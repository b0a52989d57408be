package models

import "time"

// AuditRecord captures a business-rule violation found while receiving
type AuditRecord struct {
	ID           string    `gorm:"column:audit_id;primaryKey;type:varchar(40)"`
	BatchID      string    `gorm:"column:batch_id;type:varchar(30);index"`
	PalletID     string    `gorm:"column:pallet_id;type:varchar(30);index"`
	OperatorID   string    `gorm:"column:operator_id;type:varchar(50)"`
	Field        string    `gorm:"column:field;type:varchar(30)"`
	BadValue     string    `gorm:"column:bad_value;type:varchar(60)"`
	Rule         string    `gorm:"column:rule;type:varchar(40);not null"`
	Detail       string    `gorm:"column:detail;type:text"`
	AutoResolved bool      `gorm:"column:auto_resolved;default:false"`
	Overridden   bool      `gorm:"column:overridden;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// InventoryException records a bad location scanned while routing a pallet
type InventoryException struct {
	ID               string    `gorm:"column:exception_id;primaryKey;type:varchar(40)"`
	PalletID         string    `gorm:"column:pallet_id;type:varchar(30);index"`
	BatchID          string    `gorm:"column:batch_id;type:varchar(30)"`
	ExpectedLocation string    `gorm:"column:expected_location;type:varchar(20)"`
	ScannedLocation  string    `gorm:"column:scanned_location;type:varchar(20)"`
	ReasonCode       string    `gorm:"column:reason_code;type:varchar(10)"`
	OperatorID       string    `gorm:"column:operator_id;type:varchar(50)"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Operator is a handheld user
type Operator struct {
	ID           string `gorm:"column:operator_id;primaryKey;type:varchar(50)"`
	Name         string `gorm:"column:name;type:varchar(100);not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null"`
	Facility     string `gorm:"column:facility;type:varchar(10)"`
	Active       bool   `gorm:"column:active"`
}
