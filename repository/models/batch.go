package models

import "time"

// ScanStatus is the cooperative close signal shared by every receiver of a batch
type ScanStatus string

const (
	ScanStatusOpen     ScanStatus = "O"
	ScanStatusReceived ScanStatus = "R"
	ScanStatusClosed   ScanStatus = "C"
)

// IsOpen reports whether pallets may still be received against the batch
func (s ScanStatus) IsOpen() bool {
	return s == ScanStatusOpen || s == ""
}

// QuickReceiveType selects the shortcut intake mode of a batch
type QuickReceiveType string

const (
	QuickReceiveNone       QuickReceiveType = ""
	QuickReceiveLeaveTruck QuickReceiveType = "L"
	QuickReceiveStoreDock  QuickReceiveType = "D"
	QuickReceiveFreezer    QuickReceiveType = "F"
)

func (q QuickReceiveType) IsValid() bool {
	switch q {
	case QuickReceiveNone, QuickReceiveLeaveTruck, QuickReceiveStoreDock, QuickReceiveFreezer:
		return true
	}
	return false
}

// Active reports whether the batch uses one of the quick-receive shortcuts
func (q QuickReceiveType) Active() bool {
	return q != QuickReceiveNone && q.IsValid()
}

// Confirmation groups the loads delivered together on one truck
type Confirmation struct {
	Number       string     `gorm:"column:confirmation_number;primaryKey;type:varchar(20)"`
	CustomerCode string     `gorm:"column:customer_code;type:varchar(20);not null"`
	FinishAt     *time.Time `gorm:"column:finish_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Batch is one inbound shipment unit received against a confirmation number
type Batch struct {
	ID                 string           `gorm:"column:batch_id;primaryKey;type:varchar(30)"`
	ConfirmationNumber string           `gorm:"column:confirmation_number;type:varchar(20);index;not null"`
	CustomerCode       string           `gorm:"column:customer_code;type:varchar(20);not null"`
	Facility           string           `gorm:"column:facility;type:varchar(10)"`
	ScanStatus         ScanStatus       `gorm:"column:scan_status;type:varchar(1);default:'O'"`
	MultiReceiver      bool             `gorm:"column:multi_receiver;default:false"`
	Door               string           `gorm:"column:door;type:varchar(10)"`
	FinishAt           *time.Time       `gorm:"column:finish_at"`
	CrossDock          bool             `gorm:"column:cross_dock;default:false"`
	QuickReceiveType   QuickReceiveType `gorm:"column:quick_receive_type;type:varchar(1)"`
	QuickNote          string           `gorm:"column:quick_note;type:varchar(200)"`
	TruckToTruck       bool             `gorm:"column:truck_to_truck;default:false"`
	OutboundBatchID    *string          `gorm:"column:outbound_batch_id;type:varchar(30)"`
	Shipped            bool             `gorm:"column:shipped;default:false"`
	Version            int              `gorm:"column:version;not null;default:0"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// BatchReceiver tracks which operators are receiving a multi-receiver batch
type BatchReceiver struct {
	BatchID    string    `gorm:"column:batch_id;primaryKey;type:varchar(30)"`
	OperatorID string    `gorm:"column:operator_id;primaryKey;type:varchar(50)"`
	TerminalID string    `gorm:"column:terminal_id;type:varchar(20)"`
	Active     bool      `gorm:"column:active"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// PurchaseOrder is an expected product line of a batch
type PurchaseOrder struct {
	ID          uint   `gorm:"column:po_line_id;primaryKey;autoIncrement"`
	BatchID     string `gorm:"column:batch_id;type:varchar(30);index;not null"`
	ProductCode string `gorm:"column:product_code;type:varchar(20);index;not null"`
	PONumber    string `gorm:"column:po_number;type:varchar(20);not null"`
	ExpectedQty int    `gorm:"column:expected_qty"`
}
