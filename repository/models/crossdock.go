package models

// CrossDockOrder is a pre-advised outbound line a received pallet can be routed to
type CrossDockOrder struct {
	ID                 string `gorm:"column:order_line_id;primaryKey;type:varchar(30)"`
	ConfirmationNumber string `gorm:"column:confirmation_number;type:varchar(20);index"`
	ProductCode        string `gorm:"column:product_code;type:varchar(20);index;not null"`
	CustomerCode       string `gorm:"column:customer_code;type:varchar(20);not null"`
	Lot                string `gorm:"column:lot;type:varchar(30)"`
	OutboundBatchID    string `gorm:"column:outbound_batch_id;type:varchar(30);not null"`
	Door               string `gorm:"column:door;type:varchar(10)"`
	StageDoor          string `gorm:"column:stage_door;type:varchar(10)"`
	Shipped            bool   `gorm:"column:shipped;default:false"`
}

// Location is a door, stage lane, or storage slot
type Location struct {
	Code string `gorm:"column:location_code;primaryKey;type:varchar(20)"`
	Kind string `gorm:"column:kind;type:varchar(10)"` // DOOR, STAGE, SLOT
}
