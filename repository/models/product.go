package models

import "github.com/shopspring/decimal"

// PickCode is the code-date class used to compute a product's expiration
type PickCode string

const (
	PickCodeSellBy     PickCode = "S"
	PickCodeProduction PickCode = "P"
	PickCodeFIFO       PickCode = "F"
)

// Product describes an item as it arrives on a pallet
type Product struct {
	Code          string          `gorm:"column:product_code;primaryKey;type:varchar(20)"`
	Description   string          `gorm:"column:description;type:varchar(100)"`
	Owner         string          `gorm:"column:owner;type:varchar(20);index"`
	Tie           int             `gorm:"column:tie"`
	High          int             `gorm:"column:high"`
	CatchWeight   bool            `gorm:"column:catch_weight;default:false"`
	TareWeight    decimal.Decimal `gorm:"column:tare_weight;type:decimal(20,4)"`
	ShelfLifeDays int             `gorm:"column:shelf_life_days"`
	PickCode      PickCode        `gorm:"column:pick_code;type:varchar(1)"`
	HPPRequired   bool            `gorm:"column:hpp_required;default:false"`
}

// ExpectedQuantity is the full-pallet case count, zero when tie or high is unknown
func (p *Product) ExpectedQuantity() int {
	if p.Tie <= 0 || p.High <= 0 {
		return 0
	}
	return p.Tie * p.High
}
