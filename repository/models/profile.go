package models

// DateFormat is how a customer's code dates are scanned
type DateFormat string

const (
	DateFormatGregorian DateFormat = "G" // MMDDYYYY
	DateFormatJulian    DateFormat = "J" // YYYYDDD
)

// RequirementProfile is the per-customer receiving configuration
type RequirementProfile struct {
	CustomerCode string `gorm:"column:customer_code;primaryKey;type:varchar(20)"`

	LotRequired           bool `gorm:"column:lot_required;default:false"`
	CustomerLotRequired   bool `gorm:"column:customer_lot_required;default:false"`
	EstablishmentRequired bool `gorm:"column:establishment_required;default:false"`
	SlaughterDateRequired bool `gorm:"column:slaughter_date_required;default:false"`
	ReferenceRequired     bool `gorm:"column:reference_required;default:false"`
	TemperatureRequired   bool `gorm:"column:temperature_required;default:false"`
	BestBeforeRequired    bool `gorm:"column:best_before_required;default:false"`
	ConsigneeRequired     bool `gorm:"column:consignee_required;default:false"`

	LotScanned bool       `gorm:"column:lot_scanned;default:false"`
	DateFormat DateFormat `gorm:"column:date_format;type:varchar(1);default:'G'"`
	LotMask    string     `gorm:"column:lot_mask;type:varchar(30)"`

	// Barcode segmentation: a scan of exactly BarcodeLength characters
	// carries the lot and the code date at fixed offsets.
	BarcodeLength int `gorm:"column:barcode_length"`
	LotStart      int `gorm:"column:lot_start"`
	LotLength     int `gorm:"column:lot_length"`
	DateStart     int `gorm:"column:date_start"`
	DateLength    int `gorm:"column:date_length"`

	ASNMatch            bool `gorm:"column:asn_match;default:false"`
	RotationRestricted  bool `gorm:"column:rotation_restricted;default:false"`
	DateWindowYearsBack int  `gorm:"column:date_window_years_back;default:1"`

	// AcceptTieHighMismatch skips the confirmation asked when a quantity is not tie x high
	AcceptTieHighMismatch bool `gorm:"column:accept_tie_high_mismatch;default:false"`
	AskBlast              bool `gorm:"column:ask_blast;default:false"`
	AskPalletType         bool `gorm:"column:ask_pallet_type;default:false"`
	AskPutaway            bool `gorm:"column:ask_putaway;default:false"`
	AskMerge              bool `gorm:"column:ask_merge;default:false"`
	AskMachineID          bool `gorm:"column:ask_machine_id;default:false"`
	PrintLabel            bool `gorm:"column:print_label;default:false"`
	DynamicAttributes     bool `gorm:"column:dynamic_attributes;default:false"`
}

// FacilityConfig holds the warehouse-wide receiving settings
type FacilityConfig struct {
	Facility                 string `gorm:"column:facility;primaryKey;type:varchar(10)"`
	BlastHoldCode            string `gorm:"column:blast_hold_code;type:varchar(10)"`
	HPPHoldCode              string `gorm:"column:hpp_hold_code;type:varchar(10)"`
	UseStackHold             bool   `gorm:"column:use_stack_hold;default:false"`
	ConfirmCrossDockLocation bool   `gorm:"column:confirm_cross_dock_location;default:false"`
	PrintLabels              bool   `gorm:"column:print_labels;default:false"`
	DefaultStageDoor         string `gorm:"column:default_stage_door;type:varchar(10)"`
}
