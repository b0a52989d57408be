package repository

import (
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures is the demo data set loaded into an empty store
type Fixtures struct {
	Facilities      []models.FacilityConfig
	Profiles        []models.RequirementProfile
	Operators       []models.Operator
	Products        []models.Product
	Confirmations   []models.Confirmation
	Batches         []models.Batch
	PurchaseOrders  []models.PurchaseOrder
	CrossDockOrders []models.CrossDockOrder
	Locations       []models.Location
}

// Demo operator credentials
const (
	DemoFacility         = "WH1"
	DemoOperatorID       = "OP-001"
	DemoOperatorPassword = "receiver1"
	DemoSecondOperatorID = "OP-002"
	DemoSecondPassword   = "receiver2"
)

func hashPassword(pw string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

// DemoFixtures builds the demo warehouse: one facility, three customers with
// different requirement profiles, and open batches for each receiving mode.
func DemoFixtures() Fixtures {
	outbound := "OB-5001"

	return Fixtures{
		Facilities: []models.FacilityConfig{
			{
				Facility:                 DemoFacility,
				BlastHoldCode:            "BLST",
				HPPHoldCode:              "HPP",
				UseStackHold:             true,
				ConfirmCrossDockLocation: true,
				DefaultStageDoor:         "STG-01",
			},
		},
		Profiles: []models.RequirementProfile{
			{
				CustomerCode:          "ACME",
				LotRequired:           true,
				EstablishmentRequired: true,
				SlaughterDateRequired: true,
				BestBeforeRequired:    true,
				DateFormat:            models.DateFormatGregorian,
				RotationRestricted:    true,
				DateWindowYearsBack:   1,
				AskBlast:              true,
				AskPalletType:         true,
				AskMerge:              true,
			},
			{
				CustomerCode:        "BASIC",
				BestBeforeRequired:  true,
				DateFormat:          models.DateFormatJulian,
				DateWindowYearsBack: 2,
			},
			{
				CustomerCode:          "QUICK",
				LotRequired:           true,
				BestBeforeRequired:    true,
				DateFormat:            models.DateFormatGregorian,
				DateWindowYearsBack:   1,
				AcceptTieHighMismatch: true,
			},
		},
		Operators: []models.Operator{
			{ID: DemoOperatorID, Name: "Dock Receiver One", PasswordHash: hashPassword(DemoOperatorPassword), Facility: DemoFacility, Active: true},
			{ID: DemoSecondOperatorID, Name: "Dock Receiver Two", PasswordHash: hashPassword(DemoSecondPassword), Facility: DemoFacility, Active: true},
		},
		Products: []models.Product{
			{Code: "P-100", Description: "Beef Chuck Boxed", Owner: "ACME", Tie: 10, High: 5, ShelfLifeDays: 365, PickCode: models.PickCodeSellBy},
			{Code: "P-200", Description: "Chicken Leg Quarters", Owner: "ACME", Tie: 8, High: 6, CatchWeight: true, ShelfLifeDays: 180, PickCode: models.PickCodeProduction, HPPRequired: true},
			{Code: "P-300", Description: "Frozen Peas 10kg", Owner: "BASIC", Tie: 12, High: 6, ShelfLifeDays: 540, PickCode: models.PickCodeFIFO},
			{Code: "P-400", Description: "Pork Loin Vac Pack", Owner: "QUICK", Tie: 6, High: 8, ShelfLifeDays: 120, PickCode: models.PickCodeSellBy},
		},
		Confirmations: []models.Confirmation{
			{Number: "CONF-1001", CustomerCode: "ACME"},
			{Number: "CONF-1002", CustomerCode: "BASIC"},
			{Number: "CONF-1003", CustomerCode: "QUICK"},
		},
		Batches: []models.Batch{
			{ID: "B-1001-1", ConfirmationNumber: "CONF-1001", CustomerCode: "ACME", Facility: DemoFacility, ScanStatus: models.ScanStatusOpen, MultiReceiver: true, Door: "D01"},
			{ID: "B-1001-2", ConfirmationNumber: "CONF-1001", CustomerCode: "ACME", Facility: DemoFacility, ScanStatus: models.ScanStatusOpen, MultiReceiver: true, Door: "D02"},
			{ID: "B-1002-1", ConfirmationNumber: "CONF-1002", CustomerCode: "BASIC", Facility: DemoFacility, ScanStatus: models.ScanStatusOpen, Door: "D03"},
			{ID: "B-1003-1", ConfirmationNumber: "CONF-1003", CustomerCode: "QUICK", Facility: DemoFacility, ScanStatus: models.ScanStatusOpen, Door: "D04", CrossDock: true, QuickReceiveType: models.QuickReceiveStoreDock, OutboundBatchID: &outbound},
		},
		PurchaseOrders: []models.PurchaseOrder{
			{BatchID: "B-1001-1", ProductCode: "P-100", PONumber: "PO-7001", ExpectedQty: 200},
			{BatchID: "B-1001-1", ProductCode: "P-200", PONumber: "PO-7002", ExpectedQty: 96},
			{BatchID: "B-1001-2", ProductCode: "P-100", PONumber: "PO-7003", ExpectedQty: 100},
			{BatchID: "B-1002-1", ProductCode: "P-300", PONumber: "PO-7101", ExpectedQty: 144},
			{BatchID: "B-1003-1", ProductCode: "P-400", PONumber: "PO-7201", ExpectedQty: 96},
			{BatchID: "B-1003-1", ProductCode: "P-400", PONumber: "PO-7202", ExpectedQty: 48},
		},
		CrossDockOrders: []models.CrossDockOrder{
			{ID: "XD-0001", ConfirmationNumber: "CONF-1003", ProductCode: "P-400", CustomerCode: "QUICK", Lot: "L400", OutboundBatchID: outbound, Door: "D07", StageDoor: "STG-07"},
		},
		Locations: []models.Location{
			{Code: "D01", Kind: "DOOR"},
			{Code: "D07", Kind: "DOOR"},
			{Code: "STG-01", Kind: "STAGE"},
			{Code: "STG-07", Kind: "STAGE"},
			{Code: "A-01-01", Kind: "SLOT"},
			{Code: "A-01-02", Kind: "SLOT"},
		},
	}
}
