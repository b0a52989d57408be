package receiving

import (
	"github.com/ahmadzakiakmal/rf-receiving/crossdock"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/shopspring/decimal"
)

// Fields are the attribute values collected for the pallet under construction
type Fields struct {
	Quantity      int              `json:"quantity"`
	Blast         *bool            `json:"blast,omitempty"`
	Lot           string           `json:"lot,omitempty"`
	CustomerLot   string           `json:"customer_lot,omitempty"`
	Establishment string           `json:"establishment,omitempty"`
	SlaughterDate string           `json:"slaughter_date,omitempty"`
	Reference     string           `json:"reference,omitempty"`
	Temperature   *decimal.Decimal `json:"temperature,omitempty"`
	BestBefore    string           `json:"best_before,omitempty"`
	Consignee     string           `json:"consignee,omitempty"`

	// Copied marks steps satisfied by the prior-pallet copy rather than typed
	Copied map[Step]bool `json:"copied,omitempty"`
}

// Populated reports whether an attribute step already has a value
func (f *Fields) Populated(step Step) bool {
	if f.Copied[step] {
		return true
	}
	switch step {
	case StepLot:
		return f.Lot != ""
	case StepCustomerLot:
		return f.CustomerLot != ""
	case StepEstablishment:
		return f.Establishment != ""
	case StepSlaughterDate:
		return f.SlaughterDate != ""
	case StepReference:
		return f.Reference != ""
	case StepTemperature:
		return f.Temperature != nil
	case StepBestBefore:
		return f.BestBefore != ""
	case StepConsignee:
		return f.Consignee != ""
	}
	return false
}

// BlastRequested reports whether the operator answered Y to blast
func (f *Fields) BlastRequested() bool {
	return f.Blast != nil && *f.Blast
}

// PriorPallet is what the copy shortcut reuses from the last committed pallet
type PriorPallet struct {
	PalletID    string `json:"pallet_id"`
	ProductCode string `json:"product_code"`
	PONumber    string `json:"po_number"`
	Tie         int    `json:"tie"`
	High        int    `json:"high"`
	HPP         bool   `json:"hpp"`
	Fields      Fields `json:"fields"`
}

// Pending holds the commit-path answers for the pallet under construction
type Pending struct {
	TieHighAccepted bool   `json:"tie_high_accepted,omitempty"`
	RotationChecked bool   `json:"rotation_checked,omitempty"`
	PalletType      string `json:"pallet_type,omitempty"`
	MergeDecided    bool   `json:"merge_decided,omitempty"`
	MergeWith       string `json:"merge_with,omitempty"`
	PutawayDecided  bool   `json:"putaway_decided,omitempty"`
	Location        string `json:"location,omitempty"`
	// RejectedDate is a best-before date waiting on the rotation override
	RejectedDate string `json:"rejected_date,omitempty"`
}

// State is the receiving session of one operator
type State struct {
	Step       Step   `json:"step"`
	OperatorID string `json:"operator_id"`
	TerminalID string `json:"terminal_id"`
	MachineID  string `json:"machine_id,omitempty"`
	Facility   string `json:"facility,omitempty"`

	ConfirmationNumber string                  `json:"confirmation_number,omitempty"`
	BatchID            string                  `json:"batch_id,omitempty"`
	CustomerCode       string                  `json:"customer_code,omitempty"`
	MultiReceiver      bool                    `json:"multi_receiver,omitempty"`
	QuickReceiveType   models.QuickReceiveType `json:"quick_receive_type,omitempty"`
	TruckToTruck       bool                    `json:"truck_to_truck,omitempty"`
	ScanStatus         models.ScanStatus       `json:"scan_status,omitempty"`

	Profile        *models.RequirementProfile `json:"profile,omitempty"`
	FacilityConfig *models.FacilityConfig     `json:"facility_config,omitempty"`

	ProductCode string `json:"product_code,omitempty"`
	PONumber    string `json:"po_number,omitempty"`
	Tie         int    `json:"tie,omitempty"`
	High        int    `json:"high,omitempty"`
	CatchWeight bool   `json:"catch_weight,omitempty"`
	HPP         bool   `json:"hpp,omitempty"`

	PalletID string  `json:"pallet_id,omitempty"`
	Fields   Fields  `json:"fields"`
	Pending  Pending `json:"pending"`

	Route         *crossdock.Route `json:"route,omitempty"`
	Prior         *PriorPallet     `json:"prior,omitempty"`
	UsedPriorCopy bool             `json:"used_prior_copy,omitempty"`
	PalletsDone   int              `json:"pallets_done,omitempty"`
}

// NewState is the state of an operator with no session yet
func NewState(operatorID, terminalID string) *State {
	return &State{Step: StepConfirmation, OperatorID: operatorID, TerminalID: terminalID}
}

// Reset returns the session to confirmation entry keeping only who and
// where the operator is
func (s *State) Reset() {
	*s = State{
		Step:       StepConfirmation,
		OperatorID: s.OperatorID,
		TerminalID: s.TerminalID,
		MachineID:  s.MachineID,
		Facility:   s.Facility,
	}
}

// ClearPallet drops the pallet under construction
func (s *State) ClearPallet() {
	s.PalletID = ""
	s.Fields = Fields{}
	s.Pending = Pending{}
	s.Route = nil
	s.UsedPriorCopy = false
}

// HasPallet reports whether a pallet is under construction
func (s *State) HasPallet() bool {
	return s.PalletID != ""
}

// quickReceiving reports whether product and PO entry are skipped for the next pallet
func (s *State) quickReceiving() bool {
	return s.QuickReceiveType.Active() && s.Prior != nil
}

// copyPrior applies the shortcut copy of the last committed pallet. Dates
// are copied too when the whole pallet is repeated by quick-receive.
func (s *State) copyPrior(withDates bool) bool {
	if s.Prior == nil {
		return false
	}
	prior := s.Prior.Fields
	s.Tie, s.High = s.Prior.Tie, s.Prior.High
	s.HPP = s.Prior.HPP
	s.Fields.Blast = prior.Blast
	s.Fields.Lot = prior.Lot
	s.Fields.CustomerLot = prior.CustomerLot
	s.Fields.Establishment = prior.Establishment
	s.Fields.SlaughterDate = prior.SlaughterDate
	s.Fields.Reference = prior.Reference
	s.Fields.Temperature = prior.Temperature

	copied := map[Step]bool{
		StepLot:           true,
		StepCustomerLot:   true,
		StepEstablishment: true,
		StepSlaughterDate: true,
		StepReference:     true,
		StepTemperature:   true,
	}
	if withDates {
		s.Fields.BestBefore = prior.BestBefore
		s.Fields.Consignee = prior.Consignee
		copied[StepBestBefore] = prior.BestBefore != ""
		copied[StepConsignee] = prior.Consignee != ""
		s.Pending.RotationChecked = true
	}
	s.Fields.Copied = copied
	s.UsedPriorCopy = true
	return true
}
