package receiving

import "github.com/ahmadzakiakmal/rf-receiving/repository/models"

// Requirements says which attribute steps a customer's profile makes mandatory
type Requirements struct {
	Lot           bool
	CustomerLot   bool
	Establishment bool
	SlaughterDate bool
	Reference     bool
	Temperature   bool
	BestBefore    bool
	Consignee     bool
	AskBlast      bool
}

// RequirementsFrom reads the requirement flags of a profile; a nil profile requires nothing
func RequirementsFrom(p *models.RequirementProfile) Requirements {
	if p == nil {
		return Requirements{}
	}
	return Requirements{
		Lot:           p.LotRequired,
		CustomerLot:   p.CustomerLotRequired,
		Establishment: p.EstablishmentRequired,
		SlaughterDate: p.SlaughterDateRequired,
		Reference:     p.ReferenceRequired,
		Temperature:   p.TemperatureRequired,
		BestBefore:    p.BestBeforeRequired,
		Consignee:     p.ConsigneeRequired,
		AskBlast:      p.AskBlast,
	}
}

// Required reports whether a step must be collected given the values so far.
// Answering Y to blast makes temperature required.
func (r Requirements) Required(step Step, f Fields) bool {
	switch step {
	case StepLot:
		return r.Lot
	case StepCustomerLot:
		return r.CustomerLot
	case StepEstablishment:
		return r.Establishment
	case StepSlaughterDate:
		return r.SlaughterDate
	case StepReference:
		return r.Reference
	case StepTemperature:
		return r.Temperature || f.BlastRequested()
	case StepBestBefore:
		return r.BestBefore
	case StepConsignee:
		return r.Consignee
	}
	return false
}

// NextRequired is the first attribute still needed for the pallet, or
// StepCommit when none is. An undecided blast question comes first.
func NextRequired(req Requirements, f Fields) Step {
	if req.AskBlast && f.Blast == nil {
		return StepBlast
	}
	for _, step := range attributeSteps {
		if req.Required(step, f) && !f.Populated(step) {
			return step
		}
	}
	return StepCommit
}

// CommitFacts are what the commit path needs to know about the pallet
type CommitFacts struct {
	CatchWeight     bool
	WeightsComplete bool
	AskPalletType   bool
	PalletTypeSet   bool
	AskMachineID    bool
	MachineIDSet    bool
	AskMerge        bool
	MergeCandidate  bool
	MergeDecided    bool
	AskPutaway      bool
	PutawayDecided  bool
}

// CommitStage is the first pre-commit stage still open, or StepCommit
func CommitStage(c CommitFacts) Step {
	switch {
	case c.CatchWeight && !c.WeightsComplete:
		return StepCatchWeight
	case c.AskPalletType && !c.PalletTypeSet:
		return StepPalletType
	case c.AskMachineID && !c.MachineIDSet:
		return StepMachineID
	case c.AskMerge && c.MergeCandidate && !c.MergeDecided:
		return StepMerge
	case c.AskPutaway && !c.PutawayDecided:
		return StepPutaway
	}
	return StepCommit
}
