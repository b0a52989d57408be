package receiving

import "strings"

// Step is a screen of the receiving workflow
type Step string

const (
	StepConfirmation       Step = "confirmation"
	StepProduct            Step = "product"
	StepPurchaseOrder      Step = "purchase-order"
	StepQuickNote          Step = "quick-note"
	StepPalletID           Step = "pallet-id"
	StepQuantity           Step = "quantity"
	StepTieHighConfirm     Step = "tie-high-confirm"
	StepBlast              Step = "blast"
	StepLot                Step = "lot"
	StepCustomerLot        Step = "customer-lot"
	StepEstablishment      Step = "establishment"
	StepSlaughterDate      Step = "slaughter-date"
	StepReference          Step = "reference"
	StepTemperature        Step = "temperature"
	StepBestBefore         Step = "best-before"
	StepConsignee          Step = "consignee"
	StepRotationOverride   Step = "rotation-override"
	StepCatchWeight        Step = "catch-weight"
	StepPalletType         Step = "pallet-type"
	StepMachineID          Step = "machine-id"
	StepMerge              Step = "merge"
	StepPutaway            Step = "putaway"
	StepCommit             Step = "commit"
	StepCrossDockInfo      Step = "crossdock-info"
	StepCrossDockLocation  Step = "crossdock-location"
	StepCrossDockException Step = "crossdock-exception"
	StepCloseSingle        Step = "close-single"
	StepCloseAll           Step = "close-all"
	StepClosedByOther      Step = "closed-by-other"
	StepWaitingOther       Step = "waiting-other"
	StepLoading            Step = "loading"

	StepExit        Step = "receiving-exit"
	StepBatchClosed Step = "batch-closed"
)

// Terminal reports whether the step ends the receiving session
func (s Step) Terminal() bool {
	return s == StepExit || s == StepBatchClosed
}

// attributeSteps is the precedence the resolver walks
var attributeSteps = []Step{
	StepLot,
	StepCustomerLot,
	StepEstablishment,
	StepSlaughterDate,
	StepReference,
	StepTemperature,
	StepBestBefore,
	StepConsignee,
}

// commitPathSteps are the stages visited on the way into the commit screen
var commitPathSteps = []Step{
	StepCatchWeight,
	StepPalletType,
	StepMachineID,
	StepMerge,
	StepPutaway,
	StepCommit,
}

// Event is what the operator pressed
type Event string

const (
	EventEnter     Event = "ENTER"
	EventExit      Event = "F3"
	EventClose     Event = "F4"
	EventCopyPrior Event = "F6"
	EventCloseAll  Event = "F7"
	EventCancel    Event = "F8"
	EventDone      Event = "F9"
)

var eventLabels = map[Event]string{
	EventExit:      "F3=Exit",
	EventClose:     "F4=Close",
	EventCopyPrior: "F6=Copy",
	EventCloseAll:  "F7=Close All",
	EventCancel:    "F8=Cancel",
	EventDone:      "F9=Send",
}

// ParseEvent reads the function key of a request; no key means Enter
func ParseEvent(fkey string) (Event, bool) {
	switch strings.ToUpper(strings.TrimSpace(fkey)) {
	case "", "ENTER":
		return EventEnter, true
	case "F3":
		return EventExit, true
	case "F4":
		return EventClose, true
	case "F6":
		return EventCopyPrior, true
	case "F7":
		return EventCloseAll, true
	case "F8":
		return EventCancel, true
	case "F9":
		return EventDone, true
	}
	return "", false
}
