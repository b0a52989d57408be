package receiving

// resolverTargets is every step NextRequired or the commit path can produce
var resolverTargets = concat([]Step{StepBlast}, attributeSteps, commitPathSteps)

// transitions lists, per step and event, every step a handler may move to.
// Staying on the current step after an error is not a transition.
var transitions = map[Step]map[Event][]Step{
	StepConfirmation: {
		EventEnter: {StepProduct},
		EventExit:  {StepExit},
	},
	StepProduct: {
		EventEnter:    {StepPurchaseOrder, StepClosedByOther},
		EventExit:     {StepExit},
		EventClose:    {StepCloseSingle, StepCloseAll, StepClosedByOther},
		EventCloseAll: {StepBatchClosed, StepClosedByOther},
	},
	StepPurchaseOrder: {
		EventEnter: {StepPalletID},
		EventExit:  {StepProduct},
	},
	StepQuickNote: {
		EventEnter:    {StepPalletID, StepProduct, StepClosedByOther},
		EventExit:     {StepExit},
		EventClose:    {StepCloseSingle, StepCloseAll, StepClosedByOther},
		EventCloseAll: {StepBatchClosed, StepClosedByOther},
	},
	StepPalletID: {
		EventEnter: {StepQuantity, StepCrossDockInfo, StepClosedByOther},
		EventExit:  {StepExit},
	},
	StepQuantity: {
		EventEnter:  concat([]Step{StepPalletID, StepTieHighConfirm}, resolverTargets),
		EventCancel: {StepPalletID},
	},
	StepTieHighConfirm: {
		EventEnter:  concat([]Step{StepQuantity}, resolverTargets),
		EventCancel: {StepPalletID},
	},
	StepBlast: {
		EventEnter:     resolverTargets,
		EventCopyPrior: resolverTargets,
		EventCancel:    {StepPalletID},
	},
	StepRotationOverride: {
		EventEnter:  concat([]Step{StepBestBefore}, resolverTargets),
		EventCancel: {StepPalletID},
	},
	StepCatchWeight: {
		EventEnter:  commitPathSteps,
		EventCancel: {StepPalletID},
	},
	StepPalletType: {
		EventEnter:  commitPathSteps[2:],
		EventCancel: {StepPalletID},
	},
	StepMachineID: {
		EventEnter:  commitPathSteps[3:],
		EventCancel: {StepPalletID},
	},
	StepMerge: {
		EventEnter:  commitPathSteps[4:],
		EventCancel: {StepPalletID},
	},
	StepPutaway: {
		EventEnter:  commitPathSteps[5:],
		EventCancel: {StepPalletID},
	},
	StepCommit: {
		EventEnter:  {StepProduct, StepQuickNote, StepLoading, StepClosedByOther},
		EventDone:   {StepProduct, StepQuickNote, StepLoading, StepClosedByOther},
		EventCancel: {StepPalletID},
	},
	StepCrossDockInfo: {
		EventEnter:  concat([]Step{StepCrossDockLocation, StepQuantity}, resolverTargets),
		EventCancel: {StepPalletID},
	},
	StepCrossDockLocation: {
		EventEnter:  concat([]Step{StepCrossDockException, StepQuantity}, resolverTargets),
		EventCancel: {StepPalletID},
	},
	StepCrossDockException: {
		EventEnter:  concat([]Step{StepQuantity}, resolverTargets),
		EventCancel: {StepPalletID},
	},
	StepCloseSingle: {
		EventEnter: {StepBatchClosed, StepProduct, StepQuickNote, StepClosedByOther},
	},
	StepCloseAll: {
		EventEnter: {StepBatchClosed, StepWaitingOther, StepProduct, StepQuickNote, StepClosedByOther},
	},
	StepWaitingOther: {
		EventEnter: {StepWaitingOther, StepBatchClosed, StepClosedByOther},
		EventExit:  {StepExit},
	},
	StepClosedByOther: {
		EventEnter: {StepConfirmation},
	},
	StepLoading: {
		EventEnter: {StepProduct, StepQuickNote},
		EventExit:  {StepExit},
	},
}

func init() {
	for _, s := range attributeSteps {
		targets := resolverTargets
		if s == StepBestBefore || s == StepLot {
			// a best-before date, scanned or typed, can break rotation
			targets = concat([]Step{StepRotationOverride}, resolverTargets)
		}
		transitions[s] = map[Event][]Step{
			EventEnter:     targets,
			EventCopyPrior: resolverTargets,
			EventCancel:    {StepPalletID},
		}
	}
}

// Allowed reports whether the table lets event move from one step to another
func Allowed(from Step, ev Event, to Step) bool {
	for _, s := range transitions[from][ev] {
		if s == to {
			return true
		}
	}
	return false
}

// Accepts reports whether the step reacts to the event at all
func Accepts(step Step, ev Event) bool {
	_, ok := transitions[step][ev]
	return ok
}

// FunctionKeys is the legend of function keys live on a step
func FunctionKeys(step Step) []string {
	var keys []string
	for _, ev := range []Event{EventExit, EventClose, EventCopyPrior, EventCloseAll, EventCancel, EventDone} {
		if Accepts(step, ev) {
			keys = append(keys, eventLabels[ev])
		}
	}
	return keys
}

func concat(lists ...[]Step) []Step {
	var out []Step
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
