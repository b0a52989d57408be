package receiving

// FieldDescriptor tells the terminal what to render for a step
type FieldDescriptor struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	MaxLength int    `json:"max_length,omitempty"`
	Kind      string `json:"kind"` // text, number, date, yesno, message
}

var catalogue = map[Step][]FieldDescriptor{
	StepConfirmation:       {{Name: "confirmation", Label: "Confirmation #", MaxLength: 20, Kind: "text"}},
	StepProduct:            {{Name: "product", Label: "Product", MaxLength: 20, Kind: "text"}},
	StepPurchaseOrder:      {{Name: "po", Label: "PO #", MaxLength: 20, Kind: "text"}},
	StepQuickNote:          {{Name: "note", Label: "Note", Kind: "message"}},
	StepPalletID:           {{Name: "pallet_id", Label: "Pallet ID", MaxLength: 30, Kind: "text"}},
	StepQuantity:           {{Name: "quantity", Label: "Quantity", MaxLength: 6, Kind: "number"}},
	StepTieHighConfirm:     {{Name: "confirm", Label: "Qty <> TixHi OK?", Kind: "yesno"}},
	StepBlast:              {{Name: "blast", Label: "Blast?", Kind: "yesno"}},
	StepLot:                {{Name: "lot", Label: "Lot", MaxLength: 60, Kind: "text"}},
	StepCustomerLot:        {{Name: "customer_lot", Label: "Cust Lot", MaxLength: 30, Kind: "text"}},
	StepEstablishment:      {{Name: "establishment", Label: "Est #", MaxLength: 15, Kind: "text"}},
	StepSlaughterDate:      {{Name: "slaughter_date", Label: "Kill Date", MaxLength: 8, Kind: "date"}},
	StepReference:          {{Name: "reference", Label: "Reference", MaxLength: 30, Kind: "text"}},
	StepTemperature:        {{Name: "temperature", Label: "Temp", MaxLength: 6, Kind: "number"}},
	StepBestBefore:         {{Name: "best_before", Label: "Code Date", MaxLength: 8, Kind: "date"}},
	StepConsignee:          {{Name: "consignee", Label: "Consignee", MaxLength: 20, Kind: "text"}},
	StepRotationOverride:   {{Name: "override", Label: "Older than stock. OK?", Kind: "yesno"}},
	StepCatchWeight:        {{Name: "weight", Label: "Case Wt", MaxLength: 9, Kind: "number"}},
	StepPalletType:         {{Name: "pallet_type", Label: "Plt Type", MaxLength: 10, Kind: "text"}},
	StepMachineID:          {{Name: "machine_id", Label: "Machine", MaxLength: 20, Kind: "text"}},
	StepMerge:              {{Name: "merge", Label: "Merge?", Kind: "yesno"}},
	StepPutaway:            {{Name: "location", Label: "Location", MaxLength: 20, Kind: "text"}},
	StepCommit:             {{Name: "send", Label: "Send pallet", Kind: "message"}},
	StepCrossDockInfo:      {{Name: "destination", Label: "Cross dock to", Kind: "message"}},
	StepCrossDockLocation:  {{Name: "location", Label: "Scan location", MaxLength: 20, Kind: "text"}},
	StepCrossDockException: {{Name: "reason", Label: "Reason", MaxLength: 10, Kind: "text"}},
	StepCloseSingle:        {{Name: "close", Label: "Close batch?", Kind: "yesno"}},
	StepCloseAll:           {{Name: "close", Label: "Close for all?", Kind: "yesno"}},
	StepClosedByOther:      {{Name: "closed", Label: "Closed by other", Kind: "message"}},
	StepWaitingOther:       {{Name: "waiting", Label: "Waiting on others", Kind: "message"}},
	StepLoading:            {{Name: "door", Label: "Trailer door", MaxLength: 20, Kind: "text"}},
	StepExit:               {},
	StepBatchClosed:        {{Name: "closed", Label: "Batch closed", Kind: "message"}},
}

// FieldsFor returns the field set a step renders
func FieldsFor(step Step) []FieldDescriptor {
	return catalogue[step]
}
