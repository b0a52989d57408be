package receiving

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/ahmadzakiakmal/rf-receiving/session"
	"github.com/ahmadzakiakmal/rf-receiving/validation"
	"github.com/shopspring/decimal"
)

// temperatureLimit bounds a plausible core temperature reading
var temperatureLimit = decimal.NewFromInt(100)

// maxLotLength is the stored lot width; a barcode scan may be longer
const maxLotLength = 30

func (e *Engine) onQuantity(t *turn) (Step, error) {
	st := t.st
	qty := st.Fields.Quantity
	if t.value != "" || qty == 0 {
		n, err := strconv.Atoi(t.value)
		if err != nil || n < 0 {
			return "", inputErrorf("Quantity must be a whole number")
		}
		qty = n
	}

	if qty == 0 {
		return e.cancelPallet(t)
	}

	st.Fields.Quantity = qty
	st.Pending.TieHighAccepted = false
	if err := e.syncPallet(t); err != nil {
		return "", err
	}

	if expected := st.Tie * st.High; expected > 0 && qty != expected && !st.profile().AcceptTieHighMismatch {
		t.set("expected_qty", expected)
		return StepTieHighConfirm, nil
	}
	return e.advance(t)
}

func (e *Engine) onTieHighConfirm(t *turn) (Step, error) {
	yes, err := parseYesNo(t.value)
	if err != nil {
		return "", err
	}
	if !yes {
		t.st.Fields.Quantity = 0
		return StepQuantity, nil
	}
	st := t.st
	st.Pending.TieHighAccepted = true
	v := e.violation(st, "quantity", strconv.Itoa(st.Fields.Quantity), validation.RuleQuantity,
		fmt.Sprintf("quantity differs from tie %d x high %d", st.Tie, st.High))
	v.Overridden = true
	e.recordAudit(t, v, true)
	return e.advance(t)
}

func (e *Engine) onBlast(t *turn) (Step, error) {
	yes, err := parseYesNo(t.value)
	if err != nil {
		return "", err
	}
	t.st.Fields.Blast = &yes
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.advance(t)
}

// onLot takes a typed lot or a segmented barcode carrying lot and code date
func (e *Engine) onLot(t *turn) (Step, error) {
	st := t.st
	profile := st.profile()
	lot := t.value
	var scannedDate string

	if seg, ok := validation.SplitBarcode(profile, t.value); ok {
		lot = strings.TrimSpace(seg.Lot)
		scannedDate = seg.Date
	}
	if lot == "" {
		return "", inputErrorf("Lot is required")
	}
	if len(lot) > maxLotLength {
		return "", inputErrorf("Lot is longer than %d characters", maxLotLength)
	}

	if profile.LotMask != "" {
		ok, err := validation.CheckLotMask(t.ctx, e.store, profile.LotMask, lot)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", &RuleError{
				Message:   fmt.Sprintf("Lot %s does not match mask %s", lot, profile.LotMask),
				Violation: e.violation(st, "lot", lot, validation.RuleLotMask, "lot does not match "+profile.LotMask),
			}
		}
	}
	st.Fields.Lot = lot

	if scannedDate != "" {
		date := e.barcodeDate(t, scannedDate)
		override, err := e.checkCodeDate(t, date)
		if err != nil {
			return "", err
		}
		if override {
			if err := e.syncPallet(t); err != nil {
				return "", err
			}
			return StepRotationOverride, nil
		}
	}

	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.advance(t)
}

// barcodeDate reads the date segment of a scanned barcode. An unreadable
// segment becomes today, flagged to the operator and the audit trail.
func (e *Engine) barcodeDate(t *turn, raw string) time.Time {
	now := e.clock.Now()
	var date time.Time
	var fallback bool
	if t.st.profile().DateFormat == models.DateFormatJulian {
		res := validation.ToGregorian(raw, now)
		date, _ = validation.ParseGregorian(res.Value)
		fallback = res.Fallback
	} else {
		res := validation.ToJulian(raw, now)
		date, _ = validation.ParseJulian(res.Value)
		fallback = res.Fallback
	}
	if fallback {
		t.warn("Date %s unreadable, using today", raw)
		e.recordAudit(t, e.violation(t.st, "best_before", raw, validation.RuleDateFallback, "barcode date unreadable, today used"), true)
	}
	return date
}

// onText handles the free-text attribute steps
func (e *Engine) onText(t *turn) (Step, error) {
	st := t.st
	step := st.Step
	if t.value == "" {
		return "", inputErrorf("%s is required", label(step))
	}
	if limit := maxLength(step); limit > 0 && len(t.value) > limit {
		return "", inputErrorf("%s is longer than %d characters", label(step), limit)
	}

	switch step {
	case StepCustomerLot:
		st.Fields.CustomerLot = t.value
	case StepEstablishment:
		st.Fields.Establishment = strings.ToUpper(t.value)
	case StepReference:
		st.Fields.Reference = t.value
	case StepConsignee:
		st.Fields.Consignee = strings.ToUpper(t.value)
	}
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.advance(t)
}

// onSlaughterDate warns on an out-of-window kill date but keeps it
func (e *Engine) onSlaughterDate(t *turn) (Step, error) {
	st := t.st
	date, err := parseTypedDate(st.profile(), t.value)
	if err != nil {
		return "", err
	}
	now := e.clock.Now()
	res := validation.CheckDateWindow(validation.WindowCheck{
		Date:      date,
		Reference: now,
		YearsBack: st.profile().DateWindowYearsBack,
		PickCode:  models.PickCodeSellBy,
	}, now)
	if !res.InWindow {
		t.warn("Kill date %s outside receiving window", t.value)
		e.recordAudit(t, e.violation(st, "slaughter_date", t.value, validation.RuleDateWindow, windowDetail(res)), true)
	}

	st.Fields.SlaughterDate = validation.FormatStored(date)
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.advance(t)
}

func (e *Engine) onTemperature(t *turn) (Step, error) {
	temp, err := decimal.NewFromString(t.value)
	if err != nil {
		return "", inputErrorf("Temperature must be a number")
	}
	if temp.Abs().GreaterThan(temperatureLimit) {
		return "", inputErrorf("Temperature %s is out of range", t.value)
	}
	t.st.Fields.Temperature = &temp
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.advance(t)
}

func (e *Engine) onBestBefore(t *turn) (Step, error) {
	date, err := parseTypedDate(t.st.profile(), t.value)
	if err != nil {
		return "", err
	}
	override, err := e.checkCodeDate(t, date)
	if err != nil {
		return "", err
	}
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	if override {
		return StepRotationOverride, nil
	}
	return e.advance(t)
}

// checkCodeDate runs the window, expiry and rotation rules on a code date.
// It reports true when the date waits on the rotation override.
func (e *Engine) checkCodeDate(t *turn, date time.Time) (bool, error) {
	st := t.st
	profile := st.profile()
	product, err := e.store.GetProduct(t.ctx, st.ProductCode)
	if err != nil {
		return false, err
	}

	now := e.clock.Now()
	codeDate := validation.FormatStored(date)
	res := validation.CheckDateWindow(validation.WindowCheck{
		Date:          date,
		Reference:     now,
		YearsBack:     profile.DateWindowYearsBack,
		PickCode:      product.PickCode,
		ShelfLifeDays: product.ShelfLifeDays,
	}, now)
	if !res.InWindow {
		t.warn("Code date %s outside receiving window", codeDate)
		e.recordAudit(t, e.violation(st, "best_before", codeDate, validation.RuleDateWindow, windowDetail(res)), true)
	}
	if res.ExpiringSoon {
		t.warn("Product expires %s", res.Expiration.Format(validation.GregorianLayout))
		e.recordAudit(t, e.violation(st, "best_before", codeDate, validation.RuleExpiring, "expires "+validation.FormatStored(res.Expiration)), true)
	}

	if profile.RotationRestricted {
		rot, err := validation.CheckRotation(t.ctx, e.store, product.Code, product.Owner, st.Fields.Lot, codeDate)
		if err != nil {
			return false, err
		}
		if rot.Violated {
			st.Pending.RejectedDate = codeDate
			st.Pending.RotationChecked = false
			t.set("latest_code_date", rot.Latest)
			e.recordAudit(t, e.violation(st, "best_before", codeDate, validation.RuleRotation, "older than "+rot.Latest), false)
			return true, nil
		}
	}

	st.Fields.BestBefore = codeDate
	st.Pending.RotationChecked = true
	st.Pending.RejectedDate = ""
	return false, nil
}

// onRotationOverride: Y keeps the older date, N returns to date entry
func (e *Engine) onRotationOverride(t *turn) (Step, error) {
	st := t.st
	yes, err := parseYesNo(t.value)
	if err != nil {
		return "", err
	}
	rejected := st.Pending.RejectedDate
	st.Pending.RejectedDate = ""
	if !yes {
		st.Fields.BestBefore = ""
		return StepBestBefore, nil
	}

	st.Fields.BestBefore = rejected
	st.Pending.RotationChecked = true
	v := e.violation(st, "best_before", rejected, validation.RuleRotation, "rotation overridden by operator")
	v.Overridden = true
	e.recordAudit(t, v, false)
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	return e.advance(t)
}

// copyPrior is the F6 shortcut: reuse the last pallet's attributes
func (e *Engine) copyPrior(t *turn) (Step, error) {
	st := t.st
	if st.Prior == nil {
		return "", inputErrorf("No prior pallet to copy")
	}
	if st.Prior.ProductCode != st.ProductCode {
		return "", inputErrorf("Prior pallet was product %s", st.Prior.ProductCode)
	}
	st.copyPrior(false)
	if err := e.syncPallet(t); err != nil {
		return "", err
	}
	t.warn("Copied from pallet %s", st.Prior.PalletID)
	return e.advance(t)
}

// cancelPallet drops the pallet under construction (F8 or quantity 0)
func (e *Engine) cancelPallet(t *turn) (Step, error) {
	st := t.st
	if st.HasPallet() {
		removed, err := e.comp.CancelPallet(t.ctx, st.PalletID)
		if err != nil {
			return "", err
		}
		if err := e.sessions.Delete(st.OperatorID, session.ContextCatchWeight); err != nil {
			return "", err
		}
		if removed {
			t.warn("Pallet %s cancelled", st.PalletID)
		}
	}
	st.ClearPallet()
	return StepPalletID, nil
}

// advance resolves the next attribute step, then the commit path
func (e *Engine) advance(t *turn) (Step, error) {
	next := NextRequired(RequirementsFrom(t.st.Profile), t.st.Fields)
	if next != StepCommit {
		return next, nil
	}
	return e.commitStage(t)
}

func (e *Engine) violation(st *State, field, value, rule, detail string) validation.Violation {
	return validation.Violation{
		BatchID:    st.BatchID,
		PalletID:   st.PalletID,
		OperatorID: st.OperatorID,
		Field:      field,
		BadValue:   value,
		Rule:       rule,
		Detail:     detail,
	}
}

// recordAudit writes a violation that does not block the step; a failed
// audit write is logged and the step goes on
func (e *Engine) recordAudit(t *turn, v validation.Violation, autoResolved bool) {
	v.AutoResolved = autoResolved
	if err := e.auditor.Record(t.ctx, e.store, v); err != nil {
		e.logger.Error("Failed to write audit record", "operator", v.OperatorID, "rule", v.Rule, "err", err)
	}
}

func windowDetail(res validation.WindowResult) string {
	return "window " + validation.FormatStored(res.Earliest) + "-" + validation.FormatStored(res.Latest)
}

// parseTypedDate reads a keyed date in the customer's format
func parseTypedDate(p *models.RequirementProfile, value string) (time.Time, error) {
	if p.DateFormat == models.DateFormatJulian {
		d, err := validation.ParseJulian(value)
		if err != nil {
			return time.Time{}, inputErrorf("Date must be YYYYDDD")
		}
		return d, nil
	}
	d, err := validation.ParseGregorian(value)
	if err != nil {
		return time.Time{}, inputErrorf("Date must be MMDDYYYY")
	}
	return d, nil
}

func parseYesNo(value string) (bool, error) {
	switch strings.ToUpper(value) {
	case "Y", "YES":
		return true, nil
	case "N", "NO":
		return false, nil
	}
	return false, inputErrorf("Answer Y or N")
}

func label(step Step) string {
	if fields := FieldsFor(step); len(fields) > 0 {
		return fields[0].Label
	}
	return string(step)
}

func maxLength(step Step) int {
	if fields := FieldsFor(step); len(fields) > 0 {
		return fields[0].MaxLength
	}
	return 0
}
