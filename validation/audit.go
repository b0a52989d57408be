package validation

import (
	"context"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// Rules written to audit records
const (
	RuleDateWindow   = "DATE_WINDOW"
	RuleExpiring     = "EXPIRING_SOON"
	RuleRotation     = "ROTATION"
	RuleDateFallback = "DATE_FALLBACK"
	RuleLotMask      = "LOT_MASK"
	RuleQuantity     = "TIE_HIGH"
)

// Violation is one business-rule breach found on a scanned value
type Violation struct {
	BatchID      string
	PalletID     string
	OperatorID   string
	Field        string
	BadValue     string
	Rule         string
	Detail       string
	AutoResolved bool
	Overridden   bool
}

// Auditor writes rule violations to the audit trail
type Auditor struct {
	clock clock.PassiveClock
}

func NewAuditor(clk clock.PassiveClock) *Auditor {
	return &Auditor{clock: clk}
}

// Record writes v through store, so it joins the caller's transaction
func (a *Auditor) Record(ctx context.Context, store repository.Store, v Violation) error {
	return store.WriteAudit(ctx, &models.AuditRecord{
		ID:           "AUD-" + uuid.New().String()[:8],
		BatchID:      v.BatchID,
		PalletID:     v.PalletID,
		OperatorID:   v.OperatorID,
		Field:        v.Field,
		BadValue:     v.BadValue,
		Rule:         v.Rule,
		Detail:       v.Detail,
		AutoResolved: v.AutoResolved,
		Overridden:   v.Overridden,
		CreatedAt:    a.clock.Now(),
	})
}
