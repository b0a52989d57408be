package validation

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
)

// RotationResult reports whether a code date is older than stock on hand
type RotationResult struct {
	Violated bool
	Latest   string
}

// CheckRotation compares a YYYYMMDD code date with the newest one already
// received for the product/owner/lot combination.
func CheckRotation(ctx context.Context, store repository.Store, productCode, owner, lot, codeDate string) (RotationResult, error) {
	latest, err := store.LatestCodeDate(ctx, productCode, owner, lot)
	if err != nil {
		return RotationResult{}, fmt.Errorf("failed to read latest code date: %w", err)
	}
	return RotationResult{
		Violated: latest != "" && codeDate < latest,
		Latest:   latest,
	}, nil
}
