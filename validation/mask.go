package validation

import (
	"context"
	"fmt"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
)

// CheckLotMask asks the mask routine whether value fits mask. An empty mask
// accepts everything without calling out.
func CheckLotMask(ctx context.Context, store repository.Store, mask, value string) (bool, error) {
	if mask == "" {
		return true, nil
	}
	out, err := store.RunRoutine(ctx, repository.RoutineValidateMask, repository.RoutineIO{
		"mask":  mask,
		"value": value,
	})
	if err != nil {
		return false, fmt.Errorf("lot mask validation failed: %w", err)
	}
	return out.Bool("valid"), nil
}
