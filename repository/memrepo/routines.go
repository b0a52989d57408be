package memrepo

import (
	"context"
	"unicode"

	"github.com/ahmadzakiakmal/rf-receiving/repository"
	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// registerDefaultRoutines installs stand-ins that behave like the stored
// routines for the demo data set
func (s *Store) registerDefaultRoutines() {
	s.db.routines[repository.RoutineAutoReceiveInbound] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		batchID := in.String("batch_id")
		var lots int
		s.locked(func(t *tables) {
			for _, l := range t.lots {
				if l.BatchID == batchID {
					lots++
				}
			}
		})
		return repository.RoutineIO{"batch_id": batchID, "lots": lots}, nil
	}

	s.db.routines[repository.RoutineAutoReceiveCrossDock] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		return repository.RoutineIO{"pallet_id": in.String("pallet_id"), "status": "OK"}, nil
	}

	s.db.routines[repository.RoutineStackHoldCreate] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		return repository.RoutineIO{"hold_code": in.String("hold_code"), "external": true}, nil
	}

	s.db.routines[repository.RoutineStackHoldRelease] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		return repository.RoutineIO{"released": true}, nil
	}

	s.db.routines[repository.RoutineSlottingFetch] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		var slots []models.Location
		s.locked(func(t *tables) {
			slots = sortedValues(t.locations,
				func(l models.Location) bool { return l.Kind == "SLOT" },
				func(a, b models.Location) bool { return a.Code < b.Code })
		})
		if len(slots) == 0 {
			return repository.RoutineIO{}, nil
		}
		return repository.RoutineIO{"location": slots[0].Code}, nil
	}

	s.db.routines[repository.RoutineValidateMask] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		return repository.RoutineIO{"valid": matchMask(in.String("mask"), in.String("value"))}, nil
	}

	s.db.routines[repository.RoutineDynamicAttributes] = func(ctx context.Context, in repository.RoutineIO) (repository.RoutineIO, error) {
		return repository.RoutineIO{
			"attributes": map[string]any{
				"product_code": in.String("product_code"),
				"batch_id":     in.String("batch_id"),
			},
		}, nil
	}
}

// matchMask checks value against a mask where 9 is a digit, A a letter,
// X anything and every other rune must match literally
func matchMask(mask, value string) bool {
	if mask == "" {
		return true
	}
	m, v := []rune(mask), []rune(value)
	if len(m) != len(v) {
		return false
	}
	for i, r := range m {
		switch r {
		case '9':
			if !unicode.IsDigit(v[i]) {
				return false
			}
		case 'A':
			if !unicode.IsLetter(v[i]) {
				return false
			}
		case 'X':
		default:
			if r != v[i] {
				return false
			}
		}
	}
	return true
}
