package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// RunRoutine calls the stored function of the same name with the input as jsonb
// and decodes the jsonb it returns.
func (r *Repository) RunRoutine(ctx context.Context, name string, input RoutineIO) (RoutineIO, error) {
	if !KnownRoutines[name] {
		return nil, &RepositoryError{
			Code:    CodeUnknownRoutine,
			Message: "Unknown routine",
			Detail:  fmt.Sprintf("Routine %q is not registered", name),
		}
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, &RepositoryError{
			Code:    CodeRoutineFailed,
			Message: "Failed to encode routine input",
			Detail:  err.Error(),
		}
	}

	if r.routineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.routineTimeout)
		defer cancel()
	}

	// name is allow-listed above, so formatting it into the statement is safe
	var raw string
	err = r.conn(ctx).Raw(fmt.Sprintf("SELECT %s(?::jsonb)::text", name), string(payload)).Scan(&raw).Error
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &RepositoryError{
				Code:    CodeRoutineTimeout,
				Message: "Routine timed out",
				Detail:  fmt.Sprintf("%s: %v", name, err),
			}
		}
		return nil, &RepositoryError{
			Code:    CodeRoutineFailed,
			Message: "Routine failed",
			Detail:  fmt.Sprintf("%s: %v", name, err),
		}
	}

	out := RoutineIO{}
	if raw == "" || raw == "null" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &RepositoryError{
			Code:    CodeRoutineFailed,
			Message: "Failed to decode routine output",
			Detail:  fmt.Sprintf("%s: %v", name, err),
		}
	}
	return out, nil
}
