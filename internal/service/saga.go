package service

import (
	"context"
	"fmt"
)

// sagaStep is one forward action with an optional compensation that
// undoes it if a later step fails.
type sagaStep struct {
	name       string
	run        func(context.Context) error
	compensate func(context.Context) error
}

// CompensationError reports the most severe failure mode: a step failed
// and undoing an earlier step failed too, so the two external systems may
// be left inconsistent and manual cleanup may be required. Both causes
// stay visible.
type CompensationError struct {
	Step            string
	Cause           error
	CompensationErr error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf(
		"step failed (%v) and compensating %q failed too (%v); manual cleanup may be required",
		e.Cause, e.Step, e.CompensationErr,
	)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.Cause, e.CompensationErr}
}

// runSaga executes steps strictly in order. On the first failure it walks
// backward through the completed steps' compensations, then returns the
// failing step's error — or a CompensationError if a compensation also
// failed.
func runSaga(ctx context.Context, steps []sagaStep) error {
	for i, step := range steps {
		err := step.run(ctx)
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate == nil {
				continue
			}
			if compErr := steps[j].compensate(ctx); compErr != nil {
				return &CompensationError{
					Step:            steps[j].name,
					Cause:           err,
					CompensationErr: compErr,
				}
			}
		}
		return err
	}
	return nil
}
