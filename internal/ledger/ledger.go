// Package ledger maintains the per-project raised totals.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrNegativeAmount  = errors.New("negative amount")
)

// Writer applies an additive change to a project's raised total and reports the rows it touched.
type Writer interface {
	AddRaised(ctx context.Context, projectID uuid.UUID, amount decimal.Decimal) (int64, error)
}

// WriteError means an increment could not be applied. The caller's transaction must roll back.
type WriteError struct {
	ProjectID uuid.UUID
	Amount    decimal.Decimal
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ledger write for project %s (%s): %v", e.ProjectID, e.Amount.StringFixed(2), e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Increment adds amount to the project's raised total as a single row-atomic update.
func Increment(ctx context.Context, w Writer, projectID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &WriteError{ProjectID: projectID, Amount: amount, Err: ErrNegativeAmount}
	}

	n, err := w.AddRaised(ctx, projectID, amount)
	if err != nil {
		return &WriteError{ProjectID: projectID, Amount: amount, Err: err}
	}

	if n == 0 {
		return &WriteError{ProjectID: projectID, Amount: amount, Err: ErrProjectNotFound}
	}

	return nil
}
