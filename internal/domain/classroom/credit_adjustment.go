package classroom

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreditAdjustment is an immutable audit record of a manual change to an
// enrollment's total credits.
type CreditAdjustment struct {
	id             string
	enrollmentID   string
	amount         int
	adjustmentType AdjustmentType
	reason         string
	adjustedBy     string
	adjustedAt     time.Time
	previousTotal  int
	newTotal       int
}

// NewCreditAdjustmentParams describes an adjustment about to be applied.
type NewCreditAdjustmentParams struct {
	EnrollmentID  string
	Amount        int
	Type          AdjustmentType
	Reason        string
	AdjustedBy    string
	PreviousTotal int
}

// CreditAdjustmentSnapshot is the persisted form of a CreditAdjustment.
type CreditAdjustmentSnapshot struct {
	ID            string
	EnrollmentID  string
	Amount        int
	Type          AdjustmentType
	Reason        string
	AdjustedBy    string
	AdjustedAt    time.Time
	PreviousTotal int
	NewTotal      int
}

// NewCreditAdjustment validates and records an adjustment with newTotal = previousTotal + amount.
func NewCreditAdjustment(p NewCreditAdjustmentParams) (*CreditAdjustment, error) {
	const op = "NewCreditAdjustment"
	if p.EnrollmentID == "" {
		return nil, newError(op, ErrInvalidInput, "enrollment id is required")
	}
	if !p.Type.IsValid() {
		return nil, newError(op, ErrInvalidInput, fmt.Sprintf("unknown adjustment type %q", p.Type))
	}
	if !p.Type.acceptsAmount(p.Amount) {
		return nil, newError(op, ErrInvalidInput, fmt.Sprintf("amount %d is not valid for %s adjustment", p.Amount, p.Type))
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return nil, newError(op, ErrInvalidInput, "reason is required")
	}
	adjustedBy := strings.TrimSpace(p.AdjustedBy)
	if adjustedBy == "" {
		return nil, newError(op, ErrInvalidInput, "adjusted by is required")
	}
	if p.PreviousTotal < 0 {
		return nil, newError(op, ErrInvalidInput, "previous total cannot be negative")
	}
	return &CreditAdjustment{
		id:             uuid.NewString(),
		enrollmentID:   p.EnrollmentID,
		amount:         p.Amount,
		adjustmentType: p.Type,
		reason:         reason,
		adjustedBy:     adjustedBy,
		adjustedAt:     nowFunc(),
		previousTotal:  p.PreviousTotal,
		newTotal:       p.PreviousTotal + p.Amount,
	}, nil
}

// RestoreCreditAdjustment rebuilds an adjustment from storage.
func RestoreCreditAdjustment(s CreditAdjustmentSnapshot) (*CreditAdjustment, error) {
	if s.ID == "" || s.EnrollmentID == "" {
		return nil, newError("RestoreCreditAdjustment", ErrInvalidInput, "adjustment id and enrollment id are required")
	}
	if !s.Type.IsValid() {
		return nil, newError("RestoreCreditAdjustment", ErrInvalidInput, fmt.Sprintf("unknown adjustment type %q", s.Type))
	}
	if s.NewTotal != s.PreviousTotal+s.Amount {
		return nil, newError("RestoreCreditAdjustment", ErrInvalidInput,
			fmt.Sprintf("new total %d does not equal %d%+d", s.NewTotal, s.PreviousTotal, s.Amount))
	}
	return &CreditAdjustment{
		id:             s.ID,
		enrollmentID:   s.EnrollmentID,
		amount:         s.Amount,
		adjustmentType: s.Type,
		reason:         s.Reason,
		adjustedBy:     s.AdjustedBy,
		adjustedAt:     s.AdjustedAt,
		previousTotal:  s.PreviousTotal,
		newTotal:       s.NewTotal,
	}, nil
}

// Snapshot returns the persisted form.
func (c *CreditAdjustment) Snapshot() CreditAdjustmentSnapshot {
	return CreditAdjustmentSnapshot{
		ID:            c.id,
		EnrollmentID:  c.enrollmentID,
		Amount:        c.amount,
		Type:          c.adjustmentType,
		Reason:        c.reason,
		AdjustedBy:    c.adjustedBy,
		AdjustedAt:    c.adjustedAt,
		PreviousTotal: c.previousTotal,
		NewTotal:      c.newTotal,
	}
}

func (c *CreditAdjustment) ID() string            { return c.id }
func (c *CreditAdjustment) EnrollmentID() string  { return c.enrollmentID }
func (c *CreditAdjustment) Amount() int           { return c.amount }
func (c *CreditAdjustment) Type() AdjustmentType  { return c.adjustmentType }
func (c *CreditAdjustment) Reason() string        { return c.reason }
func (c *CreditAdjustment) AdjustedBy() string    { return c.adjustedBy }
func (c *CreditAdjustment) AdjustedAt() time.Time { return c.adjustedAt }
func (c *CreditAdjustment) PreviousTotal() int    { return c.previousTotal }
func (c *CreditAdjustment) NewTotal() int         { return c.newTotal }
