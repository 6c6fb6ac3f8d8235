package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const codeField = "coupon_code"

var (
	// ErrCouponInvalid covers unknown, inactive and malformed coupons alike.
	ErrCouponInvalid = errors.New("coupon invalid")
	// ErrCouponUnavailable means the registry could not be consulted; the caller may retry.
	ErrCouponUnavailable = errors.New("coupon validation unavailable")

	hundred = decimal.NewFromInt(100)
)

// Record is what a registry returns for a code.
type Record struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Active          bool            `json:"active"`
}

// Coupon is a validated, applicable discount.
type Coupon struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
}

// Lookup fetches a coupon by normalized code. A nil record with nil error means the code
// does not exist.
type Lookup interface {
	Fetch(ctx context.Context, code string) (*Record, error)
}

// Validator checks codes against a registry.
type Validator struct {
	lookup Lookup
}

// NewValidator wires a validator over the given registry.
func NewValidator(lookup Lookup) (*Validator, error) {
	if lookup == nil {
		return nil, fmt.Errorf("coupon lookup required")
	}
	return &Validator{lookup: lookup}, nil
}

// NormalizeCode trims and upper-cases a code.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate resolves raw into an applicable coupon. Failures wrap ErrCouponInvalid
// (CodeValidation) or ErrCouponUnavailable (CodeDependency).
func (v *Validator) Validate(ctx context.Context, raw string) (Coupon, error) {
	code := NormalizeCode(raw)
	if code == "" {
		return Coupon{}, pkgerrors.Field(codeField, "is required")
	}

	record, err := v.lookup.Fetch(ctx, code)
	if err != nil {
		return Coupon{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("%w: %v", ErrCouponUnavailable, err), "não foi possível validar o cupom agora").
			WithDetails(pkgerrors.FieldError{Field: codeField, Reason: "validation unavailable, try again"})
	}
	if record == nil || !record.Active || !validPercent(record.DiscountPercent) {
		return Coupon{}, invalid()
	}
	return Coupon{Code: code, Percent: record.DiscountPercent}, nil
}

func validPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}

func invalid() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrCouponInvalid, "cupom inválido").
		WithDetails(pkgerrors.FieldError{Field: codeField, Reason: "invalid"})
}

// IsInvalid reports whether err means the coupon must not be applied.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrCouponInvalid)
}

// IsUnavailable reports whether err means the registry could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrCouponUnavailable)
}
