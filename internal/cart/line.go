package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRef is the product data frozen into a line at add time. Later catalog edits never
// reach an existing line.
type ProductRef struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Code      *string         `json:"code,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SelectedOption is one concrete choice picked for a line.
type SelectedOption struct {
	Group  string          `json:"group"`
	Choice string          `json:"choice"`
	Price  decimal.Decimal `json:"price"`
}

// Line is one row of the cart.
type Line struct {
	Product     ProductRef       `json:"product"`
	Quantity    int              `json:"quantity"`
	Observation *string          `json:"observation,omitempty"`
	Options     []SelectedOption `json:"options,omitempty"`
}

// UnitPrice is the per-item price: product price plus every selected option.
func (l Line) UnitPrice() decimal.Decimal {
	total := l.Product.UnitPrice
	for _, opt := range l.Options {
		total = total.Add(opt.Price)
	}
	return total
}

// Total is UnitPrice multiplied by the line quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ObservationText returns the observation or an empty string.
func (l Line) ObservationText() string {
	if l.Observation == nil {
		return ""
	}
	return *l.Observation
}

// NormalizeObservation trims the text and maps blank input to absent.
func NormalizeObservation(text string) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// mergesWith reports whether an addition collapses into l: same product, same trimmed
// observation and the same set of selected options regardless of pick order.
func (l Line) mergesWith(productID uuid.UUID, observation *string, options []SelectedOption) bool {
	if l.Product.ID != productID {
		return false
	}
	if (l.Observation == nil) != (observation == nil) {
		return false
	}
	if observation != nil && *l.Observation != *observation {
		return false
	}
	if len(l.Options) != len(options) {
		return false
	}
	mine, theirs := canonicalOptions(l.Options), canonicalOptions(options)
	for i := range mine {
		if mine[i].Group != theirs[i].Group || mine[i].Choice != theirs[i].Choice {
			return false
		}
	}
	return true
}

func canonicalOptions(options []SelectedOption) []SelectedOption {
	sorted := make([]SelectedOption, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Group != sorted[j].Group {
			return sorted[i].Group < sorted[j].Group
		}
		return sorted[i].Choice < sorted[j].Choice
	})
	return sorted
}

func cloneLine(l Line) Line {
	out := l
	if l.Observation != nil {
		obs := *l.Observation
		out.Observation = &obs
	}
	if l.Product.Code != nil {
		code := *l.Product.Code
		out.Product.Code = &code
	}
	if l.Options != nil {
		out.Options = make([]SelectedOption, len(l.Options))
		copy(out.Options, l.Options)
	}
	return out
}
