package cart

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
)

// QuantityOutcome reports what UpdateQuantity did.
type QuantityOutcome string

const (
	QuantityUpdated QuantityOutcome = "updated"
	// RequiresConfirmation means the caller asked for a quantity below one. Nothing changed;
	// the presentation layer decides whether to call RemoveLine.
	RequiresConfirmation QuantityOutcome = "requires_confirmation"
)

// Cart holds the ordered lines of one checkout session. It is not safe for concurrent use;
// the owning session serializes access.
type Cart struct {
	lines []Line
}

// Snapshot is the serializable form of a Cart.
type Snapshot struct {
	Lines []Line `json:"lines"`
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Restore rebuilds a cart from a snapshot.
func Restore(s Snapshot) *Cart {
	c := &Cart{lines: make([]Line, 0, len(s.Lines))}
	for _, l := range s.Lines {
		c.lines = append(c.lines, cloneLine(l))
	}
	return c
}

// Snapshot returns a deep copy of the cart state.
func (c *Cart) Snapshot() Snapshot {
	return Snapshot{Lines: c.Lines()}
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = cloneLine(l)
	}
	return out
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// AddLine merges into an existing matching line or appends a new one, returning the index
// of the line that was touched.
func (c *Cart) AddLine(product ProductRef, quantity int, observation string, options []SelectedOption) (int, error) {
	if product.ID == uuid.Nil {
		return -1, pkgerrors.Field("product_id", "is required")
	}
	if quantity <= 0 {
		return -1, pkgerrors.Field("quantity", "must be greater than zero")
	}
	if product.UnitPrice.IsNegative() {
		return -1, pkgerrors.Field("unit_price", "must not be negative")
	}
	for _, opt := range options {
		if opt.Price.IsNegative() {
			return -1, pkgerrors.Field("options", fmt.Sprintf("%s price must not be negative", opt.Choice))
		}
	}

	obs := NormalizeObservation(observation)
	for i := range c.lines {
		if c.lines[i].mergesWith(product.ID, obs, options) {
			c.lines[i].Quantity += quantity
			return i, nil
		}
	}

	line := cloneLine(Line{
		Product:     product,
		Quantity:    quantity,
		Observation: obs,
		Options:     options,
	})
	c.lines = append(c.lines, line)
	return len(c.lines) - 1, nil
}

// UpdateQuantity changes a line quantity. Quantities below one are not applied; the caller
// receives RequiresConfirmation instead.
func (c *Cart) UpdateQuantity(index, quantity int) (QuantityOutcome, error) {
	if err := c.checkIndex(index); err != nil {
		return "", err
	}
	if quantity < 1 {
		return RequiresConfirmation, nil
	}
	c.lines[index].Quantity = quantity
	return QuantityUpdated, nil
}

// SetQuantity changes a line quantity without confirmation; below one removes the line.
func (c *Cart) SetQuantity(index, quantity int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	if quantity < 1 {
		return c.RemoveLine(index)
	}
	c.lines[index].Quantity = quantity
	return nil
}

// UpdateObservation replaces the free-text note of a line.
func (c *Cart) UpdateObservation(index int, text string) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.lines[index].Observation = NormalizeObservation(text)
	return nil
}

// RemoveLine deletes a line, keeping the order of the remaining ones.
func (c *Cart) RemoveLine(index int) error {
	if err := c.checkIndex(index); err != nil {
		return err
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Subtotal sums every line total.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// ItemCount sums the quantities of all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, l := range c.lines {
		count += l.Quantity
	}
	return count
}

func (c *Cart) checkIndex(index int) error {
	if index < 0 || index >= len(c.lines) {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("cart line %d not found", index))
	}
	return nil
}
