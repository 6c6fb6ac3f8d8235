package types

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/pkg/enums"
)

// OptionChoice is one selectable choice with the price it adds to the product.
type OptionChoice struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// OptionGroup constrains how choices of one kind (crust, size, extras) are picked.
type OptionGroup struct {
	Name          string              `json:"name"`
	SelectionMode enums.SelectionMode `json:"selection_mode"`
	Required      bool                `json:"required"`
	Choices       []OptionChoice      `json:"choices"`
}

// OptionGroups is stored as a JSON column on products.
type OptionGroups []OptionGroup

// Find returns the group with the given name.
func (g OptionGroups) Find(name string) (OptionGroup, bool) {
	for _, group := range g {
		if group.Name == name {
			return group, true
		}
	}
	return OptionGroup{}, false
}

// Choice returns the named choice within the group.
func (g OptionGroup) Choice(name string) (OptionChoice, bool) {
	for _, choice := range g.Choices {
		if choice.Name == name {
			return choice, true
		}
	}
	return OptionChoice{}, false
}
