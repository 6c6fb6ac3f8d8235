package catalog

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/types"
)

const optionsField = "options"

// Pick is one requested (group, choice) pair, in the order the customer tapped it.
type Pick struct {
	Group  string `json:"group" validate:"required"`
	Choice string `json:"choice" validate:"required"`
}

// ResolveSelections turns picks into priced selections. Single groups keep the first pick,
// multiple groups toggle (a repeated pick deselects), and required groups must end with at
// least one selection. Output follows the product's group order.
func ResolveSelections(groups types.OptionGroups, picks []Pick) ([]cart.SelectedOption, error) {
	chosen := make(map[string][]types.OptionChoice, len(groups))

	for _, pick := range picks {
		groupName := strings.TrimSpace(pick.Group)
		choiceName := strings.TrimSpace(pick.Choice)

		group, ok := groups.Find(groupName)
		if !ok {
			return nil, pkgerrors.Field(optionsField, fmt.Sprintf("unknown option group %q", groupName))
		}
		choice, ok := group.Choice(choiceName)
		if !ok {
			return nil, pkgerrors.Field(optionsField, fmt.Sprintf("unknown choice %q in %s", choiceName, group.Name))
		}

		current := chosen[group.Name]
		switch group.SelectionMode {
		case enums.SelectionModeMultiple:
			chosen[group.Name] = toggle(current, choice)
		default:
			if len(current) == 0 {
				chosen[group.Name] = []types.OptionChoice{choice}
			}
		}
	}

	var out []cart.SelectedOption
	for _, group := range groups {
		selected := chosen[group.Name]
		if group.Required && len(selected) == 0 {
			return nil, pkgerrors.Field(optionsField, fmt.Sprintf("%s is required", group.Name))
		}
		for _, choice := range selected {
			out = append(out, cart.SelectedOption{Group: group.Name, Choice: choice.Name, Price: choice.Price})
		}
	}
	return out, nil
}

func toggle(current []types.OptionChoice, choice types.OptionChoice) []types.OptionChoice {
	for i, existing := range current {
		if existing.Name == choice.Name {
			return append(current[:i:i], current[i+1:]...)
		}
	}
	return append(current, choice)
}
