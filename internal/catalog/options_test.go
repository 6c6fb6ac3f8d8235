package catalog

import (
	"testing"

	"github.com/angelmondragon/forno-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func pizzaGroups() types.OptionGroups {
	return types.OptionGroups{
		{
			Name:          "Tamanho",
			SelectionMode: enums.SelectionModeSingle,
			Required:      true,
			Choices: []types.OptionChoice{
				{Name: "Média", Price: decimal.Zero},
				{Name: "Grande", Price: decimal.RequireFromString("10.00")},
			},
		},
		{
			Name:          "Adicionais",
			SelectionMode: enums.SelectionModeMultiple,
			Choices: []types.OptionChoice{
				{Name: "Bacon", Price: decimal.RequireFromString("5.00")},
				{Name: "Cheddar", Price: decimal.RequireFromString("4.50")},
			},
		},
	}
}

func TestResolveSelectionsSingleFirstPickWins(t *testing.T) {
	t.Parallel()

	got, err := ResolveSelections(pizzaGroups(), []Pick{
		{Group: "Tamanho", Choice: "Grande"},
		{Group: "Tamanho", Choice: "Média"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Choice != "Grande" {
		t.Fatalf("expected only Grande, got %+v", got)
	}
	if !got[0].Price.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("expected choice price to be carried, got %s", got[0].Price)
	}
}

func TestResolveSelectionsMultipleToggles(t *testing.T) {
	t.Parallel()

	got, err := ResolveSelections(pizzaGroups(), []Pick{
		{Group: "Adicionais", Choice: "Bacon"},
		{Group: "Tamanho", Choice: "Média"},
		{Group: "Adicionais", Choice: "Cheddar"},
		{Group: "Adicionais", Choice: "Bacon"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two selections, got %+v", got)
	}
	if got[0].Group != "Tamanho" || got[1].Choice != "Cheddar" {
		t.Fatalf("expected group order with Bacon toggled off, got %+v", got)
	}
}

func TestResolveSelectionsRequiredGroupMissing(t *testing.T) {
	t.Parallel()

	_, err := ResolveSelections(pizzaGroups(), []Pick{{Group: "Adicionais", Choice: "Bacon"}})
	fe, ok := pkgerrors.FieldOf(err)
	if !ok || fe.Field != "options" {
		t.Fatalf("expected options field error, got %v", err)
	}
	if fe.Reason != "Tamanho is required" {
		t.Fatalf("unexpected reason %q", fe.Reason)
	}
}

func TestResolveSelectionsUnknownPick(t *testing.T) {
	t.Parallel()

	cases := []Pick{
		{Group: "Molho", Choice: "Pesto"},
		{Group: "Tamanho", Choice: "Gigante"},
	}
	for _, pick := range cases {
		_, err := ResolveSelections(pizzaGroups(), []Pick{pick})
		if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", pick, err)
		}
	}
}

func TestResolveSelectionsNoGroups(t *testing.T) {
	t.Parallel()

	got, err := ResolveSelections(nil, nil)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected no selections, got %+v (%v)", got, err)
	}
}
