package enums

import "fmt"

// SelectionMode controls how many choices of an option group may be picked.
type SelectionMode string

const (
	SelectionModeSingle   SelectionMode = "single"
	SelectionModeMultiple SelectionMode = "multiple"
)

// String implements fmt.Stringer.
func (s SelectionMode) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SelectionMode.
func (s SelectionMode) IsValid() bool {
	return s == SelectionModeSingle || s == SelectionModeMultiple
}

// ParseSelectionMode converts raw input into a SelectionMode. Empty input defaults to single.
func ParseSelectionMode(value string) (SelectionMode, error) {
	switch value {
	case "", string(SelectionModeSingle):
		return SelectionModeSingle, nil
	case string(SelectionModeMultiple):
		return SelectionModeMultiple, nil
	}
	return "", fmt.Errorf("invalid selection mode %q", value)
}
