package types

import "strings"

// DeliveryAddress is the customer address captured at checkout.
type DeliveryAddress struct {
	PostalCode string  `json:"postal_code"`
	Street     string  `json:"street"`
	Number     string  `json:"number"`
	District   string  `json:"district"`
	City       string  `json:"city"`
	Complement *string `json:"complement,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed and a blank complement dropped.
func (a DeliveryAddress) Trimmed() DeliveryAddress {
	out := DeliveryAddress{
		PostalCode: strings.TrimSpace(a.PostalCode),
		Street:     strings.TrimSpace(a.Street),
		Number:     strings.TrimSpace(a.Number),
		District:   strings.TrimSpace(a.District),
		City:       strings.TrimSpace(a.City),
	}
	if a.Complement != nil {
		if c := strings.TrimSpace(*a.Complement); c != "" {
			out.Complement = &c
		}
	}
	return out
}
