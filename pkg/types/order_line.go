package types

import "github.com/shopspring/decimal"

// OrderOption is a selected option frozen into an order.
type OrderOption struct {
	Group  string          `json:"group"`
	Choice string          `json:"choice"`
	Price  decimal.Decimal `json:"price"`
}

// OrderLine is a cart line frozen into an order.
type OrderLine struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Code        *string         `json:"code,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Observation *string         `json:"observation,omitempty"`
	Options     []OrderOption   `json:"options,omitempty"`
}

// OrderLines is stored as a JSON column on orders.
type OrderLines []OrderLine
