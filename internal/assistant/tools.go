package assistant

import (
	"github.com/angelmondragon/forno-backend/internal/catalog"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Tool names exposed to the conversational front-end.
const (
	ToolQuoteDelivery  = "quote_delivery"
	ToolValidateCoupon = "validate_coupon"
	ToolPriceCart      = "price_cart"
	ToolAddToCart      = "add_to_cart"
	ToolPlaceOrder     = "place_order"
)

// Tools lists every supported tool in a stable order.
func Tools() []string {
	return []string{ToolQuoteDelivery, ToolValidateCoupon, ToolPriceCart, ToolAddToCart, ToolPlaceOrder}
}

type QuoteDeliveryArgs struct {
	PostalCode   string `json:"postal_code" validate:"required_without=Neighborhood,max=16"`
	Neighborhood string `json:"neighborhood" validate:"max=120"`
}

type QuoteDeliveryResult struct {
	Available bool   `json:"available"`
	Region    string `json:"region,omitempty"`
	Fee       string `json:"fee,omitempty"`
	Message   string `json:"message"`
}

type ValidateCouponArgs struct {
	Code string `json:"code" validate:"required,max=32"`
}

// Coupon statuses.
const (
	CouponApplied     = "applied"
	CouponInvalid     = "invalid"
	CouponUnavailable = "unavailable"
)

type ValidateCouponResult struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Percent string `json:"percent,omitempty"`
	Message string `json:"message"`
}

type PriceCartResult struct {
	Items       int    `json:"items"`
	Subtotal    string `json:"subtotal"`
	Discount    string `json:"discount"`
	Delivery    string `json:"delivery"`
	Total       string `json:"total"`
	FeeResolved bool   `json:"fee_resolved"`
	Summary     string `json:"summary"`
}

type AddToCartArgs struct {
	ProductID   string         `json:"product_id" validate:"required,uuid"`
	Quantity    int            `json:"quantity" validate:"required,min=1,max=50"`
	Observation string         `json:"observation" validate:"max=200"`
	Options     []catalog.Pick `json:"options" validate:"dive"`
}

type AddToCartResult struct {
	LineIndex int    `json:"line_index"`
	Items     int    `json:"items"`
	Subtotal  string `json:"subtotal"`
}

type AddressArgs struct {
	PostalCode string  `json:"postal_code" validate:"max=16"`
	Street     string  `json:"street" validate:"max=160"`
	Number     string  `json:"number" validate:"max=20"`
	District   string  `json:"district" validate:"max=120"`
	City       string  `json:"city" validate:"max=120"`
	Complement *string `json:"complement" validate:"omitempty,max=120"`
}

type PlaceOrderArgs struct {
	CustomerName  string           `json:"customer_name" validate:"required,notblank,max=120"`
	CustomerPhone string           `json:"customer_phone" validate:"max=32"`
	Mode          string           `json:"mode" validate:"required,oneof=delivery pickup"`
	Address       *AddressArgs     `json:"address"`
	Payment       string           `json:"payment_method" validate:"required"`
	ChangeFor     *decimal.Decimal `json:"change_for"`
}

type PlaceOrderResult struct {
	Reference  string `json:"reference"`
	Persisted  bool   `json:"persisted"`
	Total      string `json:"total"`
	Transcript string `json:"transcript"`
	HandoffURL string `json:"handoff_url,omitempty"`
}

func (a AddressArgs) toDeliveryAddress() types.DeliveryAddress {
	return types.DeliveryAddress{
		PostalCode: a.PostalCode,
		Street:     a.Street,
		Number:     a.Number,
		District:   a.District,
		City:       a.City,
		Complement: a.Complement,
	}
}

func (a PlaceOrderArgs) mode() enums.DeliveryMode {
	return enums.DeliveryMode(a.Mode)
}
