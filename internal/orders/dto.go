package orders

import (
	"time"

	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/internal/pricing"
	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewOrder is the payload of the single persistence call made per checkout.
type NewOrder struct {
	SessionID     string
	CustomerName  string
	CustomerPhone *string
	Mode          enums.DeliveryMode
	Address       *types.DeliveryAddress
	RegionName    *string
	Payment       enums.PaymentMethod
	ChangeFor     *decimal.Decimal
	Quote         pricing.Quote
	Lines         []cart.Line
	NeedsReview   bool
}

// OrderDTO is the read model returned by status lookups.
type OrderDTO struct {
	ID            uuid.UUID              `json:"id"`
	Status        enums.OrderStatus      `json:"status"`
	CustomerName  string                 `json:"customer_name"`
	DeliveryMode  enums.DeliveryMode     `json:"delivery_mode"`
	Address       *types.DeliveryAddress `json:"address,omitempty"`
	RegionName    *string                `json:"region_name,omitempty"`
	PaymentMethod enums.PaymentMethod    `json:"payment_method"`
	Subtotal      decimal.Decimal        `json:"subtotal"`
	Discount      decimal.Decimal        `json:"discount"`
	DeliveryFee   decimal.Decimal        `json:"delivery_fee"`
	Total         decimal.Decimal        `json:"total"`
	CouponCode    *string                `json:"coupon_code,omitempty"`
	Items         types.OrderLines       `json:"items"`
	CreatedAt     time.Time              `json:"created_at"`
}

// OrderSummary is one row of the "my orders" list.
type OrderSummary struct {
	ID        uuid.UUID         `json:"id"`
	Status    enums.OrderStatus `json:"status"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"item_count"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToModel converts the payload into its row, freezing lines into JSON.
func (n NewOrder) ToModel() *models.Order {
	order := &models.Order{
		CustomerName:  n.CustomerName,
		CustomerPhone: n.CustomerPhone,
		DeliveryMode:  n.Mode,
		Address:       n.Address,
		RegionName:    n.RegionName,
		PaymentMethod: n.Payment,
		Subtotal:      n.Quote.Subtotal.Round(2),
		Discount:      n.Quote.Discount.Round(2),
		DeliveryFee:   n.Quote.DeliveryCharge.Round(2),
		Total:         n.Quote.Total.Round(2),
		CouponCode:    n.Quote.CouponCode,
		Items:         FreezeLines(n.Lines),
		Status:        enums.OrderStatusPending,
		NeedsReview:   n.NeedsReview,
	}
	if n.SessionID != "" {
		sid := n.SessionID
		order.SessionID = &sid
	}
	if n.ChangeFor != nil {
		order.ChangeFor = decimal.NewNullDecimal(*n.ChangeFor)
	}
	if n.Quote.CouponPercent != nil {
		order.CouponPercent = decimal.NewNullDecimal(*n.Quote.CouponPercent)
	}
	return order
}

// FreezeLines snapshots cart lines into the stored JSON shape.
func FreezeLines(lines []cart.Line) types.OrderLines {
	out := make(types.OrderLines, 0, len(lines))
	for _, l := range lines {
		frozen := types.OrderLine{
			ProductID:   l.Product.ID.String(),
			Name:        l.Product.Name,
			Code:        l.Product.Code,
			UnitPrice:   l.UnitPrice(),
			Quantity:    l.Quantity,
			LineTotal:   l.Total(),
			Observation: l.Observation,
		}
		for _, opt := range l.Options {
			frozen.Options = append(frozen.Options, types.OrderOption{Group: opt.Group, Choice: opt.Choice, Price: opt.Price})
		}
		out = append(out, frozen)
	}
	return out
}

// FromModel maps a stored order into its read model.
func FromModel(m models.Order) OrderDTO {
	return OrderDTO{
		ID:            m.ID,
		Status:        m.Status,
		CustomerName:  m.CustomerName,
		DeliveryMode:  m.DeliveryMode,
		Address:       m.Address,
		RegionName:    m.RegionName,
		PaymentMethod: m.PaymentMethod,
		Subtotal:      m.Subtotal,
		Discount:      m.Discount,
		DeliveryFee:   m.DeliveryFee,
		Total:         m.Total,
		CouponCode:    m.CouponCode,
		Items:         m.Items,
		CreatedAt:     m.CreatedAt,
	}
}

// SummaryFromModel maps a stored order into a list row.
func SummaryFromModel(m models.Order) OrderSummary {
	count := 0
	for _, item := range m.Items {
		count += item.Quantity
	}
	return OrderSummary{ID: m.ID, Status: m.Status, Total: m.Total, ItemCount: count, CreatedAt: m.CreatedAt}
}

// PlacedEvent builds the outbox payload announcing m.
func PlacedEvent(m models.Order) payloads.OrderPlacedEvent {
	event := payloads.OrderPlacedEvent{
		OrderID:       m.ID,
		CustomerName:  m.CustomerName,
		DeliveryMode:  m.DeliveryMode,
		PaymentMethod: m.PaymentMethod,
		RegionName:    m.RegionName,
		Total:         m.Total,
		ItemCount:     SummaryFromModel(m).ItemCount,
		NeedsReview:   m.NeedsReview,
		PlacedAt:      m.CreatedAt,
	}
	if m.ChangeFor.Valid {
		change := m.ChangeFor.Decimal
		event.ChangeFor = &change
	}
	return event
}
