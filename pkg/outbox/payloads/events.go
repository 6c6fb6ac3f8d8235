package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/pkg/enums"
)

// OrderPlacedEvent announces a persisted order to the kitchen and delivery consumers.
type OrderPlacedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	CustomerName  string              `json:"customer_name"`
	DeliveryMode  enums.DeliveryMode  `json:"delivery_mode"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	RegionName    *string             `json:"region_name,omitempty"`
	ChangeFor     *decimal.Decimal    `json:"change_for,omitempty"`
	Total         decimal.Decimal     `json:"total"`
	ItemCount     int                 `json:"item_count"`
	NeedsReview   bool                `json:"needs_review"`
	PlacedAt      time.Time           `json:"placed_at"`
}
