package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/pkg/enums"
	"github.com/angelmondragon/forno-backend/pkg/types"
)

// Order is the auxiliary record written once per successful checkout. Status transitions
// after creation belong to the fulfillment workflow.
type Order struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID     *string                `gorm:"column:session_id"`
	CustomerName  string                 `gorm:"column:customer_name;not null"`
	CustomerPhone *string                `gorm:"column:customer_phone"`
	DeliveryMode  enums.DeliveryMode     `gorm:"column:delivery_mode;type:text;not null"`
	Address       *types.DeliveryAddress `gorm:"column:address;type:jsonb;serializer:json"`
	RegionName    *string                `gorm:"column:region_name"`
	PaymentMethod enums.PaymentMethod    `gorm:"column:payment_method;type:text;not null"`
	ChangeFor     decimal.NullDecimal    `gorm:"column:change_for;type:numeric(10,2)"`
	Subtotal      decimal.Decimal        `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount      decimal.Decimal        `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	DeliveryFee   decimal.Decimal        `gorm:"column:delivery_fee;type:numeric(10,2);not null;default:0"`
	Total         decimal.Decimal        `gorm:"column:total;type:numeric(10,2);not null"`
	CouponCode    *string                `gorm:"column:coupon_code"`
	CouponPercent decimal.NullDecimal    `gorm:"column:coupon_percent;type:numeric(5,2)"`
	Items         types.OrderLines       `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Status        enums.OrderStatus      `gorm:"column:status;type:text;not null;default:'pending'"`
	NeedsReview   bool                   `gorm:"column:needs_review;not null;default:false"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
