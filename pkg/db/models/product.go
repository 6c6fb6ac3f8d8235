package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/forno-backend/pkg/types"
)

// Product is a menu entry. Prices are stored as numeric(10,2).
type Product struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID   uuid.UUID          `gorm:"column:category_id;type:uuid;not null"`
	Name         string             `gorm:"column:name;not null"`
	Description  *string            `gorm:"column:description"`
	Code         *string            `gorm:"column:code"`
	Price        decimal.Decimal    `gorm:"column:price;type:numeric(10,2);not null"`
	OptionGroups types.OptionGroups `gorm:"column:option_groups;type:jsonb;serializer:json"`
	Position     int                `gorm:"column:position;not null;default:0"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
