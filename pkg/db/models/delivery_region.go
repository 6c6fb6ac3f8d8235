package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryRegion stores one fee zone. Position defines the author-significant match order.
type DeliveryRegion struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Fee           decimal.Decimal `gorm:"column:fee;type:numeric(10,2);not null;default:0"`
	ZipRules      []string        `gorm:"column:zip_rules;type:jsonb;serializer:json"`
	ZipExclusions []string        `gorm:"column:zip_exclusions;type:jsonb;serializer:json"`
	Neighborhoods []string        `gorm:"column:neighborhoods;type:jsonb;serializer:json"`
	Position      int             `gorm:"column:position;not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (DeliveryRegion) TableName() string { return "delivery_regions" }
