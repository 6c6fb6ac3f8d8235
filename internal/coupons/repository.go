package coupons

import (
	"context"
	"errors"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the coupons table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Lookup
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Fetch matches codes case-insensitively. Inactive rows are returned so the validator owns
// the decision.
func (r *repository) Fetch(ctx context.Context, code string) (*Record, error) {
	var row models.Coupon
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = ?", NormalizeCode(code)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Record{Code: NormalizeCode(row.Code), DiscountPercent: row.DiscountPercent, Active: row.IsActive}, nil
}
