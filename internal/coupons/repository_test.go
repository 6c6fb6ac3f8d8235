package coupons

import (
	"context"
	"testing"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:coupons?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`DROP TABLE IF EXISTS coupons`).Error)
	coupons := `
CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount_percent NUMERIC NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(coupons).Error)
	return db
}

func TestRepositoryFetch(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)

	active := models.Coupon{ID: uuid.New(), Code: "teste10", DiscountPercent: decimal.NewFromInt(10), IsActive: true}
	disabled := models.Coupon{ID: uuid.New(), Code: "VELHO", DiscountPercent: decimal.NewFromInt(30), IsActive: true}
	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&disabled).Error)
	require.NoError(t, db.Model(&models.Coupon{}).Where("id = ?", disabled.ID).Update("is_active", false).Error)

	record, err := repo.Fetch(context.Background(), "TESTE10")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "TESTE10", record.Code)
	assert.True(t, record.Active)
	assert.True(t, record.DiscountPercent.Equal(decimal.NewFromInt(10)))

	record, err = repo.Fetch(context.Background(), "velho")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.False(t, record.Active)

	record, err = repo.Fetch(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRepositoryBackedValidatorTESTE10(t *testing.T) {
	db := setupCouponsTestDB(t)
	require.NoError(t, db.Create(&models.Coupon{ID: uuid.New(), Code: "TESTE10", DiscountPercent: decimal.NewFromInt(10), IsActive: true}).Error)

	v, err := NewValidator(NewRepository(db))
	require.NoError(t, err)

	coupon, err := v.Validate(context.Background(), "teste10")
	require.NoError(t, err)
	assert.Equal(t, "TESTE10", coupon.Code)
}
