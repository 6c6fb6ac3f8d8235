package delivery

import (
	"context"
	"fmt"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads the author-managed region table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context) ([]Region, error)
	ReplaceActive(ctx context.Context, regions []Region) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a region repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListActive returns active regions in match order.
func (r *repository) ListActive(ctx context.Context) ([]Region, error) {
	var rows []models.DeliveryRegion
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC").
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	regions := make([]Region, 0, len(rows))
	for _, row := range rows {
		regions = append(regions, FromModel(row))
	}
	return regions, nil
}

// ReplaceActive makes regions the active rule set in the given order. Rows not listed are
// deactivated, never deleted, and the count of deactivated rows is returned.
func (r *repository) ReplaceActive(ctx context.Context, regions []Region) (int64, error) {
	db := r.db.WithContext(ctx)
	keep := make([]uuid.UUID, 0, len(regions))
	for i, region := range regions {
		if region.ID == uuid.Nil {
			return 0, fmt.Errorf("region %q has no id", region.Name)
		}
		row := models.DeliveryRegion{
			ID:            region.ID,
			Name:          region.Name,
			Fee:           region.Fee,
			ZipRules:      region.ZipRules,
			ZipExclusions: region.ZipExclusions,
			Neighborhoods: region.Neighborhoods,
			Position:      i,
			IsActive:      true,
		}
		err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).Create(&row).Error
		if err != nil {
			return 0, fmt.Errorf("save region %q: %w", region.Name, err)
		}
		keep = append(keep, region.ID)
	}

	query := db.Model(&models.DeliveryRegion{}).Where("is_active = ?", true)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	res := query.Update("is_active", false)
	return res.RowsAffected, res.Error
}

// FromModel maps a persisted region into the resolver shape.
func FromModel(row models.DeliveryRegion) Region {
	return Region{
		ID:            row.ID,
		Name:          row.Name,
		Fee:           row.Fee,
		ZipRules:      row.ZipRules,
		ZipExclusions: row.ZipExclusions,
		Neighborhoods: row.Neighborhoods,
	}
}
