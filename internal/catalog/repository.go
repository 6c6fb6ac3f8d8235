package catalog

import (
	"context"
	"fmt"

	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository reads categories and products. SaveMenu is used by the seed command only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SaveMenu(ctx context.Context, menu Menu) (SaveResult, error)
}

// SaveResult counts what SaveMenu touched.
type SaveResult struct {
	Categories  int
	Products    int
	Deactivated int64
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("position ASC").Order("name ASC")
		}).
		Where("is_active = ?", true).
		Order("position ASC").
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SaveMenu upserts every category and product of menu, taking display order from the
// document, and deactivates rows the document no longer lists. Run it inside a transaction.
func (r *repository) SaveMenu(ctx context.Context, menu Menu) (SaveResult, error) {
	var res SaveResult
	db := r.db.WithContext(ctx)
	upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}

	categoryIDs := make([]uuid.UUID, 0, len(menu.Categories))
	productIDs := []uuid.UUID{}
	for ci, category := range menu.Categories {
		if category.ID == uuid.Nil {
			return res, fmt.Errorf("category %q has no id", category.Name)
		}
		row := models.Category{ID: category.ID, Name: category.Name, Position: ci, IsActive: true}
		if err := db.Clauses(upsert).Omit("Products").Create(&row).Error; err != nil {
			return res, fmt.Errorf("save category %q: %w", category.Name, err)
		}
		categoryIDs = append(categoryIDs, category.ID)
		res.Categories++

		for pi, product := range category.Products {
			if product.ID == uuid.Nil {
				return res, fmt.Errorf("category %q: product %q has no id", category.Name, product.Name)
			}
			row := models.Product{
				ID:           product.ID,
				CategoryID:   category.ID,
				Name:         product.Name,
				Description:  product.Description,
				Code:         product.Code,
				Price:        product.Price,
				OptionGroups: product.OptionGroups,
				Position:     pi,
				IsActive:     true,
			}
			if err := db.Clauses(upsert).Create(&row).Error; err != nil {
				return res, fmt.Errorf("save product %q: %w", product.Name, err)
			}
			productIDs = append(productIDs, product.ID)
			res.Products++
		}
	}

	n, err := deactivateMissing(db, &models.Product{}, productIDs)
	if err != nil {
		return res, fmt.Errorf("deactivate products: %w", err)
	}
	res.Deactivated += n
	if n, err = deactivateMissing(db, &models.Category{}, categoryIDs); err != nil {
		return res, fmt.Errorf("deactivate categories: %w", err)
	}
	res.Deactivated += n
	return res, nil
}

func deactivateMissing(db *gorm.DB, model any, keep []uuid.UUID) (int64, error) {
	query := db.Model(model).Where("is_active = ?", true)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	res := query.Update("is_active", false)
	return res.RowsAffected, res.Error
}
