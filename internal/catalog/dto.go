package catalog

import (
	"github.com/angelmondragon/forno-backend/internal/cart"
	"github.com/angelmondragon/forno-backend/pkg/db/models"
	"github.com/angelmondragon/forno-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the customer-facing view of a menu entry.
type ProductDTO struct {
	ID           uuid.UUID          `json:"id"`
	CategoryID   uuid.UUID          `json:"category_id"`
	Name         string             `json:"name"`
	Description  *string            `json:"description,omitempty"`
	Code         *string            `json:"code,omitempty"`
	Price        decimal.Decimal    `json:"price"`
	OptionGroups types.OptionGroups `json:"option_groups,omitempty"`
}

// CategoryDTO lists the products of one category in display order.
type CategoryDTO struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Products []ProductDTO `json:"products"`
}

// Menu is the full catalog payload.
type Menu struct {
	Categories []CategoryDTO `json:"categories"`
}

// Ref freezes the product into the shape stored on cart lines.
func (p ProductDTO) Ref() cart.ProductRef {
	ref := cart.ProductRef{ID: p.ID, Name: p.Name, UnitPrice: p.Price}
	if p.Code != nil {
		code := *p.Code
		ref.Code = &code
	}
	return ref
}

// FromProductModel maps a persisted product.
func FromProductModel(m models.Product) ProductDTO {
	return ProductDTO{
		ID:           m.ID,
		CategoryID:   m.CategoryID,
		Name:         m.Name,
		Description:  m.Description,
		Code:         m.Code,
		Price:        m.Price,
		OptionGroups: m.OptionGroups,
	}
}

// FromCategoryModel maps a category and its preloaded products.
func FromCategoryModel(m models.Category) CategoryDTO {
	out := CategoryDTO{ID: m.ID, Name: m.Name, Products: make([]ProductDTO, 0, len(m.Products))}
	for _, p := range m.Products {
		out.Products = append(out.Products, FromProductModel(p))
	}
	return out
}
