package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/forno-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes read access to the menu.
type Service interface {
	Menu(ctx context.Context) (*Menu, error)
	Product(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
}

type service struct {
	repo Repository
}

// NewService wires the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Menu(ctx context.Context) (*Menu, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	menu := &Menu{Categories: make([]CategoryDTO, 0, len(categories))}
	for _, c := range categories {
		menu.Categories = append(menu.Categories, FromCategoryModel(c))
	}
	return menu, nil
}

func (s *service) Product(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := FromProductModel(*product)
	return &dto, nil
}

// PrepareLine loads a product and prices the requested options, returning what a cart line
// needs. Both the HTTP cart routes and the assistant add lines through here.
func PrepareLine(ctx context.Context, svc Service, productID uuid.UUID, picks []Pick) (cart.ProductRef, []cart.SelectedOption, error) {
	product, err := svc.Product(ctx, productID)
	if err != nil {
		return cart.ProductRef{}, nil, err
	}
	options, err := ResolveSelections(product.OptionGroups, picks)
	if err != nil {
		return cart.ProductRef{}, nil, err
	}
	return product.Ref(), options, nil
}
