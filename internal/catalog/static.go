package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/google/uuid"
)

type staticService struct {
	menu     Menu
	products map[uuid.UUID]ProductDTO
}

// LoadMenuFile reads a menu JSON document for running without a database.
func LoadMenuFile(path string) (Service, error) {
	menu, err := ReadMenuFile(path)
	if err != nil {
		return nil, err
	}
	return NewStaticService(menu)
}

// ReadMenuFile decodes a menu document without building a service.
func ReadMenuFile(path string) (Menu, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Menu{}, fmt.Errorf("read menu file: %w", err)
	}
	var menu Menu
	if err := json.Unmarshal(raw, &menu); err != nil {
		return Menu{}, fmt.Errorf("decode menu: %w", err)
	}
	if _, err := NewStaticService(menu); err != nil {
		return Menu{}, err
	}
	return menu, nil
}

// NewStaticService serves a fixed menu. Product ids must be unique.
func NewStaticService(menu Menu) (Service, error) {
	products := map[uuid.UUID]ProductDTO{}
	for ci := range menu.Categories {
		category := &menu.Categories[ci]
		for pi := range category.Products {
			p := &category.Products[pi]
			if p.ID == uuid.Nil {
				return nil, fmt.Errorf("category %q: product %q has no id", category.Name, p.Name)
			}
			if _, dup := products[p.ID]; dup {
				return nil, fmt.Errorf("duplicate product id %s", p.ID)
			}
			if p.Price.IsNegative() {
				return nil, fmt.Errorf("product %q: price must not be negative", p.Name)
			}
			p.CategoryID = category.ID
			products[p.ID] = *p
		}
	}
	return &staticService{menu: menu, products: products}, nil
}

func (s *staticService) Menu(context.Context) (*Menu, error) {
	out := Menu{Categories: append([]CategoryDTO(nil), s.menu.Categories...)}
	return &out, nil
}

func (s *staticService) Product(_ context.Context, id uuid.UUID) (*ProductDTO, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}
