package orders

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/forno-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes order status lookups.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error)
	Summaries(ctx context.Context, refs []string) ([]OrderSummary, error)
}

type service struct {
	repo Repository
}

// NewService wires the order lookup service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := FromModel(*order)
	return &dto, nil
}

// Summaries resolves recent order references, keeping the caller's order. References that
// are not persisted identifiers are skipped.
func (s *service) Summaries(ctx context.Context, refs []string) ([]OrderSummary, error) {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		if id, err := uuid.Parse(ref); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []OrderSummary{}, nil
	}

	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load orders")
	}
	byID := make(map[uuid.UUID]OrderSummary, len(rows))
	for _, row := range rows {
		byID[row.ID] = SummaryFromModel(row)
	}

	out := make([]OrderSummary, 0, len(ids))
	for _, id := range ids {
		if summary, ok := byID[id]; ok {
			out = append(out, summary)
		}
	}
	return out, nil
}
