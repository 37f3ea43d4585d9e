package repository

import (
	"context"

	"inventory-api/internal/domain"
)

// InventoryRepository exposes persistence operations for Inventory records.
type InventoryRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, item *domain.Inventory) (int64, error)
	Update(ctx context.Context, item *domain.Inventory) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	Get(ctx context.Context, id int64) (*domain.Inventory, error)
	List(ctx context.Context) ([]domain.Inventory, error)
	ListPaged(ctx context.Context, req domain.PageRequest) (domain.Page, error)
	Search(ctx context.Context, name, description string) ([]domain.Inventory, error)
	ListBelowStock(ctx context.Context, threshold int) ([]domain.Inventory, error)
}
