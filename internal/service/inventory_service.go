package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"
)

// InventoryService coordinates inventory operations backed by a repository.
type InventoryService interface {
	CreateInventory(ctx context.Context, item domain.Inventory) (*domain.Inventory, error)
	GetInventory(ctx context.Context, id int64) (*domain.Inventory, error)
	ListInventory(ctx context.Context) ([]domain.Inventory, error)
	ListInventoryPaged(ctx context.Context, req domain.PageRequest) (domain.Page, error)
	SearchInventory(ctx context.Context, query string) ([]domain.Inventory, error)
	ListBelowStockThreshold(ctx context.Context, threshold int) ([]domain.Inventory, error)
	UpdateInventory(ctx context.Context, id int64, item domain.Inventory) (*domain.Inventory, error)
	DeleteInventory(ctx context.Context, id int64) error
}

// PageLimits bounds paged listings.
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

type inventoryService struct {
	items  repository.InventoryRepository
	limits PageLimits
}

func NewInventoryService(items repository.InventoryRepository, limits PageLimits) InventoryService {
	if limits.DefaultSize <= 0 {
		limits.DefaultSize = 10
	}
	if limits.MaxSize <= 0 {
		limits.MaxSize = 100
	}
	if limits.DefaultSize > limits.MaxSize {
		limits.DefaultSize = limits.MaxSize
	}
	return &inventoryService{
		items:  items,
		limits: limits,
	}
}

func (s *inventoryService) CreateInventory(ctx context.Context, item domain.Inventory) (*domain.Inventory, error) {
	item.ID = 0
	item.Name = strings.TrimSpace(item.Name)
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.items.Create(ctx, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *inventoryService) GetInventory(ctx context.Context, id int64) (*domain.Inventory, error) {
	if id <= 0 {
		return nil, domain.ErrNotFound
	}
	return s.items.Get(ctx, id)
}

func (s *inventoryService) ListInventory(ctx context.Context) ([]domain.Inventory, error) {
	return s.items.List(ctx)
}

func (s *inventoryService) ListInventoryPaged(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	if req.Size == 0 {
		req.Size = s.limits.DefaultSize
	}
	if req.SortBy == "" {
		req.SortBy = domain.SortByName
	}
	if req.Direction == "" {
		req.Direction = domain.SortAsc
	}
	if err := req.Validate(s.limits.MaxSize); err != nil {
		return domain.Page{}, err
	}
	return s.items.ListPaged(ctx, req)
}

func (s *inventoryService) SearchInventory(ctx context.Context, query string) ([]domain.Inventory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidArgument)
	}
	return s.items.Search(ctx, query, query)
}

func (s *inventoryService) ListBelowStockThreshold(ctx context.Context, threshold int) ([]domain.Inventory, error) {
	return s.items.ListBelowStock(ctx, threshold)
}

func (s *inventoryService) UpdateInventory(ctx context.Context, id int64, item domain.Inventory) (*domain.Inventory, error) {
	existing, err := s.GetInventory(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("inventory %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	item.Name = strings.TrimSpace(item.Name)
	if err := item.Validate(); err != nil {
		return nil, err
	}

	existing.Overwrite(item)
	if err := s.items.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *inventoryService) DeleteInventory(ctx context.Context, id int64) error {
	exists, err := s.items.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: inventory %d does not exist", domain.ErrInvalidArgument, id)
	}
	return s.items.Delete(ctx, id)
}
