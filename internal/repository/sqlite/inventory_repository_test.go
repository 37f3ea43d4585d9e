package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"
)

func newTestRepository(t *testing.T) repository.InventoryRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewInventoryRepository(db)
	require.NoError(t, repo.Init(context.Background()))
	// Init is idempotent.
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func seed(t *testing.T, repo repository.InventoryRepository, items ...domain.Inventory) []domain.Inventory {
	t.Helper()
	var out []domain.Inventory
	for i := range items {
		item := items[i]
		_, err := repo.Create(context.Background(), &item)
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func item(name, description, price string, stock int) domain.Inventory {
	return domain.Inventory{
		Name:          name,
		Description:   description,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
	}
}

func TestInventoryRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	laptop := item("Laptop", "Dell XPS", "1200.00", 10)
	id, err := repo.Create(ctx, &laptop)
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Equal(t, id, laptop.ID)
	assert.False(t, laptop.CreatedAt.IsZero())

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, laptop.ID, got.ID)
	assert.Equal(t, "Laptop", got.Name)
	assert.Equal(t, "Dell XPS", got.Description)
	assert.True(t, decimal.RequireFromString("1200").Equal(got.Price))
	assert.Equal(t, "1200.00", got.Price.StringFixed(2))
	assert.Equal(t, 10, got.StockQuantity)

	_, err = repo.Get(ctx, id+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryRepository_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	items := seed(t, repo, item("Keyboard", "Mechanical Keyboard", "150.00", 30))

	kb := items[0]
	kb.Price = decimal.RequireFromString("100.00")
	kb.StockQuantity = 40
	require.NoError(t, repo.Update(ctx, &kb))

	got, err := repo.Get(ctx, kb.ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.Price.StringFixed(2))
	assert.Equal(t, 40, got.StockQuantity)

	missing := kb
	missing.ID = kb.ID + 1
	assert.ErrorIs(t, repo.Update(ctx, &missing), domain.ErrNotFound)

	exists, err := repo.Exists(ctx, kb.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Delete(ctx, kb.ID))
	exists, err = repo.Exists(ctx, kb.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, repo.Delete(ctx, kb.ID), domain.ErrNotFound)
}

func TestInventoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	seed(t, repo,
		item("Laptop", "Dell XPS", "1200.00", 10),
		item("Mouse", "Logitech", "25.00", 100),
	)
	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Laptop", items[0].Name)
	assert.Equal(t, "Mouse", items[1].Name)
}

func TestInventoryRepository_ListPaged(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	seed(t, repo,
		item("Keyboard", "Mechanical Keyboard", "150.00", 30),
		item("Monitor", "Dell Monitor", "300.00", 15),
		item("Chair", "Gaming Chair", "250.00", 5),
	)

	testCases := []struct {
		description string
		req         domain.PageRequest
		expectNames []string
	}{
		{
			description: "first page by name",
			req:         domain.PageRequest{Page: 0, Size: 2, SortBy: domain.SortByName, Direction: domain.SortAsc},
			expectNames: []string{"Chair", "Keyboard"},
		},
		{
			description: "second page by name",
			req:         domain.PageRequest{Page: 1, Size: 2, SortBy: domain.SortByName, Direction: domain.SortAsc},
			expectNames: []string{"Monitor"},
		},
		{
			description: "price descending",
			req:         domain.PageRequest{Page: 0, Size: 3, SortBy: domain.SortByPrice, Direction: domain.SortDesc},
			expectNames: []string{"Monitor", "Chair", "Keyboard"},
		},
		{
			description: "stock ascending",
			req:         domain.PageRequest{Page: 0, Size: 3, SortBy: domain.SortByStockQuantity, Direction: domain.SortAsc},
			expectNames: []string{"Chair", "Monitor", "Keyboard"},
		},
		{
			description: "past the end",
			req:         domain.PageRequest{Page: 5, Size: 2, SortBy: domain.SortByID, Direction: domain.SortAsc},
			expectNames: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			page, err := repo.ListPaged(ctx, tc.req)
			require.NoError(t, err)
			assert.EqualValues(t, 3, page.TotalElements)
			assert.Equal(t, tc.req.Page, page.Page)
			assert.Equal(t, tc.req.Size, page.Size)
			names := make([]string, 0, len(page.Content))
			for _, it := range page.Content {
				names = append(names, it.Name)
			}
			assert.Equal(t, tc.expectNames, names)
		})
	}

	_, err := repo.ListPaged(ctx, domain.PageRequest{Size: 1, SortBy: "password"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestInventoryRepository_Search(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	seed(t, repo,
		item("Laptop", "Dell XPS Laptop", "1200.00", 10),
		item("Smartphone", "Apple iPhone", "999.99", 5),
		item("Discount", "100% cotton", "5.00", 1),
	)

	testCases := []struct {
		description string
		name        string
		desc        string
		expectNames []string
	}{
		{description: "name match", name: "Laptop", desc: "Laptop", expectNames: []string{"Laptop"}},
		{description: "description match", name: "Apple", desc: "Apple", expectNames: []string{"Smartphone"}},
		{description: "case insensitive", name: "laptop", desc: "laptop", expectNames: []string{"Laptop"}},
		{description: "percent is literal", name: "%", desc: "%", expectNames: []string{"Discount"}},
		{description: "underscore is literal", name: "_", desc: "_", expectNames: nil},
		{description: "no match", name: "Tablet", desc: "Tablet", expectNames: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			items, err := repo.Search(ctx, tc.name, tc.desc)
			require.NoError(t, err)
			var names []string
			for _, it := range items {
				names = append(names, it.Name)
			}
			assert.Equal(t, tc.expectNames, names)
		})
	}
}

func TestInventoryRepository_ListBelowStock(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	seed(t, repo,
		item("Laptop", "", "1200.00", 10),
		item("Mouse", "", "25.00", 3),
		item("Cable", "", "5.00", 0),
		item("Chair", "", "250.00", 5),
	)

	items, err := repo.ListBelowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Cable", items[0].Name)
	assert.Equal(t, "Mouse", items[1].Name)

	items, err = repo.ListBelowStock(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}
