package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"inventory-api/internal/domain"
	"inventory-api/internal/repository"
)

const createInventoryTable = `
CREATE TABLE IF NOT EXISTS inventory (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price TEXT NOT NULL DEFAULT '0.00',
	stock_quantity INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inventory_stock_quantity ON inventory(stock_quantity);
`

const selectInventory = `
SELECT id, name, description, price, stock_quantity, created_at, updated_at
FROM inventory`

// sortColumns maps public sort fields to ORDER BY expressions.
var sortColumns = map[string]string{
	domain.SortByID:            "id",
	domain.SortByName:          "name",
	domain.SortByDescription:   "description",
	domain.SortByPrice:         "CAST(price AS REAL)",
	domain.SortByStockQuantity: "stock_quantity",
}

type InventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) repository.InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createInventoryTable); err != nil {
		return fmt.Errorf("create inventory table: %w", err)
	}
	return nil
}

func (r *InventoryRepository) Create(ctx context.Context, item *domain.Inventory) (int64, error) {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO inventory (name, description, price, stock_quantity, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		item.Name,
		item.Description,
		formatPrice(item.Price),
		item.StockQuantity,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert inventory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	item.ID = id
	return id, nil
}

func (r *InventoryRepository) Update(ctx context.Context, item *domain.Inventory) error {
	item.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE inventory
SET name=?, description=?, price=?, stock_quantity=?, updated_at=?
WHERE id=?`,
		item.Name,
		item.Description,
		formatPrice(item.Price),
		item.StockQuantity,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory update rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("update inventory %d: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory delete rows affected: %w", err)
	}
	if aff == 0 {
		return fmt.Errorf("delete inventory %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *InventoryRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inventory WHERE id=?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check inventory exists: %w", err)
	}
	return exists, nil
}

func (r *InventoryRepository) Get(ctx context.Context, id int64) (*domain.Inventory, error) {
	row := r.db.QueryRowContext(ctx, selectInventory+`
WHERE id=?`,
		id,
	)
	return scanInventory(row)
}

func (r *InventoryRepository) List(ctx context.Context) ([]domain.Inventory, error) {
	return r.query(ctx, selectInventory+`
ORDER BY id ASC`)
}

func (r *InventoryRepository) ListPaged(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	column, ok := sortColumns[req.SortBy]
	if !ok {
		return domain.Page{}, fmt.Errorf("%w: unsupported sort field %q", domain.ErrInvalidArgument, req.SortBy)
	}
	direction := "ASC"
	if req.Direction == domain.SortDesc {
		direction = "DESC"
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory`).Scan(&total); err != nil {
		return domain.Page{}, fmt.Errorf("count inventory: %w", err)
	}

	// id breaks ties so pages never overlap.
	query := fmt.Sprintf(selectInventory+`
ORDER BY %s %s, id ASC
LIMIT ? OFFSET ?`, column, direction)

	items, err := r.query(ctx, query, req.Size, req.Offset())
	if err != nil {
		return domain.Page{}, err
	}
	if items == nil {
		items = []domain.Inventory{}
	}

	return domain.Page{
		Content:       items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
	}, nil
}

func (r *InventoryRepository) Search(ctx context.Context, name, description string) ([]domain.Inventory, error) {
	return r.query(ctx, selectInventory+`
WHERE name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'
ORDER BY id ASC`,
		likePattern(name),
		likePattern(description),
	)
}

func (r *InventoryRepository) ListBelowStock(ctx context.Context, threshold int) ([]domain.Inventory, error) {
	return r.query(ctx, selectInventory+`
WHERE stock_quantity < ?
ORDER BY stock_quantity ASC, id ASC`,
		threshold,
	)
}

func (r *InventoryRepository) query(ctx context.Context, query string, args ...any) ([]domain.Inventory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.Inventory
	for rows.Next() {
		item, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	return items, rows.Err()
}

func scanInventory(scanner interface {
	Scan(dest ...any) error
}) (*domain.Inventory, error) {
	var (
		item      domain.Inventory
		price     string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := scanner.Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&price,
		&item.StockQuantity,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan inventory: %w", err)
	}

	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	item.Price = parsed
	item.CreatedAt = createdAt.UTC()
	item.UpdatedAt = updatedAt.UTC()

	return &item, nil
}

func formatPrice(price decimal.Decimal) string {
	return price.StringFixed(domain.PriceScale)
}

// likePattern wraps term in % after escaping LIKE metacharacters.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
