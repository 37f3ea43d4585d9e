package http

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"inventory-api/internal/domain"
	"inventory-api/internal/exporter"
)

type inventoryRequest struct {
	Name          string           `json:"name" binding:"required"`
	Description   string           `json:"description"`
	Price         *decimal.Decimal `json:"price" binding:"required"`
	StockQuantity int              `json:"stockQuantity"`
}

func (r inventoryRequest) toDomain() domain.Inventory {
	item := domain.Inventory{
		Name:          r.Name,
		Description:   r.Description,
		StockQuantity: r.StockQuantity,
	}
	if r.Price != nil {
		item.Price = *r.Price
	}
	return item
}

type InventoryResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         json.RawMessage `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

type PageResponse struct {
	Content       []InventoryResponse `json:"content"`
	Page          int                 `json:"page"`
	Size          int                 `json:"size"`
	TotalElements int64               `json:"totalElements"`
	TotalPages    int                 `json:"totalPages"`
}

type SnapshotResponse struct {
	Key         string `json:"key"`
	Location    string `json:"location"`
	Items       int    `json:"items"`
	LowStock    int    `json:"lowStock"`
	GeneratedAt string `json:"generatedAt"`
}

type SnapshotObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"lastModified,omitempty"`
	URL          string  `json:"url"`
}

func itemToResponse(item domain.Inventory) InventoryResponse {
	return InventoryResponse{
		ID:            item.ID,
		Name:          item.Name,
		Description:   item.Description,
		Price:         json.RawMessage(item.Price.StringFixed(domain.PriceScale)),
		StockQuantity: item.StockQuantity,
		CreatedAt:     item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.Format(time.RFC3339),
	}
}

func itemsToResponse(items []domain.Inventory) []InventoryResponse {
	resp := make([]InventoryResponse, len(items))
	for i := range items {
		resp[i] = itemToResponse(items[i])
	}
	return resp
}

func pageToResponse(page domain.Page) PageResponse {
	return PageResponse{
		Content:       itemsToResponse(page.Content),
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages(),
	}
}

func snapshotToResponse(snap exporter.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Key:         snap.Key,
		Location:    snap.Location,
		Items:       snap.ItemCount,
		LowStock:    snap.LowStock,
		GeneratedAt: snap.GeneratedAt.Format(time.RFC3339),
	}
}

func snapshotObjectToResponse(obj exporter.SnapshotObject) SnapshotObjectResponse {
	resp := SnapshotObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
		URL:  obj.URL,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}
