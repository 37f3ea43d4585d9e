package domain

import (
	"fmt"
	"math"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sortable inventory fields, keyed by their public names.
const (
	SortByID            = "id"
	SortByName          = "name"
	SortByDescription   = "description"
	SortByPrice         = "price"
	SortByStockQuantity = "stockQuantity"
)

// PageRequest selects a zero-based page of records in a stable order.
type PageRequest struct {
	Page      int
	Size      int
	SortBy    string
	Direction SortDirection
}

// Offset returns the number of records that precede the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Validate rejects negative or out of range pages, sizes outside 1..maxSize
// and unknown sort options.
func (p PageRequest) Validate(maxSize int) error {
	if p.Page < 0 {
		return fmt.Errorf("%w: page must not be negative", ErrInvalidArgument)
	}
	if p.Size < 1 || (maxSize > 0 && p.Size > maxSize) {
		return fmt.Errorf("%w: page size must be between 1 and %d", ErrInvalidArgument, maxSize)
	}
	if p.Page > math.MaxInt/p.Size {
		return fmt.Errorf("%w: page %d is out of range", ErrInvalidArgument, p.Page)
	}
	switch p.SortBy {
	case SortByID, SortByName, SortByDescription, SortByPrice, SortByStockQuantity:
	default:
		return fmt.Errorf("%w: unsupported sort field %q", ErrInvalidArgument, p.SortBy)
	}
	switch p.Direction {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("%w: unsupported sort direction %q", ErrInvalidArgument, p.Direction)
	}
	return nil
}

// Page is one slice of a larger ordered result.
type Page struct {
	Content       []Inventory
	Page          int
	Size          int
	TotalElements int64
}

// TotalPages reports how many pages of Size cover TotalElements.
func (p Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}
