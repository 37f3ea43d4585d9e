package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of fractional digits kept for prices.
const PriceScale = 2

// Inventory is a stock-keeping record managed by the service.
type Inventory struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the fields a caller is allowed to set.
func (i *Inventory) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if i.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if !i.Price.Equal(i.Price.Truncate(PriceScale)) {
		return fmt.Errorf("%w: price supports at most %d decimal places", ErrInvalidArgument, PriceScale)
	}
	if i.StockQuantity < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidArgument)
	}
	return nil
}

// Overwrite copies the mutable fields of other into i.
func (i *Inventory) Overwrite(other Inventory) {
	i.Name = other.Name
	i.Description = other.Description
	i.Price = other.Price
	i.StockQuantity = other.StockQuantity
}
