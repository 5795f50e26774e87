package items

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
)

// StockItem is one inventory line.
type StockItem struct {
	ID              int64           `json:"id,omitempty"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	CategoryID      int64           `json:"categoryId"`
	DisplayUnitID   int64           `json:"displayUnitId"`
	BaseUnitID      int64           `json:"baseUnitId"`
	StockLevel      decimal.Decimal `json:"stockLevel"`
	ReorderLevel    decimal.Decimal `json:"reorderLevel"`
	ExpirationDates []api.Timestamp `json:"expirationDates"`
}

// BelowReorder reports whether stock has fallen to the reorder level.
func (s StockItem) BelowReorder() bool {
	return !s.ReorderLevel.IsZero() && s.StockLevel.LessThanOrEqual(s.ReorderLevel)
}

// NextExpiry returns the earliest expiration date, if any.
func (s StockItem) NextExpiry() api.Timestamp {
	var next api.Timestamp
	for _, d := range s.ExpirationDates {
		if d.IsZero() {
			continue
		}
		if next.IsZero() || d.Before(next.Time) {
			next = d
		}
	}
	return next
}
