package items

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
)

type Form struct {
	Code            string `form:"code" validate:"required,max=40"`
	Name            string `form:"name" validate:"required,max=120"`
	CategoryID      string `form:"categoryId" validate:"required,number"`
	DisplayUnitID   string `form:"displayUnitId" validate:"required,number"`
	BaseUnitID      string `form:"baseUnitId" validate:"required,number"`
	StockLevel      string `form:"stockLevel" validate:"decimal"`
	ReorderLevel    string `form:"reorderLevel" validate:"decimal"`
	ExpirationDates string `form:"expirationDates" validate:"datelist"`
}

func parseForm(values url.Values) *Form {
	return &Form{
		Code:            forms.Text(values, "code"),
		Name:            forms.Text(values, "name"),
		CategoryID:      forms.Text(values, "categoryId"),
		DisplayUnitID:   forms.Text(values, "displayUnitId"),
		BaseUnitID:      forms.Text(values, "baseUnitId"),
		StockLevel:      forms.Text(values, "stockLevel"),
		ReorderLevel:    forms.Text(values, "reorderLevel"),
		ExpirationDates: forms.Text(values, "expirationDates"),
	}
}

func fromModel(s StockItem) *Form {
	dates := make([]string, 0, len(s.ExpirationDates))
	for _, d := range s.ExpirationDates {
		if !d.IsZero() {
			dates = append(dates, d.DateString())
		}
	}
	return &Form{
		Code:            s.Code,
		Name:            s.Name,
		CategoryID:      idString(s.CategoryID),
		DisplayUnitID:   idString(s.DisplayUnitID),
		BaseUnitID:      idString(s.BaseUnitID),
		StockLevel:      s.StockLevel.String(),
		ReorderLevel:    s.ReorderLevel.String(),
		ExpirationDates: strings.Join(dates, ", "),
	}
}

func (f *Form) Validate() forms.Result { return forms.Default().Check(f) }

func (f *Form) Payload() (any, error) {
	item := StockItem{Code: f.Code, Name: f.Name}
	var err error
	for _, ref := range []struct {
		raw string
		dst *int64
	}{{f.CategoryID, &item.CategoryID}, {f.DisplayUnitID, &item.DisplayUnitID}, {f.BaseUnitID, &item.BaseUnitID}} {
		if *ref.dst, err = shared.ParseID(ref.raw); err != nil {
			return nil, err
		}
	}
	if item.StockLevel, err = forms.Decimal(f.StockLevel); err != nil {
		return nil, fmt.Errorf("stock level: %w", err)
	}
	if item.ReorderLevel, err = forms.Decimal(f.ReorderLevel); err != nil {
		return nil, fmt.Errorf("reorder level: %w", err)
	}
	dates, err := forms.ParseDateList(f.ExpirationDates)
	if err != nil {
		return nil, err
	}
	item.ExpirationDates = make([]api.Timestamp, len(dates))
	for i, d := range dates {
		item.ExpirationDates[i] = api.NewTimestamp(d)
	}
	return item, nil
}

func idString(id int64) string {
	return shared.OptionalID(&id)
}
