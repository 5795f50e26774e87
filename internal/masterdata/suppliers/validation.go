package suppliers

import (
	"net/url"

	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
)

type Form struct {
	CompanyName  string `form:"companyName" validate:"required,max=160"`
	CategoryID   string `form:"categoryId" validate:"omitempty,number"`
	Address      string `form:"address" validate:"max=500"`
	ContactName  string `form:"contactName" validate:"max=120"`
	ContactTel   string `form:"contactTel" validate:"max=40"`
	ContactEmail string `form:"contactEmail" validate:"omitempty,email"`
	IsActive     bool   `form:"isActive"`
}

func parseForm(values url.Values) *Form {
	return &Form{
		CompanyName:  forms.Text(values, "companyName"),
		CategoryID:   forms.Text(values, "categoryId"),
		Address:      forms.Text(values, "address"),
		ContactName:  forms.Text(values, "contactName"),
		ContactTel:   forms.Text(values, "contactTel"),
		ContactEmail: forms.Text(values, "contactEmail"),
		IsActive:     forms.Checked(values, "isActive"),
	}
}

func fromModel(s Supplier) *Form {
	return &Form{
		CompanyName:  s.CompanyName,
		CategoryID:   shared.OptionalID(s.CategoryID),
		Address:      s.Address,
		ContactName:  s.ContactName,
		ContactTel:   s.ContactTel,
		ContactEmail: s.ContactEmail,
		IsActive:     s.IsActive,
	}
}

func (f *Form) Validate() forms.Result { return forms.Default().Check(f) }

func (f *Form) Payload() (any, error) {
	return Supplier{
		CompanyName:  f.CompanyName,
		CategoryID:   shared.ParseOptionalID(f.CategoryID),
		Address:      f.Address,
		ContactName:  f.ContactName,
		ContactTel:   f.ContactTel,
		ContactEmail: f.ContactEmail,
		IsActive:     f.IsActive,
	}, nil
}
