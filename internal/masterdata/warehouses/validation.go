package warehouses

import (
	"net/url"

	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
)

type Form struct {
	OrganizationID string `form:"organizationId" validate:"omitempty,number"`
	Name           string `form:"name" validate:"required,max=120"`
	Location       string `form:"location" validate:"max=500"`
	ContactName    string `form:"contactName" validate:"max=120"`
	ContactTel     string `form:"contactTel" validate:"max=40"`
	ContactEmail   string `form:"contactEmail" validate:"omitempty,email"`
	BranchID       string `form:"branchId" validate:"omitempty,number"`
	ReceiveEmail   bool   `form:"receiveEmail"`
}

func parseForm(values url.Values) *Form {
	return &Form{
		OrganizationID: forms.Text(values, "organizationId"),
		Name:           forms.Text(values, "name"),
		Location:       forms.Text(values, "location"),
		ContactName:    forms.Text(values, "contactName"),
		ContactTel:     forms.Text(values, "contactTel"),
		ContactEmail:   forms.Text(values, "contactEmail"),
		BranchID:       forms.Text(values, "branchId"),
		ReceiveEmail:   forms.Checked(values, "receiveEmail"),
	}
}

func fromModel(w Warehouse) *Form {
	return &Form{
		OrganizationID: shared.OptionalID(w.OrganizationID),
		Name:           w.Name,
		Location:       w.Location,
		ContactName:    w.ContactName,
		ContactTel:     w.ContactTel,
		ContactEmail:   w.ContactEmail,
		BranchID:       shared.OptionalID(w.BranchID),
		ReceiveEmail:   w.ReceiveEmail,
	}
}

func (f *Form) Validate() forms.Result {
	res := forms.Default().Check(f)
	if f.ReceiveEmail && f.ContactEmail == "" {
		res = res.Merge(map[string]string{"contactEmail": "An email address is needed to receive email."})
	}
	return res
}

func (f *Form) Payload() (any, error) {
	return Warehouse{
		OrganizationID: shared.ParseOptionalID(f.OrganizationID),
		Name:           f.Name,
		Location:       f.Location,
		ContactName:    f.ContactName,
		ContactTel:     f.ContactTel,
		ContactEmail:   f.ContactEmail,
		BranchID:       shared.ParseOptionalID(f.BranchID),
		ReceiveEmail:   f.ReceiveEmail,
	}, nil
}
