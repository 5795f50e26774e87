package categories

import (
	"net/url"

	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
)

// Form is the submitted category form.
type Form struct {
	Name           string `form:"name" validate:"required,max=120"`
	Description    string `form:"description" validate:"max=500"`
	OrganizationID string `form:"organizationId" validate:"omitempty,number"`
}

func parseForm(values url.Values) *Form {
	return &Form{
		Name:           forms.Text(values, "name"),
		Description:    forms.Text(values, "description"),
		OrganizationID: forms.Text(values, "organizationId"),
	}
}

func fromModel(c Category) *Form {
	return &Form{Name: c.Name, Description: c.Description, OrganizationID: shared.OptionalID(c.OrganizationID)}
}

// Validate checks required fields.
func (f *Form) Validate() forms.Result {
	return forms.Default().Check(f)
}

// Payload builds the request body.
func (f *Form) Payload() (any, error) {
	return Category{
		Name:           f.Name,
		Description:    f.Description,
		OrganizationID: shared.ParseOptionalID(f.OrganizationID),
	}, nil
}
