package units

import (
	"net/url"

	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
)

type Form struct {
	Name         string `form:"name" validate:"required,max=60"`
	Abbreviation string `form:"abbreviation" validate:"max=16"`
}

func parseForm(values url.Values) *Form {
	return &Form{Name: forms.Text(values, "name"), Abbreviation: forms.Text(values, "abbreviation")}
}

func fromModel(u Unit) *Form {
	return &Form{Name: u.Name, Abbreviation: u.Abbreviation}
}

func (f *Form) Validate() forms.Result { return forms.Default().Check(f) }

func (f *Form) Payload() (any, error) {
	return Unit{Name: f.Name, Abbreviation: f.Abbreviation}, nil
}
