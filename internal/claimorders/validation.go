package claimorders

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
)

// PartyForm holds one party's inputs; names are prefixed with the role.
type PartyForm struct {
	Name      string `form:"name" validate:"max=120"`
	Signature string `form:"signature" validate:"omitempty,signature"`
	Date      string `form:"date" validate:"omitempty,date"`
}

// Form is the submitted claim order.
type Form struct {
	DocumentType string    `form:"documentType" validate:"required,oneof=internal external"`
	Categories   string    `form:"categories"`
	Model        string    `form:"model" validate:"required,max=120"`
	SerialNumber string    `form:"serialNumber" validate:"required,max=120"`
	Warranty     bool      `form:"warranty"`
	Accessories  string    `form:"accessories"`
	ReferenceNo  string    `form:"referenceNo" validate:"max=60"`
	TrackingNo   string    `form:"trackingNo" validate:"max=60"`
	Symptom      string    `form:"symptom" validate:"required,max=2000"`
	Resolution   string    `form:"resolution" validate:"max=2000"`
	Price        string    `form:"price" validate:"decimal"`
	Address      string    `form:"address" validate:"max=500"`
	Customer     PartyForm `form:"customer"`
	Receiver     PartyForm `form:"receiver"`
	Technician   PartyForm `form:"technician"`
	Returner     PartyForm `form:"returner"`
}

// roles pairs each party prefix with its form slot.
func (f *Form) roles() []struct {
	prefix string
	party  *PartyForm
} {
	return []struct {
		prefix string
		party  *PartyForm
	}{
		{"customer", &f.Customer},
		{"receiver", &f.Receiver},
		{"technician", &f.Technician},
		{"returner", &f.Returner},
	}
}

func parseForm(values url.Values) *Form {
	f := &Form{
		DocumentType: forms.Text(values, "documentType"),
		Categories:   forms.Text(values, "categories"),
		Model:        forms.Text(values, "model"),
		SerialNumber: forms.Text(values, "serialNumber"),
		Warranty:     forms.Checked(values, "warranty"),
		Accessories:  forms.Text(values, "accessories"),
		ReferenceNo:  forms.Text(values, "referenceNo"),
		TrackingNo:   forms.Text(values, "trackingNo"),
		Symptom:      forms.Text(values, "symptom"),
		Resolution:   forms.Text(values, "resolution"),
		Price:        forms.Text(values, "price"),
		Address:      forms.Text(values, "address"),
	}
	for _, role := range f.roles() {
		*role.party = PartyForm{
			Name:      forms.Text(values, role.prefix+".name"),
			Signature: forms.Text(values, role.prefix+".signature"),
			Date:      forms.Text(values, role.prefix+".date"),
		}
	}
	return f
}

func fromModel(c ClaimOrder) *Form {
	f := &Form{
		DocumentType: string(c.DocumentType),
		Categories:   strings.Join(c.Categories, ", "),
		Model:        c.Model,
		SerialNumber: c.SerialNumber,
		Warranty:     c.Warranty,
		Accessories:  strings.Join(c.Accessories, ", "),
		ReferenceNo:  c.ReferenceNo,
		TrackingNo:   c.TrackingNo,
		Symptom:      c.Symptom,
		Resolution:   c.Resolution,
		Price:        c.Price.String(),
		Address:      c.Address,
	}
	parties := c.PartyList()
	for i, role := range f.roles() {
		*role.party = PartyForm{Name: parties[i].Name, Signature: parties[i].Signature, Date: parties[i].Date.DateString()}
	}
	return f
}

// Validate checks the fields and that every signature or date names its signer.
func (f *Form) Validate() forms.Result {
	res := forms.Default().Check(f)
	extra := map[string]string{}
	for _, role := range f.roles() {
		if role.party.Name == "" && (role.party.Signature != "" || role.party.Date != "") {
			extra[role.prefix+".name"] = "Enter the name of the person who signed."
		}
	}
	if f.Customer.Name == "" {
		extra["customer.name"] = "This field is required."
	}
	return res.Merge(extra)
}

func (f *Form) Payload() (any, error) {
	price, err := forms.Decimal(f.Price)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	c := ClaimOrder{
		DocumentType: DocumentType(f.DocumentType),
		Categories:   forms.Tags(f.Categories),
		Model:        f.Model,
		SerialNumber: f.SerialNumber,
		Warranty:     f.Warranty,
		Accessories:  forms.Tags(f.Accessories),
		ReferenceNo:  f.ReferenceNo,
		TrackingNo:   f.TrackingNo,
		Symptom:      f.Symptom,
		Resolution:   f.Resolution,
		Price:        price,
		Address:      f.Address,
	}
	for i, p := range []*Party{&c.Customer, &c.Receiver, &c.Technician, &c.Returner} {
		src := f.roles()[i].party
		p.Name = src.Name
		p.Signature = src.Signature
		if src.Date != "" {
			day, err := time.Parse(time.DateOnly, src.Date)
			if err != nil {
				return nil, fmt.Errorf("%s date: %w", f.roles()[i].prefix, err)
			}
			p.Date = api.NewTimestamp(day)
		}
	}
	return c, nil
}
