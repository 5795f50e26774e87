package claimorders

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
)

// DocumentType tells whether the repair is handled in-house or sent out.
type DocumentType string

const (
	DocumentInternal DocumentType = "internal"
	DocumentExternal DocumentType = "external"
)

// Party is one person who handled the device, with an optional signature.
type Party struct {
	Name      string        `json:"name"`
	Signature string        `json:"signature,omitempty"`
	Date      api.Timestamp `json:"date"`
}

// ClaimOrder tracks one device through repair.
type ClaimOrder struct {
	ID           int64           `json:"id,omitempty"`
	DocumentType DocumentType    `json:"documentType"`
	Categories   []string        `json:"categories"`
	Model        string          `json:"model"`
	SerialNumber string          `json:"serialNumber"`
	Warranty     bool            `json:"warranty"`
	Accessories  []string        `json:"accessories"`
	ReferenceNo  string          `json:"referenceNo"`
	TrackingNo   string          `json:"trackingNo"`
	Symptom      string          `json:"symptom"`
	Resolution   string          `json:"resolution"`
	Customer     Party           `json:"customer"`
	Receiver     Party           `json:"receiver"`
	Technician   Party           `json:"technician"`
	Returner     Party           `json:"returner"`
	Price        decimal.Decimal `json:"price"`
	Address      string          `json:"address"`
	CreatedBy    string          `json:"createdBy,omitempty"`
	CreatedAt    api.Timestamp   `json:"createdAt"`
	UpdatedAt    api.Timestamp   `json:"updatedAt"`
}

// PartyList returns the parties in hand-over order.
func (c ClaimOrder) PartyList() []Party {
	return []Party{c.Customer, c.Receiver, c.Technician, c.Returner}
}

// Signed counts the parties that have signed.
func (c ClaimOrder) Signed() int {
	n := 0
	for _, p := range c.PartyList() {
		if p.Signature != "" {
			n++
		}
	}
	return n
}
