package implementation

import "github.com/odyssey-erp/odyssey-backoffice/internal/api"

// Resource is the backend collection holding implementation records.
const Resource = "transactioncustomer"

type Device struct {
	Name         string `json:"name"`
	SerialNumber string `json:"serialNumber"`
	Quantity     int    `json:"quantity"`
}

type Printer struct {
	Model        string        `json:"model"`
	SerialNumber string        `json:"serialNumber"`
	InstalledAt  api.Timestamp `json:"installedAt"`
}

type AddOn struct {
	Name      string        `json:"name"`
	Quantity  int           `json:"quantity"`
	ExpiresAt api.Timestamp `json:"expiresAt"`
}

// ShopInfo is the first step: who the customer is and what they bought.
type ShopInfo struct {
	ShopName  string    `json:"shopName"`
	OwnerName string    `json:"ownerName"`
	Tel       string    `json:"tel"`
	Address   string    `json:"address"`
	Devices   []Device  `json:"devices"`
	Printers  []Printer `json:"printers"`
	AddOns    []AddOn   `json:"addOns"`
}

func (s ShopInfo) IsZero() bool {
	return s.ShopName == "" && s.OwnerName == "" && s.Tel == "" && s.Address == "" &&
		len(s.Devices) == 0 && len(s.Printers) == 0 && len(s.AddOns) == 0
}

type SetupSystem struct {
	Choice    string   `json:"choice"`
	Checklist []string `json:"checklist"`
}

func (s SetupSystem) IsZero() bool { return s.Choice == "" && len(s.Checklist) == 0 }

type Branch struct {
	Choice    string   `json:"choice"`
	Checklist []string `json:"checklist"`
	Notes     string   `json:"notes"`
}

func (b Branch) IsZero() bool { return b.Choice == "" && len(b.Checklist) == 0 && b.Notes == "" }

type TestApp struct {
	Checklist []string `json:"checklist"`
}

func (t TestApp) IsZero() bool { return len(t.Checklist) == 0 }

// Handover is a signed-off checklist; training and delivery share it.
type Handover struct {
	Checklist []string      `json:"checklist"`
	Signature string        `json:"signature,omitempty"`
	Date      api.Timestamp `json:"date"`
}

func (h Handover) IsZero() bool { return len(h.Checklist) == 0 && h.Signature == "" && h.Date.IsZero() }

// Record is one customer's implementation, built up one step at a time.
type Record struct {
	ID          int64         `json:"id,omitempty"`
	ShopInfo    ShopInfo      `json:"shopInfo"`
	SetupSystem SetupSystem   `json:"setupSystem"`
	Branch      Branch        `json:"branch"`
	TestApp     TestApp       `json:"testApp"`
	Train       Handover      `json:"train"`
	Deliver     Handover      `json:"deliver"`
	CreatedAt   api.Timestamp `json:"createdAt"`
	UpdatedAt   api.Timestamp `json:"updatedAt"`
}

// Completed reports how many step fragments carry data.
func (r Record) Completed() int {
	n := 0
	for _, zero := range []bool{r.ShopInfo.IsZero(), r.SetupSystem.IsZero(), r.Branch.IsZero(), r.TestApp.IsZero(), r.Train.IsZero(), r.Deliver.IsZero()} {
		if !zero {
			n++
		}
	}
	return n
}
