package implementation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
)

// ErrMissingRecordID is returned when a step needs the record id and the
// carried parameters hold none that parses as a positive integer.
var ErrMissingRecordID = errors.New("implementation: missing record id")

// Parameter keys. Array and object values are JSON encoded.
const (
	KeyID        = "id"
	KeyShopName  = "shopName"
	KeyOwnerName = "ownerName"
	KeyTel       = "tel"
	KeyAddress   = "address"
	KeyDevices   = "devices"
	KeyPrinters  = "printers"
	KeyAddOns    = "addOns"

	KeySetupChoice    = "setupSystem.choice"
	KeySetupChecklist = "setupSystem.checklist"

	KeyBranchChoice    = "branch.choice"
	KeyBranchChecklist = "branch.checklist"
	KeyBranchNotes     = "branch.notes"

	KeyTestAppChecklist = "testApp.checklist"

	KeyTrainChecklist = "train.checklist"
	KeyTrainSignature = "train.signature"
	KeyTrainDate      = "train.date"

	KeyDeliverChecklist = "deliver.checklist"
	KeyDeliverSignature = "deliver.signature"
	KeyDeliverDate      = "deliver.date"
)

var knownKeys = []string{
	KeyID, KeyShopName, KeyOwnerName, KeyTel, KeyAddress, KeyDevices, KeyPrinters, KeyAddOns,
	KeySetupChoice, KeySetupChecklist,
	KeyBranchChoice, KeyBranchChecklist, KeyBranchNotes,
	KeyTestAppChecklist,
	KeyTrainChecklist, KeyTrainSignature, KeyTrainDate,
	KeyDeliverChecklist, KeyDeliverSignature, KeyDeliverDate,
}

// Params is the wizard state carrier: a flat string map holding the
// in-progress record between steps.
type Params map[string]string

// ParamsFromQuery keeps the known keys of a legacy step address.
func ParamsFromQuery(q url.Values) Params {
	p := Params{}
	for _, key := range knownKeys {
		if v := q.Get(key); v != "" {
			p[key] = v
		}
	}
	return p
}

// Query renders the parameters as an address query.
func (p Params) Query() url.Values {
	q := url.Values{}
	for k, v := range p {
		q.Set(k, v)
	}
	return q
}

func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// HasRecordID reports whether an id is carried at all.
func (p Params) HasRecordID() bool { return strings.TrimSpace(p[KeyID]) != "" }

// RecordID returns the carried record id.
func (p Params) RecordID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(p[KeyID]), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrMissingRecordID
	}
	return id, nil
}

func (p Params) SetRecordID(id int64) {
	if id > 0 {
		p[KeyID] = strconv.FormatInt(id, 10)
	}
}

// Put encodes a step payload into the parameters.
func (p Params) Put(step Step, payload any) error {
	switch v := payload.(type) {
	case ShopInfo:
		return p.putShopInfo(v)
	case SetupSystem:
		p[KeySetupChoice] = v.Choice
		return p.putJSON(KeySetupChecklist, nonNil(v.Checklist))
	case Branch:
		p[KeyBranchChoice] = v.Choice
		p[KeyBranchNotes] = v.Notes
		return p.putJSON(KeyBranchChecklist, nonNil(v.Checklist))
	case TestApp:
		return p.putJSON(KeyTestAppChecklist, nonNil(v.Checklist))
	case Handover:
		switch step {
		case StepTrain:
			return p.putHandover(KeyTrainChecklist, KeyTrainSignature, KeyTrainDate, v)
		case StepDeliver:
			return p.putHandover(KeyDeliverChecklist, KeyDeliverSignature, KeyDeliverDate, v)
		}
	}
	return fmt.Errorf("implementation: %T is not the payload of step %d", payload, step)
}

// Payload decodes the payload of step, falling back to empty defaults.
func (p Params) Payload(step Step) (any, error) {
	switch step {
	case StepShopInfo:
		return p.ShopInfo()
	case StepSetupSystem:
		return p.SetupSystem()
	case StepBranch:
		return p.Branch()
	case StepTestApp:
		return p.TestApp()
	case StepTrain:
		return p.handover(KeyTrainChecklist, KeyTrainSignature, KeyTrainDate)
	case StepDeliver:
		return p.handover(KeyDeliverChecklist, KeyDeliverSignature, KeyDeliverDate)
	}
	return nil, ErrUnknownStep
}

func (p Params) ShopInfo() (ShopInfo, error) {
	s := ShopInfo{
		ShopName:  p[KeyShopName],
		OwnerName: p[KeyOwnerName],
		Tel:       p[KeyTel],
		Address:   p[KeyAddress],
		Devices:   []Device{},
		Printers:  []Printer{},
		AddOns:    []AddOn{},
	}
	if err := p.getJSON(KeyDevices, &s.Devices); err != nil {
		return ShopInfo{}, err
	}
	if err := p.getJSON(KeyPrinters, &s.Printers); err != nil {
		return ShopInfo{}, err
	}
	if err := p.getJSON(KeyAddOns, &s.AddOns); err != nil {
		return ShopInfo{}, err
	}
	return s, nil
}

func (p Params) SetupSystem() (SetupSystem, error) {
	s := SetupSystem{Choice: p[KeySetupChoice], Checklist: []string{}}
	if err := p.getJSON(KeySetupChecklist, &s.Checklist); err != nil {
		return SetupSystem{}, err
	}
	return s, nil
}

func (p Params) Branch() (Branch, error) {
	b := Branch{Choice: p[KeyBranchChoice], Notes: p[KeyBranchNotes], Checklist: []string{}}
	if err := p.getJSON(KeyBranchChecklist, &b.Checklist); err != nil {
		return Branch{}, err
	}
	return b, nil
}

func (p Params) TestApp() (TestApp, error) {
	t := TestApp{Checklist: []string{}}
	if err := p.getJSON(KeyTestAppChecklist, &t.Checklist); err != nil {
		return TestApp{}, err
	}
	return t, nil
}

func (p Params) Train() (Handover, error) {
	return p.handover(KeyTrainChecklist, KeyTrainSignature, KeyTrainDate)
}

func (p Params) Deliver() (Handover, error) {
	return p.handover(KeyDeliverChecklist, KeyDeliverSignature, KeyDeliverDate)
}

// Record decodes every fragment carried so far.
func (p Params) Record() (Record, error) {
	var (
		rec Record
		err error
	)
	rec.ID, _ = p.RecordID()
	if rec.ShopInfo, err = p.ShopInfo(); err != nil {
		return Record{}, err
	}
	if rec.SetupSystem, err = p.SetupSystem(); err != nil {
		return Record{}, err
	}
	if rec.Branch, err = p.Branch(); err != nil {
		return Record{}, err
	}
	if rec.TestApp, err = p.TestApp(); err != nil {
		return Record{}, err
	}
	if rec.Train, err = p.Train(); err != nil {
		return Record{}, err
	}
	if rec.Deliver, err = p.Deliver(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Merge overlays the server's representation of the record. Fragments the
// server returned empty leave the carried values in place.
func (p Params) Merge(rec Record) Params {
	out := p.Clone()
	out.SetRecordID(rec.ID)
	fragments := []struct {
		step    Step
		zero    bool
		payload any
	}{
		{StepShopInfo, rec.ShopInfo.IsZero(), rec.ShopInfo},
		{StepSetupSystem, rec.SetupSystem.IsZero(), rec.SetupSystem},
		{StepBranch, rec.Branch.IsZero(), rec.Branch},
		{StepTestApp, rec.TestApp.IsZero(), rec.TestApp},
		{StepTrain, rec.Train.IsZero(), rec.Train},
		{StepDeliver, rec.Deliver.IsZero(), rec.Deliver},
	}
	for _, f := range fragments {
		if f.zero {
			continue
		}
		// Payload types always match their step here.
		_ = out.Put(f.step, f.payload)
	}
	return out
}

func (p Params) putShopInfo(s ShopInfo) error {
	p[KeyShopName] = s.ShopName
	p[KeyOwnerName] = s.OwnerName
	p[KeyTel] = s.Tel
	p[KeyAddress] = s.Address
	if s.Devices == nil {
		s.Devices = []Device{}
	}
	if s.Printers == nil {
		s.Printers = []Printer{}
	}
	if s.AddOns == nil {
		s.AddOns = []AddOn{}
	}
	if err := p.putJSON(KeyDevices, s.Devices); err != nil {
		return err
	}
	if err := p.putJSON(KeyPrinters, s.Printers); err != nil {
		return err
	}
	return p.putJSON(KeyAddOns, s.AddOns)
}

func (p Params) putHandover(checklistKey, signatureKey, dateKey string, h Handover) error {
	p[signatureKey] = h.Signature
	p[dateKey] = h.Date.String()
	return p.putJSON(checklistKey, nonNil(h.Checklist))
}

func (p Params) handover(checklistKey, signatureKey, dateKey string) (Handover, error) {
	h := Handover{Signature: p[signatureKey], Checklist: []string{}}
	if err := p.getJSON(checklistKey, &h.Checklist); err != nil {
		return Handover{}, err
	}
	if raw := strings.TrimSpace(p[dateKey]); raw != "" {
		date, err := api.ParseTimestamp(raw)
		if err != nil {
			return Handover{}, fmt.Errorf("implementation: decode %s: %w", dateKey, err)
		}
		h.Date = date
	}
	return h, nil
}

func (p Params) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("implementation: encode %s: %w", key, err)
	}
	p[key] = string(data)
	return nil
}

// getJSON leaves dst untouched when key is absent or null.
func (p Params) getJSON(key string, dst any) error {
	raw := strings.TrimSpace(p[key])
	if raw == "" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("implementation: decode %s: %w", key, err)
	}
	return nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
