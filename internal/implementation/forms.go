package implementation

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-backoffice/internal/api"
	"github.com/odyssey-erp/odyssey-backoffice/internal/forms"
	"github.com/odyssey-erp/odyssey-backoffice/internal/masterdata/shared"
	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// stepForm is the submitted form of one step. Inputs stay strings so a
// rejected form re-renders exactly what was typed.
type stepForm interface {
	Step() Step
	Validate() forms.Result
	// payload converts the form; lenient mode zeroes unparsable numbers and
	// dates instead of failing, for autosaved partial input.
	payload(lenient bool) (any, error)
	values() url.Values
	fieldsets() []view.Fieldset
	repeaters() []view.Repeater
}

// submission adapts a step form to the record service: the request body
// holds only the step's fragment.
type submission struct {
	form stepForm
}

var _ shared.Form = submission{}

func (s submission) Validate() forms.Result { return s.form.Validate() }

func (s submission) Payload() (any, error) {
	p, err := s.form.payload(false)
	if err != nil {
		return nil, err
	}
	return map[string]any{s.form.Step().Fragment(): p}, nil
}

// parseStepForm reads the submitted values of step.
func parseStepForm(step Step, values url.Values) stepForm {
	switch step {
	case StepShopInfo:
		return parseShopInfoForm(values)
	case StepSetupSystem:
		return &setupSystemForm{
			Choice:    forms.Text(values, "choice"),
			Checklist: checklistValues(step, values),
		}
	case StepBranch:
		return &branchForm{
			Choice:    forms.Text(values, "choice"),
			Checklist: checklistValues(step, values),
			Notes:     forms.Text(values, "notes"),
		}
	case StepTestApp:
		return &testAppForm{Checklist: checklistValues(step, values)}
	default:
		return &handoverForm{
			step:      step,
			Checklist: checklistValues(step, values),
			Signature: forms.Text(values, "signature"),
			Date:      forms.Text(values, "date"),
		}
	}
}

// formFor renders a decoded payload back into its form.
func formFor(step Step, payload any) stepForm {
	switch v := payload.(type) {
	case ShopInfo:
		return shopInfoFormFrom(v)
	case SetupSystem:
		return &setupSystemForm{Choice: v.Choice, Checklist: nonNil(v.Checklist)}
	case Branch:
		return &branchForm{Choice: v.Choice, Checklist: nonNil(v.Checklist), Notes: v.Notes}
	case TestApp:
		return &testAppForm{Checklist: nonNil(v.Checklist)}
	case Handover:
		return &handoverForm{step: step, Checklist: nonNil(v.Checklist), Signature: v.Signature, Date: v.Date.DateString()}
	}
	return parseStepForm(step, url.Values{})
}

func checklistValues(step Step, values url.Values) []string {
	var keys []string
	for _, v := range values["checklist"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				keys = append(keys, part)
			}
		}
	}
	return inCatalog(step, keys)
}

// ---- step 1

type deviceRow struct {
	Name         string `form:"name" validate:"required,max=120"`
	SerialNumber string `form:"serialNumber" validate:"max=120"`
	Quantity     string `form:"quantity" validate:"count"`
}

type printerRow struct {
	Model        string `form:"model" validate:"required,max=120"`
	SerialNumber string `form:"serialNumber" validate:"max=120"`
	InstalledAt  string `form:"installedAt" validate:"omitempty,date"`
}

type addOnRow struct {
	Name      string `form:"name" validate:"required,max=120"`
	Quantity  string `form:"quantity" validate:"count"`
	ExpiresAt string `form:"expiresAt" validate:"omitempty,date"`
}

type shopInfoForm struct {
	ShopName  string       `form:"shopName" validate:"required,max=160"`
	OwnerName string       `form:"ownerName" validate:"max=120"`
	Tel       string       `form:"tel" validate:"max=40"`
	Address   string       `form:"address" validate:"max=500"`
	Devices   []deviceRow  `form:"devices" validate:"dive"`
	Printers  []printerRow `form:"printers" validate:"dive"`
	AddOns    []addOnRow   `form:"addOns" validate:"dive"`
}

var rowField = regexp.MustCompile(`^(devices|printers|addOns)\[(\d+)\]\.(\w+)$`)

func parseShopInfoForm(values url.Values) *shopInfoForm {
	f := &shopInfoForm{
		ShopName:  forms.Text(values, KeyShopName),
		OwnerName: forms.Text(values, KeyOwnerName),
		Tel:       forms.Text(values, KeyTel),
		Address:   forms.Text(values, KeyAddress),
	}
	rows := map[string]map[int]map[string]string{}
	for key := range values {
		m := rowField.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		if rows[m[1]] == nil {
			rows[m[1]] = map[int]map[string]string{}
		}
		if rows[m[1]][idx] == nil {
			rows[m[1]][idx] = map[string]string{}
		}
		rows[m[1]][idx][m[3]] = forms.Text(values, key)
	}
	for _, row := range orderedRows(rows[KeyDevices]) {
		f.Devices = append(f.Devices, deviceRow{Name: row["name"], SerialNumber: row["serialNumber"], Quantity: row["quantity"]})
	}
	for _, row := range orderedRows(rows[KeyPrinters]) {
		f.Printers = append(f.Printers, printerRow{Model: row["model"], SerialNumber: row["serialNumber"], InstalledAt: row["installedAt"]})
	}
	for _, row := range orderedRows(rows[KeyAddOns]) {
		f.AddOns = append(f.AddOns, addOnRow{Name: row["name"], Quantity: row["quantity"], ExpiresAt: row["expiresAt"]})
	}
	return f
}

// orderedRows sorts rows by submitted index and drops blank ones.
func orderedRows(rows map[int]map[string]string) []map[string]string {
	indexes := make([]int, 0, len(rows))
	for idx := range rows {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	var out []map[string]string
	for _, idx := range indexes {
		blank := true
		for _, v := range rows[idx] {
			if v != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, rows[idx])
		}
	}
	return out
}

func shopInfoFormFrom(s ShopInfo) *shopInfoForm {
	f := &shopInfoForm{ShopName: s.ShopName, OwnerName: s.OwnerName, Tel: s.Tel, Address: s.Address}
	for _, d := range s.Devices {
		f.Devices = append(f.Devices, deviceRow{Name: d.Name, SerialNumber: d.SerialNumber, Quantity: quantityString(d.Quantity)})
	}
	for _, p := range s.Printers {
		f.Printers = append(f.Printers, printerRow{Model: p.Model, SerialNumber: p.SerialNumber, InstalledAt: p.InstalledAt.DateString()})
	}
	for _, a := range s.AddOns {
		f.AddOns = append(f.AddOns, addOnRow{Name: a.Name, Quantity: quantityString(a.Quantity), ExpiresAt: a.ExpiresAt.DateString()})
	}
	return f
}

func (f *shopInfoForm) Step() Step { return StepShopInfo }

func (f *shopInfoForm) Validate() forms.Result { return forms.Default().Check(f) }

func (f *shopInfoForm) payload(lenient bool) (any, error) {
	s := ShopInfo{
		ShopName:  f.ShopName,
		OwnerName: f.OwnerName,
		Tel:       f.Tel,
		Address:   f.Address,
		Devices:   []Device{},
		Printers:  []Printer{},
		AddOns:    []AddOn{},
	}
	for i, row := range f.Devices {
		qty, err := parseQuantity(row.Quantity, lenient)
		if err != nil {
			return nil, fmt.Errorf("devices[%d].quantity: %w", i, err)
		}
		s.Devices = append(s.Devices, Device{Name: row.Name, SerialNumber: row.SerialNumber, Quantity: qty})
	}
	for i, row := range f.Printers {
		installed, err := parseDate(row.InstalledAt, lenient)
		if err != nil {
			return nil, fmt.Errorf("printers[%d].installedAt: %w", i, err)
		}
		s.Printers = append(s.Printers, Printer{Model: row.Model, SerialNumber: row.SerialNumber, InstalledAt: installed})
	}
	for i, row := range f.AddOns {
		qty, err := parseQuantity(row.Quantity, lenient)
		if err != nil {
			return nil, fmt.Errorf("addOns[%d].quantity: %w", i, err)
		}
		expires, err := parseDate(row.ExpiresAt, lenient)
		if err != nil {
			return nil, fmt.Errorf("addOns[%d].expiresAt: %w", i, err)
		}
		s.AddOns = append(s.AddOns, AddOn{Name: row.Name, Quantity: qty, ExpiresAt: expires})
	}
	return s, nil
}

func (f *shopInfoForm) values() url.Values {
	v := url.Values{}
	v.Set(KeyShopName, f.ShopName)
	v.Set(KeyOwnerName, f.OwnerName)
	v.Set(KeyTel, f.Tel)
	v.Set(KeyAddress, f.Address)
	for i, row := range f.Devices {
		v.Set(rowName(KeyDevices, i, "name"), row.Name)
		v.Set(rowName(KeyDevices, i, "serialNumber"), row.SerialNumber)
		v.Set(rowName(KeyDevices, i, "quantity"), row.Quantity)
	}
	for i, row := range f.Printers {
		v.Set(rowName(KeyPrinters, i, "model"), row.Model)
		v.Set(rowName(KeyPrinters, i, "serialNumber"), row.SerialNumber)
		v.Set(rowName(KeyPrinters, i, "installedAt"), row.InstalledAt)
	}
	for i, row := range f.AddOns {
		v.Set(rowName(KeyAddOns, i, "name"), row.Name)
		v.Set(rowName(KeyAddOns, i, "quantity"), row.Quantity)
		v.Set(rowName(KeyAddOns, i, "expiresAt"), row.ExpiresAt)
	}
	return v
}

func (f *shopInfoForm) fieldsets() []view.Fieldset {
	return []view.Fieldset{{Fields: []view.Field{
		{Name: KeyShopName, Label: "Shop name", Type: view.InputText, Value: f.ShopName, Required: true},
		{Name: KeyOwnerName, Label: "Owner", Type: view.InputText, Value: f.OwnerName},
		{Name: KeyTel, Label: "Tel", Type: view.InputText, Value: f.Tel},
		{Name: KeyAddress, Label: "Address", Type: view.InputTextarea, Value: f.Address},
	}}}
}

func (f *shopInfoForm) repeaters() []view.Repeater {
	devices := view.Repeater{Name: KeyDevices, Legend: "Devices", Columns: deviceColumns(0, deviceRow{})}
	for i, row := range f.Devices {
		devices.Rows = append(devices.Rows, deviceColumns(i, row))
	}
	printers := view.Repeater{Name: KeyPrinters, Legend: "Printers", Columns: printerColumns(0, printerRow{})}
	for i, row := range f.Printers {
		printers.Rows = append(printers.Rows, printerColumns(i, row))
	}
	addOns := view.Repeater{Name: KeyAddOns, Legend: "Add-ons", Columns: addOnColumns(0, addOnRow{})}
	for i, row := range f.AddOns {
		addOns.Rows = append(addOns.Rows, addOnColumns(i, row))
	}
	// A blank trailing row is the template the add-row button clones.
	devices.Rows = append(devices.Rows, deviceColumns(len(f.Devices), deviceRow{}))
	printers.Rows = append(printers.Rows, printerColumns(len(f.Printers), printerRow{}))
	addOns.Rows = append(addOns.Rows, addOnColumns(len(f.AddOns), addOnRow{}))
	return []view.Repeater{devices, printers, addOns}
}

func deviceColumns(i int, row deviceRow) []view.Field {
	return []view.Field{
		{Name: rowName(KeyDevices, i, "name"), Label: "Name", Type: view.InputText, Value: row.Name},
		{Name: rowName(KeyDevices, i, "serialNumber"), Label: "Serial number", Type: view.InputText, Value: row.SerialNumber},
		{Name: rowName(KeyDevices, i, "quantity"), Label: "Quantity", Type: view.InputNumber, Value: row.Quantity},
	}
}

func printerColumns(i int, row printerRow) []view.Field {
	return []view.Field{
		{Name: rowName(KeyPrinters, i, "model"), Label: "Model", Type: view.InputText, Value: row.Model},
		{Name: rowName(KeyPrinters, i, "serialNumber"), Label: "Serial number", Type: view.InputText, Value: row.SerialNumber},
		{Name: rowName(KeyPrinters, i, "installedAt"), Label: "Installed", Type: view.InputDate, Value: row.InstalledAt},
	}
}

func addOnColumns(i int, row addOnRow) []view.Field {
	return []view.Field{
		{Name: rowName(KeyAddOns, i, "name"), Label: "Name", Type: view.InputText, Value: row.Name},
		{Name: rowName(KeyAddOns, i, "quantity"), Label: "Quantity", Type: view.InputNumber, Value: row.Quantity},
		{Name: rowName(KeyAddOns, i, "expiresAt"), Label: "Expires", Type: view.InputDate, Value: row.ExpiresAt},
	}
}

func rowName(list string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", list, i, field)
}

// ---- steps 2 to 6

type setupSystemForm struct {
	Choice    string   `form:"choice" validate:"required,oneof=new migrate"`
	Checklist []string `form:"checklist"`
}

func (f *setupSystemForm) Step() Step { return StepSetupSystem }

func (f *setupSystemForm) Validate() forms.Result { return forms.Default().Check(f) }

func (f *setupSystemForm) payload(bool) (any, error) {
	return SetupSystem{Choice: f.Choice, Checklist: nonNil(f.Checklist)}, nil
}

func (f *setupSystemForm) values() url.Values {
	return url.Values{"choice": {f.Choice}, "checklist": f.Checklist}
}

func (f *setupSystemForm) fieldsets() []view.Fieldset {
	return []view.Fieldset{{Fields: []view.Field{
		{Name: "choice", Label: "Installation", Type: view.InputSelect, Value: f.Choice, Options: setupChoices, Required: true},
		{Name: "checklist", Label: "Checklist", Type: view.InputChecklist, Options: checklists[StepSetupSystem], Values: f.Checklist},
	}}}
}

func (f *setupSystemForm) repeaters() []view.Repeater { return nil }

type branchForm struct {
	Choice    string   `form:"choice" validate:"required,oneof=single multi"`
	Checklist []string `form:"checklist"`
	Notes     string   `form:"notes" validate:"max=2000"`
}

func (f *branchForm) Step() Step { return StepBranch }

func (f *branchForm) Validate() forms.Result { return forms.Default().Check(f) }

func (f *branchForm) payload(bool) (any, error) {
	return Branch{Choice: f.Choice, Checklist: nonNil(f.Checklist), Notes: f.Notes}, nil
}

func (f *branchForm) values() url.Values {
	return url.Values{"choice": {f.Choice}, "checklist": f.Checklist, "notes": {f.Notes}}
}

func (f *branchForm) fieldsets() []view.Fieldset {
	return []view.Fieldset{{Fields: []view.Field{
		{Name: "choice", Label: "Outlets", Type: view.InputSelect, Value: f.Choice, Options: branchChoices, Required: true},
		{Name: "checklist", Label: "Checklist", Type: view.InputChecklist, Options: checklists[StepBranch], Values: f.Checklist},
		{Name: "notes", Label: "Notes", Type: view.InputTextarea, Value: f.Notes},
	}}}
}

func (f *branchForm) repeaters() []view.Repeater { return nil }

type testAppForm struct {
	Checklist []string `form:"checklist" validate:"min=1"`
}

func (f *testAppForm) Step() Step { return StepTestApp }

func (f *testAppForm) Validate() forms.Result { return checklistResult(forms.Default().Check(f)) }

func (f *testAppForm) payload(bool) (any, error) {
	return TestApp{Checklist: nonNil(f.Checklist)}, nil
}

func (f *testAppForm) values() url.Values { return url.Values{"checklist": f.Checklist} }

func (f *testAppForm) fieldsets() []view.Fieldset {
	return []view.Fieldset{{Fields: []view.Field{
		{Name: "checklist", Label: "Tested", Type: view.InputChecklist, Options: checklists[StepTestApp], Values: f.Checklist, Required: true},
	}}}
}

func (f *testAppForm) repeaters() []view.Repeater { return nil }

// handoverForm serves both the training and the delivery step.
type handoverForm struct {
	step      Step
	Checklist []string `form:"checklist" validate:"min=1"`
	Signature string   `form:"signature" validate:"omitempty,signature"`
	Date      string   `form:"date" validate:"omitempty,date"`
}

func (f *handoverForm) Step() Step { return f.step }

func (f *handoverForm) Validate() forms.Result {
	res := checklistResult(forms.Default().Check(f))
	if f.Signature != "" && f.Date == "" {
		res = res.Merge(map[string]string{"date": "Enter the date of the signature."})
	}
	return res
}

func (f *handoverForm) payload(lenient bool) (any, error) {
	date, err := parseDate(f.Date, lenient)
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	return Handover{Checklist: nonNil(f.Checklist), Signature: f.Signature, Date: date}, nil
}

func (f *handoverForm) values() url.Values {
	return url.Values{"checklist": f.Checklist, "signature": {f.Signature}, "date": {f.Date}}
}

func (f *handoverForm) fieldsets() []view.Fieldset {
	label := "Trained"
	if f.step == StepDeliver {
		label = "Delivered"
	}
	return []view.Fieldset{
		{Fields: []view.Field{
			{Name: "checklist", Label: label, Type: view.InputChecklist, Options: checklists[f.step], Values: f.Checklist, Required: true},
		}},
		{Legend: "Sign-off", Fields: []view.Field{
			{Name: "signature", Label: "Customer signature", Type: view.InputSignature, Value: f.Signature},
			{Name: "date", Label: "Date", Type: view.InputDate, Value: f.Date},
		}},
	}
}

func (f *handoverForm) repeaters() []view.Repeater { return nil }

// checklistResult replaces the generic min message for checklists.
func checklistResult(res forms.Result) forms.Result {
	if res.Errors.Has("checklist") {
		res.Errors["checklist"] = "Tick at least one item."
	}
	return res
}

func parseQuantity(raw string, lenient bool) (int, error) {
	n, err := forms.ParseCount(raw)
	if err != nil {
		if lenient {
			return 0, nil
		}
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return n, nil
}

func parseDate(raw string, lenient bool) (api.Timestamp, error) {
	if raw == "" {
		return api.Timestamp{}, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		if lenient {
			return api.Timestamp{}, nil
		}
		return api.Timestamp{}, err
	}
	return api.NewTimestamp(t), nil
}

func quantityString(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
