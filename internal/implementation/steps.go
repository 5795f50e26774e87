package implementation

import (
	"errors"
	"strconv"

	"github.com/odyssey-erp/odyssey-backoffice/internal/view"
)

// Step is one page of the implementation wizard, numbered from 1.
type Step int

const (
	StepShopInfo Step = iota + 1
	StepSetupSystem
	StepBranch
	StepTestApp
	StepTrain
	StepDeliver
)

// StepCount is the number of wizard steps.
const StepCount = int(StepDeliver)

// ErrUnknownStep is returned for a step number outside 1..StepCount.
var ErrUnknownStep = errors.New("implementation: unknown step")

var stepTitles = map[Step]string{
	StepShopInfo:    "Shop info",
	StepSetupSystem: "Setup system",
	StepBranch:      "Branch",
	StepTestApp:     "Test app",
	StepTrain:       "Training",
	StepDeliver:     "Delivery",
}

// stepFragments are the record fields each step writes.
var stepFragments = map[Step]string{
	StepShopInfo:    "shopInfo",
	StepSetupSystem: "setupSystem",
	StepBranch:      "branch",
	StepTestApp:     "testApp",
	StepTrain:       "train",
	StepDeliver:     "deliver",
}

// ParseStep parses a step number from an address.
func ParseStep(raw string) (Step, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || !Step(n).Valid() {
		return 0, ErrUnknownStep
	}
	return Step(n), nil
}

func (s Step) Valid() bool { return s >= StepShopInfo && s <= StepDeliver }

func (s Step) Title() string { return stepTitles[s] }

// Fragment is the record field written by the step.
func (s Step) Fragment() string { return stepFragments[s] }

// Next returns the following step; ok is false after the last one.
func (s Step) Next() (Step, bool) {
	if s >= StepDeliver {
		return s, false
	}
	return s + 1, true
}

func (s Step) String() string { return strconv.Itoa(int(s)) }

// AllSteps lists the steps in order.
func AllSteps() []Step {
	out := make([]Step, 0, StepCount)
	for s := StepShopInfo; s <= StepDeliver; s++ {
		out = append(out, s)
	}
	return out
}

// Choice options.
const (
	SetupNew     = "new"
	SetupMigrate = "migrate"

	BranchSingle = "single"
	BranchMulti  = "multi"
)

var setupChoices = []view.Option{
	{Value: SetupNew, Label: "New installation"},
	{Value: SetupMigrate, Label: "Migrate from another system"},
}

var branchChoices = []view.Option{
	{Value: BranchSingle, Label: "Single outlet"},
	{Value: BranchMulti, Label: "Multiple branches"},
}

// Checklist catalogs. Submitted keys outside a step's catalog are dropped.
var checklists = map[Step][]view.Option{
	StepSetupSystem: {
		{Value: "install-app", Label: "Application installed"},
		{Value: "company-profile", Label: "Company profile filled in"},
		{Value: "tax-settings", Label: "Tax settings configured"},
		{Value: "payment-methods", Label: "Payment methods configured"},
		{Value: "import-products", Label: "Products imported"},
		{Value: "user-accounts", Label: "User accounts created"},
	},
	StepBranch: {
		{Value: "create-branches", Label: "Branches created"},
		{Value: "assign-warehouses", Label: "Warehouses assigned"},
		{Value: "assign-staff", Label: "Staff assigned"},
		{Value: "opening-stock", Label: "Opening stock entered"},
	},
	StepTestApp: {
		{Value: "sales-transaction", Label: "Sales transaction"},
		{Value: "print-receipt", Label: "Receipt printed"},
		{Value: "refund", Label: "Refund"},
		{Value: "stock-opname", Label: "Stock count"},
		{Value: "daily-report", Label: "Daily report"},
	},
	StepTrain: {
		{Value: "cashier", Label: "Cashier"},
		{Value: "inventory", Label: "Inventory"},
		{Value: "reports", Label: "Reports"},
		{Value: "administration", Label: "Administration"},
	},
	StepDeliver: {
		{Value: "hardware-handover", Label: "Hardware handed over"},
		{Value: "credentials-handover", Label: "Credentials handed over"},
		{Value: "support-contacts", Label: "Support contacts shared"},
		{Value: "go-live", Label: "Go-live confirmed"},
	},
}

// inCatalog filters keys to the step's catalog, keeping catalog order.
func inCatalog(step Step, keys []string) []string {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	out := []string{}
	for _, opt := range checklists[step] {
		if wanted[opt.Value] {
			out = append(out, opt.Value)
		}
	}
	return out
}
