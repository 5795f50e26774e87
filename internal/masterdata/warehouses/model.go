package warehouses

// Warehouse is a stock location.
type Warehouse struct {
	ID             int64  `json:"id,omitempty"`
	OrganizationID *int64 `json:"organizationId,omitempty"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	ContactName    string `json:"contactName"`
	ContactTel     string `json:"contactTel"`
	ContactEmail   string `json:"contactEmail"`
	BranchID       *int64 `json:"branchId,omitempty"`
	ReceiveEmail   bool   `json:"receiveEmail"`
}

// Branch is the read-only branch reference offered as a warehouse option.
type Branch struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
