package suppliers

// Supplier is a vendor of stock items.
type Supplier struct {
	ID           int64  `json:"id,omitempty"`
	CompanyName  string `json:"companyName"`
	CategoryID   *int64 `json:"categoryId,omitempty"`
	Address      string `json:"address"`
	ContactName  string `json:"contactName"`
	ContactTel   string `json:"contactTel"`
	ContactEmail string `json:"contactEmail"`
	IsActive     bool   `json:"isActive"`
}
