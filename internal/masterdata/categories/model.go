package categories

// Category groups stock items and suppliers.
type Category struct {
	ID             int64  `json:"id,omitempty"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	OrganizationID *int64 `json:"organizationId,omitempty"`
}
