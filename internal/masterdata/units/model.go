package units

// Unit is a unit of measure for stock items.
type Unit struct {
	ID           int64  `json:"id,omitempty"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Label renders "Name (abbr)".
func (u Unit) Label() string {
	if u.Abbreviation == "" {
		return u.Name
	}
	return u.Name + " (" + u.Abbreviation + ")"
}
