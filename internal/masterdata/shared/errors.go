package shared

import (
	"fmt"
	"strconv"
	"strings"

	internalShared "github.com/odyssey-erp/odyssey-backoffice/internal/shared"
)

// ErrInvalidID is returned when an id in the address is not a positive integer.
var ErrInvalidID = internalShared.ErrInvalidID

// ParseID parses a positive integer record id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}
