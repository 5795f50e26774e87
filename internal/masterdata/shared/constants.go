package shared

const (
	// DefaultPage is the first page of every list.
	DefaultPage = 1
	// DefaultPageSize applies when the handler is not given one.
	DefaultPageSize = 20

	// ConfirmValue must be posted as `confirm` to carry out a delete.
	ConfirmValue = "yes"
)
