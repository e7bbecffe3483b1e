package ledger

import "errors"

var (
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")
	ErrTitleRequired   = errors.New("title is required")
	ErrInvalidAmount   = errors.New("amount must be positive")
)
