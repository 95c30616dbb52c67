package domain

import "errors"

var (
	ErrInvalidAmount           = errors.New("amount must be a positive number")
	ErrInvalidLine             = errors.New("invalid journal entry line")
	ErrUnbalancedEntry         = errors.New("journal entry debits and credits do not balance")
	ErrAccountingNotConfigured = errors.New("required chart of accounts entry is not set up")
	ErrInsufficientFunds       = errors.New("insufficient cash balance")
	ErrCrossOwnerOperation     = errors.New("trading accounts belong to different owners")
	ErrSameAccountOperation    = errors.New("source and destination accounts are the same")
	ErrNotFound                = errors.New("record not found")
	ErrNotTrader               = errors.New("commission recipient must be a trader")
)
