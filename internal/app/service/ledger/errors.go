package ledger

import "errors"

var (
	// ErrInsufficientBalance rejects a debit that would drive the balance
	// below zero. The entry is not appended.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnknownAccount rejects a debit against a user that never received a
	// credit. Accounts are created lazily on first credit.
	ErrUnknownAccount = errors.New("unknown account")
)
