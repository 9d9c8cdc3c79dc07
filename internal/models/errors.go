package models

import "errors"

var (
	// ErrInvalidInput indicates a missing symbol or a non-positive share count.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSymbolNotFound indicates the quote source could not resolve the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrAccountNotFound indicates the account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInsufficientFunds indicates the account cash cannot cover the purchase.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientShares indicates a sell exceeds the user's net shares.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrDuplicateTimestamp indicates two trades for one user collided on
	// executed_at. The ledger retries these with a fresh clock reading.
	ErrDuplicateTimestamp = errors.New("duplicate transaction timestamp")
)
