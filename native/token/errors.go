package token

import "errors"

var (
	ErrZeroAddress          = errors.New("token: zero address")
	ErrAlreadyConfigured    = errors.New("token: ledger already bound")
	ErrNotLedger            = errors.New("token: caller is not the bound ledger")
	ErrMintCapExceeded      = errors.New("token: mint over cap")
	ErrInvalidAmount        = errors.New("token: invalid amount")
	ErrInsufficientBalance  = errors.New("token: insufficient balance")
	ErrBlacklisted          = errors.New("token: address blacklisted")
	ErrAlreadyBlacklisted   = errors.New("token: already blacklisted")
	ErrNotBlacklisted       = errors.New("token: not blacklisted")
	ErrAlreadyBurner        = errors.New("token: already burner")
	ErrNotBurner            = errors.New("token: not a burner")
	ErrBurnNotAllowed       = errors.New("token: caller is not a burner")
	ErrUnauthorizedRegistry = errors.New("token: unauthorized registry change")
)
