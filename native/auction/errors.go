package auction

import "errors"

var (
	ErrInvalidAmount     = errors.New("auction: invalid amount")
	ErrTooSoon           = errors.New("auction: epoch not yet elapsed")
	ErrNothingToClaim    = errors.New("auction: nothing to claim")
	ErrNothingToSettle   = errors.New("auction: nothing to settle")
	ErrUnsupportedAsset  = errors.New("auction: unsupported liquidity token")
	ErrWalletCapExceeded = errors.New("auction: wallet cap exceeded")
	ErrZeroAddress       = errors.New("auction: zero address")
	ErrAlreadyConfigured = errors.New("auction: already configured")
	ErrUnknownPool       = errors.New("auction: unknown pool")
)
