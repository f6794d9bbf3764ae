// Package token implements the reward-token ledger: balances, a bounded mint
// gated to the bound auction ledger, a burner allow-list and an address-level
// blacklist consulted before every transfer.
package token

import "math/big"

// Symbol and Decimals describe the reward token across the module.
const (
	Symbol   = "CYCLE"
	Decimals = 18
)

// State describes the persistence surface the token ledger needs from the
// surrounding state implementation.
type State interface {
	TokenBalance(addr [20]byte) (*big.Int, error)
	SetTokenBalance(addr [20]byte, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(amount *big.Int) error
	TokenLedgerBinding() ([20]byte, bool, error)
	SetTokenLedgerBinding(addr [20]byte) error
	TokenBlacklisted(addr [20]byte) (bool, error)
	SetTokenBlacklisted(addr [20]byte, flag bool) error
	TokenBurner(addr [20]byte) (bool, error)
	SetTokenBurner(addr [20]byte, flag bool) error
}

// Ledger exposes the token operations. MintCap bounds a single mint call; the
// recurring per-epoch quota sits well below it while still rejecting fat
// fingers on admin tooling.
type Ledger struct {
	st      State
	mintCap *big.Int
	owner   [20]byte
}

// NewLedger constructs a token ledger over the provided state. A nil mintCap
// disables the per-mint bound.
func NewLedger(st State, owner [20]byte, mintCap *big.Int) *Ledger {
	l := &Ledger{st: st, owner: owner}
	if mintCap != nil {
		l.mintCap = new(big.Int).Set(mintCap)
	}
	return l
}

func isZeroAddr(addr [20]byte) bool {
	return addr == [20]byte{}
}

// BindLedger registers the auction ledger address allowed to mint. It can be
// set exactly once.
func (l *Ledger) BindLedger(addr [20]byte) error {
	if isZeroAddr(addr) {
		return ErrZeroAddress
	}
	if _, bound, err := l.st.TokenLedgerBinding(); err != nil {
		return err
	} else if bound {
		return ErrAlreadyConfigured
	}
	return l.st.SetTokenLedgerBinding(addr)
}

// Mint credits freshly created tokens to the recipient. Only the bound auction
// ledger may mint, and a single mint may not exceed the configured cap.
func (l *Ledger) Mint(caller, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	bound, ok, err := l.st.TokenLedgerBinding()
	if err != nil {
		return err
	}
	if !ok || caller != bound {
		return ErrNotLedger
	}
	if l.mintCap != nil && amount.Cmp(l.mintCap) > 0 {
		return ErrMintCapExceeded
	}
	balance, err := l.st.TokenBalance(to)
	if err != nil {
		return err
	}
	supply, err := l.st.TokenSupply()
	if err != nil {
		return err
	}
	if err := l.st.SetTokenBalance(to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return l.st.SetTokenSupply(new(big.Int).Add(supply, amount))
}

// Burn destroys tokens held by the caller. Callers must be on the burner
// allow-list; the owner is always allowed.
func (l *Ledger) Burn(caller [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	allowed, err := l.IsBurnAllowed(caller)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrBurnNotAllowed
	}
	balance, err := l.st.TokenBalance(caller)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := l.st.TokenSupply()
	if err != nil {
		return err
	}
	if err := l.st.SetTokenBalance(caller, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return l.st.SetTokenSupply(new(big.Int).Sub(supply, amount))
}

// Transfer moves tokens between accounts, refusing blacklisted endpoints.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if isZeroAddr(to) {
		return ErrZeroAddress
	}
	for _, addr := range [][20]byte{from, to} {
		listed, err := l.st.TokenBlacklisted(addr)
		if err != nil {
			return err
		}
		if listed {
			return ErrBlacklisted
		}
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance, err := l.st.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := l.st.TokenBalance(to)
	if err != nil {
		return err
	}
	if err := l.st.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.st.SetTokenBalance(to, new(big.Int).Add(toBalance, amount))
}

// BalanceOf returns the current balance for the address.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	return l.st.TokenBalance(addr)
}

// TotalSupply returns the outstanding minted supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	return l.st.TokenSupply()
}

// IsBurnAllowed reports whether the address may burn its own balance.
func (l *Ledger) IsBurnAllowed(addr [20]byte) (bool, error) {
	if addr == l.owner {
		return true, nil
	}
	return l.st.TokenBurner(addr)
}

// AddBurner grants burn rights. Owner-only.
func (l *Ledger) AddBurner(caller, addr [20]byte) error {
	if caller != l.owner {
		return ErrUnauthorizedRegistry
	}
	if isZeroAddr(addr) {
		return ErrZeroAddress
	}
	flagged, err := l.st.TokenBurner(addr)
	if err != nil {
		return err
	}
	if flagged {
		return ErrAlreadyBurner
	}
	return l.st.SetTokenBurner(addr, true)
}

// RemoveBurner revokes burn rights. Owner-only.
func (l *Ledger) RemoveBurner(caller, addr [20]byte) error {
	if caller != l.owner {
		return ErrUnauthorizedRegistry
	}
	flagged, err := l.st.TokenBurner(addr)
	if err != nil {
		return err
	}
	if !flagged {
		return ErrNotBurner
	}
	return l.st.SetTokenBurner(addr, false)
}

// AddToBlacklist blocks the address from sending or receiving. Owner-only.
func (l *Ledger) AddToBlacklist(caller, addr [20]byte) error {
	if caller != l.owner {
		return ErrUnauthorizedRegistry
	}
	listed, err := l.st.TokenBlacklisted(addr)
	if err != nil {
		return err
	}
	if listed {
		return ErrAlreadyBlacklisted
	}
	return l.st.SetTokenBlacklisted(addr, true)
}

// RemoveFromBlacklist lifts a blacklist entry. Owner-only.
func (l *Ledger) RemoveFromBlacklist(caller, addr [20]byte) error {
	if caller != l.owner {
		return ErrUnauthorizedRegistry
	}
	listed, err := l.st.TokenBlacklisted(addr)
	if err != nil {
		return err
	}
	if !listed {
		return ErrNotBlacklisted
	}
	return l.st.SetTokenBlacklisted(addr, false)
}

// IsBlacklisted reports whether the address is currently blocked.
func (l *Ledger) IsBlacklisted(addr [20]byte) (bool, error) {
	return l.st.TokenBlacklisted(addr)
}
