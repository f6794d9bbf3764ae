package token

import (
	"errors"
	"math/big"
	"testing"
)

type memState struct {
	balances  map[[20]byte]*big.Int
	supply    *big.Int
	binding   [20]byte
	bound     bool
	blacklist map[[20]byte]bool
	burners   map[[20]byte]bool
}

func newMemState() *memState {
	return &memState{
		balances:  make(map[[20]byte]*big.Int),
		supply:    big.NewInt(0),
		blacklist: make(map[[20]byte]bool),
		burners:   make(map[[20]byte]bool),
	}
}

func (m *memState) TokenBalance(addr [20]byte) (*big.Int, error) {
	if balance, ok := m.balances[addr]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *memState) SetTokenBalance(addr [20]byte, amount *big.Int) error {
	m.balances[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *memState) TokenSupply() (*big.Int, error) {
	return new(big.Int).Set(m.supply), nil
}

func (m *memState) SetTokenSupply(amount *big.Int) error {
	m.supply = new(big.Int).Set(amount)
	return nil
}

func (m *memState) TokenLedgerBinding() ([20]byte, bool, error) {
	return m.binding, m.bound, nil
}

func (m *memState) SetTokenLedgerBinding(addr [20]byte) error {
	m.binding = addr
	m.bound = true
	return nil
}

func (m *memState) TokenBlacklisted(addr [20]byte) (bool, error) {
	return m.blacklist[addr], nil
}

func (m *memState) SetTokenBlacklisted(addr [20]byte, flag bool) error {
	m.blacklist[addr] = flag
	return nil
}

func (m *memState) TokenBurner(addr [20]byte) (bool, error) {
	return m.burners[addr], nil
}

func (m *memState) SetTokenBurner(addr [20]byte, flag bool) error {
	m.burners[addr] = flag
	return nil
}

func addr(last byte) [20]byte {
	var a [20]byte
	a[19] = last
	return a
}

var (
	owner  = addr(0x01)
	minter = addr(0x02)
	alice  = addr(0x0a)
	bob    = addr(0x0b)
)

func newTestLedger(t *testing.T, mintCap *big.Int) *Ledger {
	t.Helper()
	l := NewLedger(newMemState(), owner, mintCap)
	if err := l.BindLedger(minter); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return l
}

func mustBalance(t *testing.T, l *Ledger, a [20]byte) *big.Int {
	t.Helper()
	balance, err := l.BalanceOf(a)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func TestBindLedgerOnce(t *testing.T) {
	l := NewLedger(newMemState(), owner, nil)
	if err := l.BindLedger([20]byte{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero bind: %v", err)
	}
	if err := l.BindLedger(minter); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := l.BindLedger(addr(0x03)); !errors.Is(err, ErrAlreadyConfigured) {
		t.Fatalf("rebind: %v", err)
	}
}

func TestMintGatedToBoundLedger(t *testing.T) {
	l := NewLedger(newMemState(), owner, nil)
	if err := l.Mint(minter, alice, big.NewInt(100)); !errors.Is(err, ErrNotLedger) {
		t.Fatalf("mint before bind: %v", err)
	}
	if err := l.BindLedger(minter); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := l.Mint(alice, alice, big.NewInt(100)); !errors.Is(err, ErrNotLedger) {
		t.Fatalf("mint by stranger: %v", err)
	}
	if err := l.Mint(minter, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got := mustBalance(t, l, alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance = %s", got)
	}
	supply, err := l.TotalSupply()
	if err != nil || supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("supply = %s err=%v", supply, err)
	}
}

func TestMintCap(t *testing.T) {
	l := newTestLedger(t, big.NewInt(1000))
	if err := l.Mint(minter, alice, big.NewInt(1001)); !errors.Is(err, ErrMintCapExceeded) {
		t.Fatalf("over cap: %v", err)
	}
	if err := l.Mint(minter, alice, big.NewInt(1000)); err != nil {
		t.Fatalf("at cap: %v", err)
	}
	// The cap is per call, not cumulative.
	if err := l.Mint(minter, alice, big.NewInt(1000)); err != nil {
		t.Fatalf("second mint: %v", err)
	}
	if err := l.Mint(minter, alice, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero mint: %v", err)
	}
}

func TestTransfer(t *testing.T) {
	l := newTestLedger(t, nil)
	if err := l.Mint(minter, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := l.Transfer(alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := mustBalance(t, l, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice = %s", got)
	}
	if got := mustBalance(t, l, bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("bob = %s", got)
	}

	if err := l.Transfer(alice, bob, big.NewInt(61)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw: %v", err)
	}
	if err := l.Transfer(alice, [20]byte{}, big.NewInt(1)); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero recipient: %v", err)
	}
	// Zero-amount transfers are accepted no-ops.
	if err := l.Transfer(alice, bob, big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
}

func TestBlacklistBlocksBothEnds(t *testing.T) {
	l := newTestLedger(t, nil)
	if err := l.Mint(minter, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := l.AddToBlacklist(alice, bob); !errors.Is(err, ErrUnauthorizedRegistry) {
		t.Fatalf("non-owner blacklist: %v", err)
	}
	if err := l.AddToBlacklist(owner, bob); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := l.AddToBlacklist(owner, bob); !errors.Is(err, ErrAlreadyBlacklisted) {
		t.Fatalf("double blacklist: %v", err)
	}

	if err := l.Transfer(alice, bob, big.NewInt(1)); !errors.Is(err, ErrBlacklisted) {
		t.Fatalf("transfer to listed: %v", err)
	}
	if err := l.Transfer(bob, alice, big.NewInt(0)); !errors.Is(err, ErrBlacklisted) {
		t.Fatalf("transfer from listed: %v", err)
	}

	if err := l.RemoveFromBlacklist(owner, bob); err != nil {
		t.Fatalf("unlist: %v", err)
	}
	if err := l.RemoveFromBlacklist(owner, bob); !errors.Is(err, ErrNotBlacklisted) {
		t.Fatalf("double unlist: %v", err)
	}
	if err := l.Transfer(alice, bob, big.NewInt(1)); err != nil {
		t.Fatalf("transfer after unlist: %v", err)
	}

	listed, err := l.IsBlacklisted(bob)
	if err != nil || listed {
		t.Fatalf("IsBlacklisted = %v err=%v", listed, err)
	}
}

func TestBurnRequiresAllowList(t *testing.T) {
	l := newTestLedger(t, nil)
	if err := l.Mint(minter, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Mint(minter, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint owner: %v", err)
	}

	if err := l.Burn(alice, big.NewInt(10)); !errors.Is(err, ErrBurnNotAllowed) {
		t.Fatalf("unlisted burn: %v", err)
	}
	// The owner can always burn its own balance.
	if err := l.Burn(owner, big.NewInt(10)); err != nil {
		t.Fatalf("owner burn: %v", err)
	}

	if err := l.AddBurner(alice, alice); !errors.Is(err, ErrUnauthorizedRegistry) {
		t.Fatalf("self-grant: %v", err)
	}
	if err := l.AddBurner(owner, alice); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := l.AddBurner(owner, alice); !errors.Is(err, ErrAlreadyBurner) {
		t.Fatalf("double grant: %v", err)
	}

	if err := l.Burn(alice, big.NewInt(40)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := mustBalance(t, l, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice after burn = %s", got)
	}
	supply, err := l.TotalSupply()
	if err != nil || supply.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("supply after burns = %s err=%v", supply, err)
	}

	if err := l.Burn(alice, big.NewInt(100)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overburn: %v", err)
	}

	if err := l.RemoveBurner(owner, alice); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := l.RemoveBurner(owner, alice); !errors.Is(err, ErrNotBurner) {
		t.Fatalf("double revoke: %v", err)
	}
	if err := l.Burn(alice, big.NewInt(1)); !errors.Is(err, ErrBurnNotAllowed) {
		t.Fatalf("burn after revoke: %v", err)
	}
}
