package state

import "math/big"

var (
	tokenBalancePrefix   = []byte("token:balance:")
	tokenSupplyPrefix    = []byte("token:supply")
	tokenBindingPrefix   = []byte("token:ledger")
	tokenBlacklistPrefix = []byte("token:blacklist:")
	tokenBurnerPrefix    = []byte("token:burner:")
)

func tokenBalanceKey(addr [20]byte) []byte {
	return hashKey(tokenBalancePrefix, addr[:])
}

func tokenBlacklistKey(addr [20]byte) []byte {
	return hashKey(tokenBlacklistPrefix, addr[:])
}

func tokenBurnerKey(addr [20]byte) []byte {
	return hashKey(tokenBurnerPrefix, addr[:])
}

// TokenBalance returns the reward-token balance for the address.
func (m *Manager) TokenBalance(addr [20]byte) (*big.Int, error) {
	balance := new(big.Int)
	if _, err := m.load(tokenBalanceKey(addr), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// SetTokenBalance persists the reward-token balance for the address.
func (m *Manager) SetTokenBalance(addr [20]byte, amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.store(tokenBalanceKey(addr), amount)
}

// TokenSupply returns the outstanding minted supply.
func (m *Manager) TokenSupply() (*big.Int, error) {
	supply := new(big.Int)
	if _, err := m.load(hashKey(tokenSupplyPrefix), supply); err != nil {
		return nil, err
	}
	return supply, nil
}

// SetTokenSupply persists the outstanding minted supply.
func (m *Manager) SetTokenSupply(amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.store(hashKey(tokenSupplyPrefix), amount)
}

// TokenLedgerBinding returns the address allowed to mint, if bound.
func (m *Manager) TokenLedgerBinding() ([20]byte, bool, error) {
	var raw []byte
	ok, err := m.load(hashKey(tokenBindingPrefix), &raw)
	if err != nil || !ok || len(raw) != 20 {
		return [20]byte{}, false, err
	}
	var addr [20]byte
	copy(addr[:], raw)
	return addr, true, nil
}

// SetTokenLedgerBinding registers the minting address.
func (m *Manager) SetTokenLedgerBinding(addr [20]byte) error {
	return m.store(hashKey(tokenBindingPrefix), addr[:])
}

// TokenBlacklisted reports whether the address is blocked from transfers.
func (m *Manager) TokenBlacklisted(addr [20]byte) (bool, error) {
	var flag bool
	if _, err := m.load(tokenBlacklistKey(addr), &flag); err != nil {
		return false, err
	}
	return flag, nil
}

// SetTokenBlacklisted persists the blacklist flag for the address.
func (m *Manager) SetTokenBlacklisted(addr [20]byte, flag bool) error {
	return m.store(tokenBlacklistKey(addr), flag)
}

// TokenBurner reports whether the address holds burn rights.
func (m *Manager) TokenBurner(addr [20]byte) (bool, error) {
	var flag bool
	if _, err := m.load(tokenBurnerKey(addr), &flag); err != nil {
		return false, err
	}
	return flag, nil
}

// SetTokenBurner persists the burner flag for the address.
func (m *Manager) SetTokenBurner(addr [20]byte, flag bool) error {
	return m.store(tokenBurnerKey(addr), flag)
}
