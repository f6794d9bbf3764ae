package state

import (
	"math/big"

	"cyclechain/native/auction"
)

var (
	epochIndexPrefix    = []byte("auction:epoch-index")
	epochPrefix         = []byte("auction:epoch:")
	contributionPrefix  = []byte("auction:contribution:")
	userTotalPrefix     = []byte("auction:user-total:")
	timelinePrefix      = []byte("auction:timeline:")
	poolPrefix          = []byte("auction:pool:")
	positionPrefix      = []byte("auction:position:")
	beneficiaryPrefix   = []byte("auction:beneficiary")
	custodyPrefix       = []byte("auction:custody")
	pairBindingPrefix   = []byte("auction:pair")
	pendingLiquidityKey = []byte("auction:pending-liquidity")
)

type epochRecord struct {
	TotalContribution *big.Int
	MintQuota         *big.Int
}

type contributionRecord struct {
	Amount  *big.Int
	Claimed bool
}

type poolRecord struct {
	TotalPrincipal *big.Int
	Index          *big.Int
	Retained       *big.Int
}

type positionRecord struct {
	Principal  *big.Int
	Checkpoint *big.Int
}

type beneficiaryRecord struct {
	Currency *big.Int
	Token    *big.Int
	LPToken  *big.Int
}

type custodyRecord struct {
	Currency *big.Int
	LPToken  *big.Int
}

func epochKey(id uint64) []byte {
	return hashKey(epochPrefix, uint64Bytes(id))
}

func contributionKey(user [20]byte, id uint64) []byte {
	return hashKey(contributionPrefix, user[:], uint64Bytes(id))
}

func userTotalKey(user [20]byte) []byte {
	return hashKey(userTotalPrefix, user[:])
}

func timelineKey(kind auction.TimelineKind, user [20]byte) []byte {
	return hashKey(timelinePrefix, []byte{byte(kind)}, user[:])
}

func poolKey(id auction.PoolID) []byte {
	return hashKey(poolPrefix, []byte{byte(id)})
}

func positionKey(pool auction.PoolID, user [20]byte, id uint64) []byte {
	return hashKey(positionPrefix, []byte{byte(pool)}, user[:], uint64Bytes(id))
}

// EpochIndex returns the insertion-ordered identifiers of epochs with
// recorded activity.
func (m *Manager) EpochIndex() ([]uint64, error) {
	var ids []uint64
	if _, err := m.load(hashKey(epochIndexPrefix), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetEpochIndex persists the epoch identifier list.
func (m *Manager) SetEpochIndex(ids []uint64) error {
	return m.store(hashKey(epochIndexPrefix), ids)
}

// Epoch loads one epoch bucket.
func (m *Manager) Epoch(id uint64) (*auction.Epoch, bool, error) {
	var rec epochRecord
	ok, err := m.load(epochKey(id), &rec)
	if err != nil || !ok {
		return (&auction.Epoch{}).Normalize(), false, err
	}
	return (&auction.Epoch{TotalContribution: rec.TotalContribution, MintQuota: rec.MintQuota}).Normalize(), true, nil
}

// SetEpoch persists one epoch bucket.
func (m *Manager) SetEpoch(id uint64, ep *auction.Epoch) error {
	ep.Normalize()
	return m.store(epochKey(id), &epochRecord{TotalContribution: ep.TotalContribution, MintQuota: ep.MintQuota})
}

// Contribution loads a (user, epoch) contribution record.
func (m *Manager) Contribution(user [20]byte, id uint64) (*auction.Contribution, bool, error) {
	var rec contributionRecord
	ok, err := m.load(contributionKey(user, id), &rec)
	if err != nil || !ok {
		return (&auction.Contribution{}).Normalize(), false, err
	}
	return (&auction.Contribution{Amount: rec.Amount, Claimed: rec.Claimed}).Normalize(), true, nil
}

// SetContribution persists a (user, epoch) contribution record.
func (m *Manager) SetContribution(user [20]byte, id uint64, c *auction.Contribution) error {
	c.Normalize()
	return m.store(contributionKey(user, id), &contributionRecord{Amount: c.Amount, Claimed: c.Claimed})
}

// UserTotalContributed loads a user's lifetime contribution total.
func (m *Manager) UserTotalContributed(user [20]byte) (*big.Int, error) {
	total := new(big.Int)
	if _, err := m.load(userTotalKey(user), total); err != nil {
		return nil, err
	}
	return total, nil
}

// SetUserTotalContributed persists a user's lifetime contribution total.
func (m *Manager) SetUserTotalContributed(user [20]byte, total *big.Int) error {
	return m.store(userTotalKey(user), total)
}

// Timeline loads a user's sparse open-epoch list.
func (m *Manager) Timeline(kind auction.TimelineKind, user [20]byte) ([]uint64, error) {
	var ids []uint64
	if _, err := m.load(timelineKey(kind, user), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetTimeline persists a user's sparse open-epoch list.
func (m *Manager) SetTimeline(kind auction.TimelineKind, user [20]byte, ids []uint64) error {
	if ids == nil {
		ids = []uint64{}
	}
	return m.store(timelineKey(kind, user), ids)
}

// Pool loads a pool's aggregate state, zero-valued when unset.
func (m *Manager) Pool(id auction.PoolID) (*auction.PoolState, error) {
	var rec poolRecord
	if _, err := m.load(poolKey(id), &rec); err != nil {
		return nil, err
	}
	return (&auction.PoolState{TotalPrincipal: rec.TotalPrincipal, Index: rec.Index, Retained: rec.Retained}).Normalize(), nil
}

// SetPool persists a pool's aggregate state.
func (m *Manager) SetPool(id auction.PoolID, ps *auction.PoolState) error {
	ps.Normalize()
	return m.store(poolKey(id), &poolRecord{TotalPrincipal: ps.TotalPrincipal, Index: ps.Index, Retained: ps.Retained})
}

// Position loads an open stake position.
func (m *Manager) Position(pool auction.PoolID, user [20]byte, id uint64) (*auction.Position, bool, error) {
	var rec positionRecord
	ok, err := m.load(positionKey(pool, user, id), &rec)
	if err != nil || !ok {
		return (&auction.Position{}).Normalize(), false, err
	}
	return (&auction.Position{Principal: rec.Principal, Checkpoint: rec.Checkpoint}).Normalize(), true, nil
}

// SetPosition persists an open stake position.
func (m *Manager) SetPosition(pool auction.PoolID, user [20]byte, id uint64, pos *auction.Position) error {
	pos.Normalize()
	return m.store(positionKey(pool, user, id), &positionRecord{Principal: pos.Principal, Checkpoint: pos.Checkpoint})
}

// RemovePosition tombstones a settled position.
func (m *Manager) RemovePosition(pool auction.PoolID, user [20]byte, id uint64) error {
	return m.remove(positionKey(pool, user, id))
}

// Beneficiary loads the undrained protocol fee balances.
func (m *Manager) Beneficiary() (*auction.Beneficiary, error) {
	var rec beneficiaryRecord
	if _, err := m.load(hashKey(beneficiaryPrefix), &rec); err != nil {
		return nil, err
	}
	return (&auction.Beneficiary{Currency: rec.Currency, Token: rec.Token, LPToken: rec.LPToken}).Normalize(), nil
}

// SetBeneficiary persists the protocol fee balances.
func (m *Manager) SetBeneficiary(b *auction.Beneficiary) error {
	b.Normalize()
	return m.store(hashKey(beneficiaryPrefix), &beneficiaryRecord{Currency: b.Currency, Token: b.Token, LPToken: b.LPToken})
}

// Custody loads the ledger's currency and liquidity-token holdings.
func (m *Manager) Custody() (*auction.Custody, error) {
	var rec custodyRecord
	if _, err := m.load(hashKey(custodyPrefix), &rec); err != nil {
		return nil, err
	}
	return (&auction.Custody{Currency: rec.Currency, LPToken: rec.LPToken}).Normalize(), nil
}

// SetCustody persists the ledger's holdings.
func (m *Manager) SetCustody(c *auction.Custody) error {
	c.Normalize()
	return m.store(hashKey(custodyPrefix), &custodyRecord{Currency: c.Currency, LPToken: c.LPToken})
}

// PairBinding returns the registered liquidity-token address, if bound.
func (m *Manager) PairBinding() ([20]byte, bool, error) {
	var raw []byte
	ok, err := m.load(hashKey(pairBindingPrefix), &raw)
	if err != nil || !ok || len(raw) != 20 {
		return [20]byte{}, false, err
	}
	var addr [20]byte
	copy(addr[:], raw)
	return addr, true, nil
}

// SetPairBinding registers the liquidity-token address.
func (m *Manager) SetPairBinding(addr [20]byte) error {
	return m.store(hashKey(pairBindingPrefix), addr[:])
}

// PendingLiquidity returns currency reserved for the liquidity collaborator.
func (m *Manager) PendingLiquidity() (*big.Int, error) {
	pending := new(big.Int)
	if _, err := m.load(hashKey(pendingLiquidityKey), pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// SetPendingLiquidity persists the reserved currency amount.
func (m *Manager) SetPendingLiquidity(amount *big.Int) error {
	if amount == nil {
		amount = big.NewInt(0)
	}
	return m.store(hashKey(pendingLiquidityKey), amount)
}
