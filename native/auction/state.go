package auction

import "math/big"

// State describes the persistence surface the auction engine needs from the
// surrounding state implementation. Lookups returning a bool distinguish
// "record absent" from a stored zero record.
type State interface {
	EpochIndex() ([]uint64, error)
	SetEpochIndex(ids []uint64) error
	Epoch(id uint64) (*Epoch, bool, error)
	SetEpoch(id uint64, ep *Epoch) error

	Contribution(user [20]byte, id uint64) (*Contribution, bool, error)
	SetContribution(user [20]byte, id uint64, c *Contribution) error
	UserTotalContributed(user [20]byte) (*big.Int, error)
	SetUserTotalContributed(user [20]byte, total *big.Int) error

	Timeline(kind TimelineKind, user [20]byte) ([]uint64, error)
	SetTimeline(kind TimelineKind, user [20]byte, ids []uint64) error

	Pool(id PoolID) (*PoolState, error)
	SetPool(id PoolID, ps *PoolState) error
	Position(pool PoolID, user [20]byte, id uint64) (*Position, bool, error)
	SetPosition(pool PoolID, user [20]byte, id uint64, pos *Position) error
	RemovePosition(pool PoolID, user [20]byte, id uint64) error

	Beneficiary() (*Beneficiary, error)
	SetBeneficiary(b *Beneficiary) error
	Custody() (*Custody, error)
	SetCustody(c *Custody) error

	PairBinding() ([20]byte, bool, error)
	SetPairBinding(addr [20]byte) error
	PendingLiquidity() (*big.Int, error)
	SetPendingLiquidity(amount *big.Int) error
}

// TokenLedger is the slice of the reward-token ledger the engine drives.
type TokenLedger interface {
	Mint(caller, to [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int) error
	BalanceOf(addr [20]byte) (*big.Int, error)
}
