package auction

import "math/big"

// PoolID names one of the two yield pools.
type PoolID uint8

const (
	// PoolCurrencyYield locks reward token and pays out currency inflows.
	PoolCurrencyYield PoolID = iota + 1
	// PoolTokenYield locks the registered liquidity token and pays out
	// reward token inflows.
	PoolTokenYield
)

func (p PoolID) valid() bool {
	return p == PoolCurrencyYield || p == PoolTokenYield
}

// TimelineKind selects one of the per-user sparse epoch lists.
type TimelineKind uint8

const (
	TimelineContributions TimelineKind = iota + 1
	TimelineStakes
	TimelineLPStakes
)

// Epoch is one day-aligned accounting bucket. Buckets are created lazily on
// first contribution; idle days never materialize one. Past epochs are
// immutable apart from per-contributor claim state.
type Epoch struct {
	TotalContribution *big.Int
	MintQuota         *big.Int
}

// Contribution records one user's currency deposit into a single epoch.
type Contribution struct {
	Amount  *big.Int
	Claimed bool
}

// PoolState carries a pool's aggregate accounting: total locked principal, the
// monotone UQ128x128 yield index, and inflows retained while the pool was
// empty.
type PoolState struct {
	TotalPrincipal *big.Int
	Index          *big.Int
	Retained       *big.Int
}

// Position is one user's open stake in a pool, keyed by the epoch it was
// opened in. Same-day deposits coalesce into the existing position.
type Position struct {
	Principal  *big.Int
	Checkpoint *big.Int
}

// Beneficiary accumulates the protocol fee cuts until withdrawn.
type Beneficiary struct {
	Currency *big.Int
	Token    *big.Int
	LPToken  *big.Int
}

// Custody tracks assets the ledger holds on behalf of participants that are
// not represented by the token ledger: incoming settlement currency and
// deposited liquidity tokens.
type Custody struct {
	Currency *big.Int
	LPToken  *big.Int
}

func normalizeBig(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}

// Normalize replaces nil amounts with zeros so records loaded from state can
// be used without nil checks.
func (e *Epoch) Normalize() *Epoch {
	e.TotalContribution = normalizeBig(e.TotalContribution)
	e.MintQuota = normalizeBig(e.MintQuota)
	return e
}

func (c *Contribution) Normalize() *Contribution {
	c.Amount = normalizeBig(c.Amount)
	return c
}

func (p *PoolState) Normalize() *PoolState {
	p.TotalPrincipal = normalizeBig(p.TotalPrincipal)
	p.Index = normalizeBig(p.Index)
	p.Retained = normalizeBig(p.Retained)
	return p
}

func (p *Position) Normalize() *Position {
	p.Principal = normalizeBig(p.Principal)
	p.Checkpoint = normalizeBig(p.Checkpoint)
	return p
}

func (b *Beneficiary) Normalize() *Beneficiary {
	b.Currency = normalizeBig(b.Currency)
	b.Token = normalizeBig(b.Token)
	b.LPToken = normalizeBig(b.LPToken)
	return b
}

func (c *Custody) Normalize() *Custody {
	c.Currency = normalizeBig(c.Currency)
	c.LPToken = normalizeBig(c.LPToken)
	return c
}
