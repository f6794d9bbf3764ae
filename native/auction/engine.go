// Package auction implements the recurring day-bucketed token auction and the
// two pro-rata yield pools that feed on its flows. All value accounting runs
// through an epoch-indexed ledger plus per-pool yield accumulators, so no
// operation ever iterates elapsed days or enrolled stakers.
package auction

import (
	"math/big"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"cyclechain/core/epoch"
	"cyclechain/core/events"
	"cyclechain/native/liquidity"
)

// ModuleAddress is the ledger's custody account on the token ledger: minted
// quotas and staked principal sit here until paid out.
var ModuleAddress = deriveAddress("auction/pool")

// ammAddress receives the token side of liquidity provisioning; tokens sent
// here have left ledger custody for the external market maker.
var ammAddress = deriveAddress("auction/liquidity")

func deriveAddress(tag string) [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256([]byte(tag))[12:])
	return addr
}

// Engine executes auction and staking state transitions against the supplied
// state. It holds no mutable state of its own; callers provide the clock
// reading and serialize invocations.
type Engine struct {
	st     State
	token  TokenLedger
	router liquidity.Router
	emit   events.Emitter
	params Params
	epochs epoch.Config
}

// NewEngine constructs an engine over the provided collaborators.
func NewEngine(st State, tok TokenLedger, epochs epoch.Config, params Params) (*Engine, error) {
	if err := epochs.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		st:     st,
		token:  tok,
		emit:   events.NoopEmitter{},
		params: params,
		epochs: epochs,
	}, nil
}

// SetEmitter installs an event sink. A nil emitter restores the noop sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emit = events.NoopEmitter{}
		return
	}
	e.emit = emitter
}

// SetRouter installs the liquidity collaborator. Routing stays dormant while
// unset even when LiquidityBps is configured; reserved currency accrues until
// a router appears.
func (e *Engine) SetRouter(router liquidity.Router) {
	e.router = router
}

// Params returns a copy of the engine's economic configuration.
func (e *Engine) Params() Params {
	p := e.params
	p.MintQuota = normalizeBig(p.MintQuota)
	if p.WalletCap != nil {
		p.WalletCap = new(big.Int).Set(p.WalletCap)
	}
	return p
}

// EpochConfig returns the epoch quantization settings.
func (e *Engine) EpochConfig() epoch.Config {
	return e.epochs
}

// CurrentEpoch returns the identifier of the epoch the instant falls into.
func (e *Engine) CurrentEpoch(now time.Time) uint64 {
	return e.epochs.Quantize(now)
}

// EpochCount returns how many epochs have recorded activity. Idle days never
// enter the index.
func (e *Engine) EpochCount() (int, error) {
	index, err := e.st.EpochIndex()
	if err != nil {
		return 0, err
	}
	return len(index), nil
}

// RegisterPair binds the external liquidity token accepted by the token-yield
// pool. It can be set exactly once.
func (e *Engine) RegisterPair(addr [20]byte) error {
	if addr == ([20]byte{}) {
		return ErrZeroAddress
	}
	if _, bound, err := e.st.PairBinding(); err != nil {
		return err
	} else if bound {
		return ErrAlreadyConfigured
	}
	return e.st.SetPairBinding(addr)
}

// Contribute records a currency deposit into the current epoch, lazily
// materializing the epoch and its mint quota, crediting the beneficiary cut
// and pushing the distributable remainder into the currency-yield pool.
func (e *Engine) Contribute(now time.Time, user [20]byte, amount *big.Int) (uint64, error) {
	if user == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	id := e.epochs.Quantize(now)
	contribution, seen, err := e.st.Contribution(user, id)
	if err != nil {
		return 0, err
	}
	if e.params.WalletCap != nil {
		projected := new(big.Int).Add(contribution.Amount, amount)
		if projected.Cmp(e.params.WalletCap) > 0 {
			return 0, ErrWalletCapExceeded
		}
	}
	ep, err := e.ensureEpoch(id)
	if err != nil {
		return 0, err
	}

	ep.TotalContribution.Add(ep.TotalContribution, amount)
	if err := e.st.SetEpoch(id, ep); err != nil {
		return 0, err
	}
	contribution.Amount.Add(contribution.Amount, amount)
	if err := e.st.SetContribution(user, id, contribution); err != nil {
		return 0, err
	}
	if !seen {
		if err := e.appendTimeline(TimelineContributions, user, id); err != nil {
			return 0, err
		}
	}
	total, err := e.st.UserTotalContributed(user)
	if err != nil {
		return 0, err
	}
	if err := e.st.SetUserTotalContributed(user, total.Add(total, amount)); err != nil {
		return 0, err
	}

	custody, err := e.st.Custody()
	if err != nil {
		return 0, err
	}
	custody.Currency.Add(custody.Currency, amount)
	if err := e.st.SetCustody(custody); err != nil {
		return 0, err
	}

	feeCut := cut(amount, e.params.FeeBps)
	if feeCut.Sign() > 0 {
		beneficiary, err := e.st.Beneficiary()
		if err != nil {
			return 0, err
		}
		beneficiary.Currency.Add(beneficiary.Currency, feeCut)
		if err := e.st.SetBeneficiary(beneficiary); err != nil {
			return 0, err
		}
	}
	liquidityCut := cut(amount, e.params.LiquidityBps)
	if liquidityCut.Sign() > 0 {
		pending, err := e.st.PendingLiquidity()
		if err != nil {
			return 0, err
		}
		if err := e.st.SetPendingLiquidity(pending.Add(pending, liquidityCut)); err != nil {
			return 0, err
		}
	}

	distributable := new(big.Int).Sub(amount, feeCut)
	distributable.Sub(distributable, liquidityCut)
	if err := e.recordInflow(PoolCurrencyYield, distributable); err != nil {
		return 0, err
	}

	e.emit.Emit(Contributed{User: user, ID: id, Amount: new(big.Int).Set(amount), Total: new(big.Int).Set(ep.TotalContribution)})
	return id, nil
}

// ensureEpoch loads today's epoch, creating it on first activity: the quota
// (plus the beneficiary's token cut) is minted, reserved liquidity from prior
// epochs is flushed, and the identifier enters the epoch index.
func (e *Engine) ensureEpoch(id uint64) (*Epoch, error) {
	ep, ok, err := e.st.Epoch(id)
	if err != nil {
		return nil, err
	}
	if ok {
		return ep, nil
	}
	if err := e.flushLiquidity(); err != nil {
		return nil, err
	}
	index, err := e.st.EpochIndex()
	if err != nil {
		return nil, err
	}
	if err := e.st.SetEpochIndex(append(index, id)); err != nil {
		return nil, err
	}
	quota := new(big.Int).Set(e.params.MintQuota)
	tokenFee := cut(quota, e.params.FeeBps)
	minted := new(big.Int).Add(quota, tokenFee)
	if err := e.token.Mint(ModuleAddress, ModuleAddress, minted); err != nil {
		return nil, err
	}
	if tokenFee.Sign() > 0 {
		beneficiary, err := e.st.Beneficiary()
		if err != nil {
			return nil, err
		}
		beneficiary.Token.Add(beneficiary.Token, tokenFee)
		if err := e.st.SetBeneficiary(beneficiary); err != nil {
			return nil, err
		}
	}
	ep = (&Epoch{MintQuota: quota}).Normalize()
	if err := e.st.SetEpoch(id, ep); err != nil {
		return nil, err
	}
	e.emit.Emit(EpochStarted{ID: id, MintQuota: new(big.Int).Set(quota)})
	return ep, nil
}

// flushLiquidity routes currency reserved in closed epochs, paired with the
// matching token emission, through the liquidity collaborator. Resulting LP
// tokens accrue to the beneficiary.
func (e *Engine) flushLiquidity() error {
	if e.router == nil {
		return nil
	}
	pending, err := e.st.PendingLiquidity()
	if err != nil {
		return err
	}
	if pending.Sign() == 0 {
		return nil
	}
	tokenSide := cut(e.params.MintQuota, e.params.LiquidityBps)
	if tokenSide.Sign() > 0 {
		if err := e.token.Mint(ModuleAddress, ModuleAddress, tokenSide); err != nil {
			return err
		}
		if err := e.token.Transfer(ModuleAddress, ammAddress, tokenSide); err != nil {
			return err
		}
	}
	lpOut, err := e.router.AddLiquidity(tokenSide, pending)
	if err != nil {
		return err
	}
	custody, err := e.st.Custody()
	if err != nil {
		return err
	}
	custody.Currency.Sub(custody.Currency, pending)
	if err := e.st.SetCustody(custody); err != nil {
		return err
	}
	if lpOut != nil && lpOut.Sign() > 0 {
		beneficiary, err := e.st.Beneficiary()
		if err != nil {
			return err
		}
		beneficiary.LPToken.Add(beneficiary.LPToken, lpOut)
		if err := e.st.SetBeneficiary(beneficiary); err != nil {
			return err
		}
	}
	return e.st.SetPendingLiquidity(big.NewInt(0))
}

// recordInflow advances a pool's yield index by inflow/principal. While the
// pool has no principal the inflow is retained, then folded into the first
// distribution once stakers exist; value is never dropped or divided by zero.
func (e *Engine) recordInflow(pool PoolID, inflow *big.Int) error {
	if inflow == nil || inflow.Sign() <= 0 {
		return nil
	}
	ps, err := e.st.Pool(pool)
	if err != nil {
		return err
	}
	if ps.TotalPrincipal.Sign() == 0 {
		ps.Retained.Add(ps.Retained, inflow)
		return e.st.SetPool(pool, ps)
	}
	distributed := new(big.Int).Add(inflow, ps.Retained)
	ps.Retained = big.NewInt(0)
	ps.Index = advanceIndex(ps.Index, distributed, ps.TotalPrincipal)
	return e.st.SetPool(pool, ps)
}

// Claim settles a contributor's share of a closed epoch: pays
// floor(quota * amount / total) reward tokens and removes the epoch from the
// contributor's open list.
func (e *Engine) Claim(now time.Time, user [20]byte, id uint64) (*big.Int, error) {
	if !e.epochs.Elapsed(id, now) {
		return nil, ErrTooSoon
	}
	contribution, ok, err := e.st.Contribution(user, id)
	if err != nil {
		return nil, err
	}
	if !ok || contribution.Claimed || contribution.Amount.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	ep, ok, err := e.st.Epoch(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNothingToClaim
	}
	paid := claimShare(ep, contribution.Amount)
	contribution.Claimed = true
	if err := e.st.SetContribution(user, id, contribution); err != nil {
		return nil, err
	}
	if err := e.removeTimeline(TimelineContributions, user, id); err != nil {
		return nil, err
	}
	if err := e.token.Transfer(ModuleAddress, user, paid); err != nil {
		return nil, err
	}
	e.emit.Emit(Claimed{User: user, ID: id, Paid: new(big.Int).Set(paid)})
	return paid, nil
}

// PreviewClaim computes the same share as Claim without side effects. Unknown
// or already-claimed records yield zero instead of an error.
func (e *Engine) PreviewClaim(user [20]byte, id uint64) (*big.Int, error) {
	contribution, ok, err := e.st.Contribution(user, id)
	if err != nil {
		return nil, err
	}
	if !ok || contribution.Claimed || contribution.Amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	ep, ok, err := e.st.Epoch(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return claimShare(ep, contribution.Amount), nil
}

// claimShare returns floor(quota * amount / total). The rounding remainder
// stays with the pool and is never re-allocated.
func claimShare(ep *Epoch, amount *big.Int) *big.Int {
	if ep.TotalContribution.Sign() == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(ep.MintQuota, amount)
	return share.Quo(share, ep.TotalContribution)
}

// OpenStake locks reward token into the currency-yield pool. The configured
// cross-subsidy cut of the deposit is diverted to the token-yield pool as an
// immediate inflow.
func (e *Engine) OpenStake(now time.Time, user [20]byte, amount *big.Int) (uint64, error) {
	if user == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	fee := cut(amount, e.params.CrossSubsidyBps)
	principal, transferIn := e.splitDeposit(amount, fee)
	if err := e.token.Transfer(user, ModuleAddress, transferIn); err != nil {
		return 0, err
	}
	if err := e.recordInflow(PoolTokenYield, fee); err != nil {
		return 0, err
	}
	return e.openPosition(PoolCurrencyYield, now, user, principal)
}

// OpenLPStake locks the registered liquidity token into the token-yield pool.
// The cross-subsidy cut accrues to the beneficiary: liquidity tokens are not a
// distributable yield asset for the currency pool.
func (e *Engine) OpenLPStake(now time.Time, user, lpToken [20]byte, amount *big.Int) (uint64, error) {
	if user == ([20]byte{}) {
		return 0, ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	pair, bound, err := e.st.PairBinding()
	if err != nil {
		return 0, err
	}
	if !bound || lpToken != pair {
		return 0, ErrUnsupportedAsset
	}
	fee := cut(amount, e.params.CrossSubsidyBps)
	principal, transferIn := e.splitDeposit(amount, fee)
	custody, err := e.st.Custody()
	if err != nil {
		return 0, err
	}
	custody.LPToken.Add(custody.LPToken, transferIn)
	if err := e.st.SetCustody(custody); err != nil {
		return 0, err
	}
	if fee.Sign() > 0 {
		beneficiary, err := e.st.Beneficiary()
		if err != nil {
			return 0, err
		}
		beneficiary.LPToken.Add(beneficiary.LPToken, fee)
		if err := e.st.SetBeneficiary(beneficiary); err != nil {
			return 0, err
		}
	}
	return e.openPosition(PoolTokenYield, now, user, principal)
}

// splitDeposit applies the configured fee mode: deduct takes the cut out of
// the deposit, surcharge charges it on top.
func (e *Engine) splitDeposit(amount, fee *big.Int) (principal, transferIn *big.Int) {
	if e.params.FeeMode == FeeModeSurcharge {
		return new(big.Int).Set(amount), new(big.Int).Add(amount, fee)
	}
	return new(big.Int).Sub(amount, fee), new(big.Int).Set(amount)
}

// openPosition checkpoints a deposit against the pool's current index.
// Same-day deposits coalesce into one position with a rebased checkpoint that
// preserves yield accrued so far.
func (e *Engine) openPosition(pool PoolID, now time.Time, user [20]byte, principal *big.Int) (uint64, error) {
	if principal.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	id := e.epochs.Quantize(now)
	ps, err := e.st.Pool(pool)
	if err != nil {
		return 0, err
	}
	pos, ok, err := e.st.Position(pool, user, id)
	if err != nil {
		return 0, err
	}
	if ok {
		pos.Checkpoint = mergedCheckpoint(pos.Principal, pos.Checkpoint, principal, ps.Index)
		pos.Principal.Add(pos.Principal, principal)
	} else {
		pos = &Position{Principal: new(big.Int).Set(principal), Checkpoint: new(big.Int).Set(ps.Index)}
		if err := e.appendTimeline(stakeTimeline(pool), user, id); err != nil {
			return 0, err
		}
	}
	if err := e.st.SetPosition(pool, user, id, pos); err != nil {
		return 0, err
	}
	ps.TotalPrincipal.Add(ps.TotalPrincipal, principal)
	if err := e.st.SetPool(pool, ps); err != nil {
		return 0, err
	}
	e.emit.Emit(StakeOpened{User: user, Pool: pool, ID: id, Principal: new(big.Int).Set(pos.Principal)})
	return id, nil
}

// SettleStake closes a currency-yield position: principal returns in reward
// token, accrued yield pays out in currency.
func (e *Engine) SettleStake(now time.Time, user [20]byte, id uint64) (*big.Int, *big.Int, error) {
	return e.settle(PoolCurrencyYield, now, user, id)
}

// SettleLPStake closes a token-yield position: principal returns in liquidity
// token, accrued yield pays out in reward token.
func (e *Engine) SettleLPStake(now time.Time, user [20]byte, id uint64) (*big.Int, *big.Int, error) {
	return e.settle(PoolTokenYield, now, user, id)
}

func (e *Engine) settle(pool PoolID, now time.Time, user [20]byte, id uint64) (*big.Int, *big.Int, error) {
	if !e.epochs.Elapsed(id, now) {
		return nil, nil, ErrTooSoon
	}
	pos, ok, err := e.st.Position(pool, user, id)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrNothingToSettle
	}
	ps, err := e.st.Pool(pool)
	if err != nil {
		return nil, nil, err
	}
	yield := pendingYield(pos.Principal, ps.Index, pos.Checkpoint)
	ps.TotalPrincipal.Sub(ps.TotalPrincipal, pos.Principal)
	if err := e.st.SetPool(pool, ps); err != nil {
		return nil, nil, err
	}
	if err := e.st.RemovePosition(pool, user, id); err != nil {
		return nil, nil, err
	}
	if err := e.removeTimeline(stakeTimeline(pool), user, id); err != nil {
		return nil, nil, err
	}
	switch pool {
	case PoolCurrencyYield:
		if err := e.token.Transfer(ModuleAddress, user, pos.Principal); err != nil {
			return nil, nil, err
		}
		custody, err := e.st.Custody()
		if err != nil {
			return nil, nil, err
		}
		custody.Currency.Sub(custody.Currency, yield)
		if err := e.st.SetCustody(custody); err != nil {
			return nil, nil, err
		}
	case PoolTokenYield:
		custody, err := e.st.Custody()
		if err != nil {
			return nil, nil, err
		}
		custody.LPToken.Sub(custody.LPToken, pos.Principal)
		if err := e.st.SetCustody(custody); err != nil {
			return nil, nil, err
		}
		if yield.Sign() > 0 {
			if err := e.token.Transfer(ModuleAddress, user, yield); err != nil {
				return nil, nil, err
			}
		}
	default:
		return nil, nil, ErrUnknownPool
	}
	e.emit.Emit(StakeSettled{User: user, Pool: pool, ID: id, Principal: new(big.Int).Set(pos.Principal), Yield: new(big.Int).Set(yield)})
	return pos.Principal, yield, nil
}

// PreviewYield reads the pending yield for an open position. Unknown or
// settled positions yield zero instead of an error.
func (e *Engine) PreviewYield(pool PoolID, user [20]byte, id uint64) (*big.Int, error) {
	if !pool.valid() {
		return nil, ErrUnknownPool
	}
	pos, ok, err := e.st.Position(pool, user, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	ps, err := e.st.Pool(pool)
	if err != nil {
		return nil, err
	}
	return pendingYield(pos.Principal, ps.Index, pos.Checkpoint), nil
}

// WithdrawBeneficiary drains the accumulated fee cuts. Draining an empty
// account is a successful no-op.
func (e *Engine) WithdrawBeneficiary() (currency, tokenOut, lpToken *big.Int, err error) {
	beneficiary, err := e.st.Beneficiary()
	if err != nil {
		return nil, nil, nil, err
	}
	currency = beneficiary.Currency
	tokenOut = beneficiary.Token
	lpToken = beneficiary.LPToken
	if currency.Sign() == 0 && tokenOut.Sign() == 0 && lpToken.Sign() == 0 {
		return currency, tokenOut, lpToken, nil
	}
	if tokenOut.Sign() > 0 {
		if err := e.token.Transfer(ModuleAddress, e.params.Beneficiary, tokenOut); err != nil {
			return nil, nil, nil, err
		}
	}
	custody, err := e.st.Custody()
	if err != nil {
		return nil, nil, nil, err
	}
	custody.Currency.Sub(custody.Currency, currency)
	custody.LPToken.Sub(custody.LPToken, lpToken)
	if err := e.st.SetCustody(custody); err != nil {
		return nil, nil, nil, err
	}
	if err := e.st.SetBeneficiary((&Beneficiary{}).Normalize()); err != nil {
		return nil, nil, nil, err
	}
	e.emit.Emit(BeneficiaryWithdrawn{Currency: new(big.Int).Set(currency), Token: new(big.Int).Set(tokenOut), LPToken: new(big.Int).Set(lpToken)})
	return currency, tokenOut, lpToken, nil
}

func stakeTimeline(pool PoolID) TimelineKind {
	if pool == PoolTokenYield {
		return TimelineLPStakes
	}
	return TimelineStakes
}

func (e *Engine) appendTimeline(kind TimelineKind, user [20]byte, id uint64) error {
	list, err := e.st.Timeline(kind, user)
	if err != nil {
		return err
	}
	list, changed := appendEpoch(list, id)
	if !changed {
		return nil
	}
	return e.st.SetTimeline(kind, user, list)
}

func (e *Engine) removeTimeline(kind TimelineKind, user [20]byte, id uint64) error {
	list, err := e.st.Timeline(kind, user)
	if err != nil {
		return err
	}
	list, changed := removeEpoch(list, id)
	if !changed {
		return nil
	}
	return e.st.SetTimeline(kind, user, list)
}

// --- read surface ---

// EpochInfo returns a stored epoch bucket.
func (e *Engine) EpochInfo(id uint64) (*Epoch, bool, error) {
	return e.st.Epoch(id)
}

// ContributionOf returns a user's record for one epoch.
func (e *Engine) ContributionOf(user [20]byte, id uint64) (*Contribution, bool, error) {
	return e.st.Contribution(user, id)
}

// TimelineOf lists a user's open epochs for the given ledger. Order is not
// meaningful; see the timeline removal semantics.
func (e *Engine) TimelineOf(kind TimelineKind, user [20]byte) ([]uint64, error) {
	return e.st.Timeline(kind, user)
}

// PositionOf returns an open stake position.
func (e *Engine) PositionOf(pool PoolID, user [20]byte, id uint64) (*Position, bool, error) {
	if !pool.valid() {
		return nil, false, ErrUnknownPool
	}
	return e.st.Position(pool, user, id)
}

// PoolInfo returns a pool's aggregate state.
func (e *Engine) PoolInfo(pool PoolID) (*PoolState, error) {
	if !pool.valid() {
		return nil, ErrUnknownPool
	}
	return e.st.Pool(pool)
}

// BeneficiaryInfo returns the undrained fee balances.
func (e *Engine) BeneficiaryInfo() (*Beneficiary, error) {
	return e.st.Beneficiary()
}

// CustodyInfo returns the ledger's currency and liquidity-token custody.
func (e *Engine) CustodyInfo() (*Custody, error) {
	return e.st.Custody()
}

// TotalContributed returns a user's lifetime contribution across all epochs,
// claimed or not.
func (e *Engine) TotalContributed(user [20]byte) (*big.Int, error) {
	return e.st.UserTotalContributed(user)
}
