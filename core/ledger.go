// Package core wires the auction engine, token ledger and state persistence
// into a single serialized transaction boundary.
package core

import (
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"cyclechain/core/epoch"
	"cyclechain/core/events"
	"cyclechain/core/state"
	"cyclechain/native/auction"
	"cyclechain/native/liquidity"
	"cyclechain/native/token"
	"cyclechain/observability"
	"cyclechain/storage"
)

// Options configures a Ledger.
type Options struct {
	// DB is the backing key-value store. Required.
	DB storage.Database
	// Clock supplies the external time source. Defaults to the real clock;
	// tests inject clockwork.NewFakeClock.
	Clock clockwork.Clock
	// Epochs configures day quantization. Required.
	Epochs epoch.Config
	// Params configures the auction economics. Required.
	Params auction.Params
	// Owner administers the token registries (burners, blacklist).
	Owner [20]byte
	// MintCap bounds a single token mint. Nil disables the bound.
	MintCap *big.Int
	// Router is the optional liquidity collaborator.
	Router liquidity.Router
	// Emitter receives events from committed transactions only.
	Emitter events.Emitter
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Ledger is the serialized front door to all auction state. Every mutating
// operation runs as one transaction: state writes buffer in an overlay and
// only reach the database when the operation succeeds, so a failed call leaves
// no partial state behind. The notion of "current epoch" is re-derived from
// the clock on every call; nothing ticks in the background.
type Ledger struct {
	mu      sync.Mutex
	db      storage.Database
	clock   clockwork.Clock
	epochs  epoch.Config
	params  auction.Params
	owner   [20]byte
	mintCap *big.Int
	router  liquidity.Router
	emitter events.Emitter
	log     *slog.Logger
	metrics *observability.LedgerMetrics
}

// NewLedger validates the options, binds the token mint authority to the
// auction module on first start and returns a ready ledger.
func NewLedger(opts Options) (*Ledger, error) {
	if err := opts.Epochs.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	l := &Ledger{
		db:      opts.DB,
		clock:   opts.Clock,
		epochs:  opts.Epochs,
		params:  opts.Params,
		owner:   opts.Owner,
		router:  opts.Router,
		emitter: opts.Emitter,
		log:     opts.Logger,
		metrics: observability.Ledger(),
	}
	if l.clock == nil {
		l.clock = clockwork.NewRealClock()
	}
	if l.emitter == nil {
		l.emitter = events.NoopEmitter{}
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	if opts.MintCap != nil {
		l.mintCap = new(big.Int).Set(opts.MintCap)
	}
	mgr := state.NewManager(l.db)
	if _, bound, err := mgr.TokenLedgerBinding(); err != nil {
		return nil, err
	} else if !bound {
		if err := l.tokenLedger(mgr).BindLedger(auction.ModuleAddress); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Ledger) tokenLedger(mgr *state.Manager) *token.Ledger {
	return token.NewLedger(mgr, l.owner, l.mintCap)
}

func (l *Ledger) engine(mgr *state.Manager, collector events.Emitter) (*auction.Engine, error) {
	eng, err := auction.NewEngine(mgr, l.tokenLedger(mgr), l.epochs, l.params)
	if err != nil {
		return nil, err
	}
	eng.SetEmitter(collector)
	if l.router != nil {
		eng.SetRouter(l.router)
	}
	return eng, nil
}

// withTransaction runs fn against an overlay-backed engine. The overlay
// commits, and buffered events flush to the emitter, only when fn succeeds.
func (l *Ledger) withTransaction(op string, fn func(*auction.Engine) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	started := time.Now()
	overlay := storage.NewOverlay(l.db)
	collector := &events.Collector{}
	eng, err := l.engine(state.NewManager(overlay), collector)
	if err == nil {
		err = fn(eng)
	}
	if err == nil {
		err = overlay.Commit()
	}
	l.metrics.Observe(op, err, time.Since(started))
	if err != nil {
		l.log.Debug("ledger transaction rejected", "op", op, "err", err)
		return err
	}
	for _, evt := range collector.Events {
		l.emitter.Emit(evt)
	}
	return nil
}

// withRead runs fn against the committed state under the same lock, giving a
// consistent snapshot without buffering.
func (l *Ledger) withRead(fn func(*auction.Engine) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	eng, err := l.engine(state.NewManager(l.db), events.NoopEmitter{})
	if err != nil {
		return err
	}
	return fn(eng)
}

// RegisterPair binds the liquidity token accepted by the token-yield pool.
func (l *Ledger) RegisterPair(addr [20]byte) error {
	return l.withTransaction("registerPair", func(eng *auction.Engine) error {
		return eng.RegisterPair(addr)
	})
}

// Contribute records a currency deposit into the current epoch.
func (l *Ledger) Contribute(user [20]byte, amount *big.Int) (uint64, error) {
	var id uint64
	err := l.withTransaction("contribute", func(eng *auction.Engine) error {
		var err error
		id, err = eng.Contribute(l.clock.Now(), user, amount)
		return err
	})
	return id, err
}

// Claim settles a contributor's reward-token share of a closed epoch.
func (l *Ledger) Claim(user [20]byte, id uint64) (*big.Int, error) {
	var paid *big.Int
	err := l.withTransaction("claim", func(eng *auction.Engine) error {
		var err error
		paid, err = eng.Claim(l.clock.Now(), user, id)
		return err
	})
	return paid, err
}

// OpenStake locks reward token into the currency-yield pool.
func (l *Ledger) OpenStake(user [20]byte, amount *big.Int) (uint64, error) {
	var id uint64
	err := l.withTransaction("openStake", func(eng *auction.Engine) error {
		var err error
		id, err = eng.OpenStake(l.clock.Now(), user, amount)
		return err
	})
	return id, err
}

// OpenLPStake locks the registered liquidity token into the token-yield pool.
func (l *Ledger) OpenLPStake(user, lpToken [20]byte, amount *big.Int) (uint64, error) {
	var id uint64
	err := l.withTransaction("openLPStake", func(eng *auction.Engine) error {
		var err error
		id, err = eng.OpenLPStake(l.clock.Now(), user, lpToken, amount)
		return err
	})
	return id, err
}

// SettleStake closes a currency-yield position.
func (l *Ledger) SettleStake(user [20]byte, id uint64) (principal, yield *big.Int, err error) {
	err = l.withTransaction("settleStake", func(eng *auction.Engine) error {
		var err error
		principal, yield, err = eng.SettleStake(l.clock.Now(), user, id)
		return err
	})
	return principal, yield, err
}

// SettleLPStake closes a token-yield position.
func (l *Ledger) SettleLPStake(user [20]byte, id uint64) (principal, yield *big.Int, err error) {
	err = l.withTransaction("settleLPStake", func(eng *auction.Engine) error {
		var err error
		principal, yield, err = eng.SettleLPStake(l.clock.Now(), user, id)
		return err
	})
	return principal, yield, err
}

// WithdrawBeneficiary drains the protocol fee account.
func (l *Ledger) WithdrawBeneficiary() (currency, tokenOut, lpToken *big.Int, err error) {
	err = l.withTransaction("withdrawBeneficiary", func(eng *auction.Engine) error {
		var err error
		currency, tokenOut, lpToken, err = eng.WithdrawBeneficiary()
		return err
	})
	return currency, tokenOut, lpToken, err
}

// --- token administration ---

func (l *Ledger) withToken(op string, fn func(*token.Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	started := time.Now()
	overlay := storage.NewOverlay(l.db)
	err := fn(l.tokenLedger(state.NewManager(overlay)))
	if err == nil {
		err = overlay.Commit()
	}
	l.metrics.Observe(op, err, time.Since(started))
	return err
}

// AddBurner grants burn rights on the reward token.
func (l *Ledger) AddBurner(caller, addr [20]byte) error {
	return l.withToken("addBurner", func(tl *token.Ledger) error {
		return tl.AddBurner(caller, addr)
	})
}

// RemoveBurner revokes burn rights on the reward token.
func (l *Ledger) RemoveBurner(caller, addr [20]byte) error {
	return l.withToken("removeBurner", func(tl *token.Ledger) error {
		return tl.RemoveBurner(caller, addr)
	})
}

// Burn destroys reward tokens held by the caller.
func (l *Ledger) Burn(caller [20]byte, amount *big.Int) error {
	return l.withToken("burn", func(tl *token.Ledger) error {
		return tl.Burn(caller, amount)
	})
}

// AddToBlacklist blocks an address from token transfers.
func (l *Ledger) AddToBlacklist(caller, addr [20]byte) error {
	return l.withToken("addToBlacklist", func(tl *token.Ledger) error {
		return tl.AddToBlacklist(caller, addr)
	})
}

// RemoveFromBlacklist lifts a token blacklist entry.
func (l *Ledger) RemoveFromBlacklist(caller, addr [20]byte) error {
	return l.withToken("removeFromBlacklist", func(tl *token.Ledger) error {
		return tl.RemoveFromBlacklist(caller, addr)
	})
}

// --- read surface ---

// CurrentEpoch returns the active epoch identifier.
func (l *Ledger) CurrentEpoch() uint64 {
	return l.epochs.Quantize(l.clock.Now())
}

// EpochCount returns how many epochs have recorded activity.
func (l *Ledger) EpochCount() (int, error) {
	var count int
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		count, err = eng.EpochCount()
		return err
	})
	return count, err
}

// EpochInfo returns one epoch bucket.
func (l *Ledger) EpochInfo(id uint64) (*auction.Epoch, bool, error) {
	var (
		ep *auction.Epoch
		ok bool
	)
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		ep, ok, err = eng.EpochInfo(id)
		return err
	})
	return ep, ok, err
}

// ContributionOf returns a user's record for one epoch.
func (l *Ledger) ContributionOf(user [20]byte, id uint64) (*auction.Contribution, bool, error) {
	var (
		c  *auction.Contribution
		ok bool
	)
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		c, ok, err = eng.ContributionOf(user, id)
		return err
	})
	return c, ok, err
}

// PreviewClaim computes the claimable share without side effects.
func (l *Ledger) PreviewClaim(user [20]byte, id uint64) (*big.Int, error) {
	var amount *big.Int
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		amount, err = eng.PreviewClaim(user, id)
		return err
	})
	return amount, err
}

// PreviewYield reads the pending yield of an open position.
func (l *Ledger) PreviewYield(pool auction.PoolID, user [20]byte, id uint64) (*big.Int, error) {
	var amount *big.Int
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		amount, err = eng.PreviewYield(pool, user, id)
		return err
	})
	return amount, err
}

// TimelineOf lists a user's open epochs for one ledger; order is unspecified.
func (l *Ledger) TimelineOf(kind auction.TimelineKind, user [20]byte) ([]uint64, error) {
	var ids []uint64
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		ids, err = eng.TimelineOf(kind, user)
		return err
	})
	return ids, err
}

// PositionOf returns one open stake position.
func (l *Ledger) PositionOf(pool auction.PoolID, user [20]byte, id uint64) (*auction.Position, bool, error) {
	var (
		pos *auction.Position
		ok  bool
	)
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		pos, ok, err = eng.PositionOf(pool, user, id)
		return err
	})
	return pos, ok, err
}

// PoolInfo returns a pool's aggregate state.
func (l *Ledger) PoolInfo(pool auction.PoolID) (*auction.PoolState, error) {
	var ps *auction.PoolState
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		ps, err = eng.PoolInfo(pool)
		return err
	})
	return ps, err
}

// BeneficiaryInfo returns the undrained fee balances.
func (l *Ledger) BeneficiaryInfo() (*auction.Beneficiary, error) {
	var b *auction.Beneficiary
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		b, err = eng.BeneficiaryInfo()
		return err
	})
	return b, err
}

// CustodyInfo returns the ledger's custody balances.
func (l *Ledger) CustodyInfo() (*auction.Custody, error) {
	var c *auction.Custody
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		c, err = eng.CustodyInfo()
		return err
	})
	return c, err
}

// TotalContributed returns a user's lifetime contribution total.
func (l *Ledger) TotalContributed(user [20]byte) (*big.Int, error) {
	var total *big.Int
	err := l.withRead(func(eng *auction.Engine) error {
		var err error
		total, err = eng.TotalContributed(user)
		return err
	})
	return total, err
}

// TokenBalance returns a reward-token balance.
func (l *Ledger) TokenBalance(addr [20]byte) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenLedger(state.NewManager(l.db)).BalanceOf(addr)
}

// TokenSupply returns the outstanding reward-token supply.
func (l *Ledger) TokenSupply() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenLedger(state.NewManager(l.db)).TotalSupply()
}

// IsBlacklisted reports whether an address is blocked from token transfers.
func (l *Ledger) IsBlacklisted(addr [20]byte) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenLedger(state.NewManager(l.db)).IsBlacklisted(addr)
}
