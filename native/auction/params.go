package auction

import (
	"fmt"
	"math/big"
)

const bpsDenominator = 10000

// FeeMode selects how the stake-deposit cross-subsidy cut is sourced. The
// observed deployments disagree on this, so it is a named configuration knob
// rather than a hard-coded interpretation; conservation holds under both.
type FeeMode uint8

const (
	// FeeModeDeduct takes the cut out of the deposit: the position's
	// principal is the deposit minus the fee.
	FeeModeDeduct FeeMode = iota
	// FeeModeSurcharge charges the cut on top: the full deposit becomes
	// principal and the depositor transfers deposit plus fee.
	FeeModeSurcharge
)

// Params carries the auction ledger's economic configuration.
type Params struct {
	// MintQuota is the reward-token amount unlocked per active epoch and
	// split pro rata among that epoch's contributors.
	MintQuota *big.Int

	// FeeBps is the beneficiary's cut of contribution inflow, and the
	// analogous extra token emission per epoch, in basis points.
	FeeBps uint32

	// CrossSubsidyBps is the fraction of each stake deposit diverted to the
	// other pool at deposit time, in basis points.
	CrossSubsidyBps uint32

	// LiquidityBps is the fraction of contribution currency reserved for the
	// liquidity collaborator at each epoch rollover. Zero disables routing.
	LiquidityBps uint32

	// FeeMode controls whether CrossSubsidyBps is deducted from the deposit
	// or charged on top of it.
	FeeMode FeeMode

	// WalletCap bounds a single wallet's total contribution per epoch. Nil
	// disables the cap; it is a per-deployment policy, not a core rule.
	WalletCap *big.Int

	// Beneficiary receives the protocol fee cuts.
	Beneficiary [20]byte
}

// DefaultParams mirrors the observed deployment: 100k token quota per day and
// 5% fee and cross-subsidy cuts, cap and liquidity routing disabled.
func DefaultParams(beneficiary [20]byte) Params {
	quota, _ := new(big.Int).SetString("100000000000000000000000", 10) // 100_000 * 1e18
	return Params{
		MintQuota:       quota,
		FeeBps:          500,
		CrossSubsidyBps: 500,
		LiquidityBps:    0,
		FeeMode:         FeeModeDeduct,
		Beneficiary:     beneficiary,
	}
}

// Validate ensures the parameters are self-consistent.
func (p Params) Validate() error {
	if p.MintQuota == nil || p.MintQuota.Sign() <= 0 {
		return fmt.Errorf("mint quota must be positive")
	}
	if uint64(p.FeeBps)+uint64(p.LiquidityBps) >= bpsDenominator {
		return fmt.Errorf("fee and liquidity cuts must leave a distributable remainder")
	}
	if p.CrossSubsidyBps >= bpsDenominator {
		return fmt.Errorf("cross subsidy must be below 100%%")
	}
	if p.FeeMode != FeeModeDeduct && p.FeeMode != FeeModeSurcharge {
		return fmt.Errorf("unknown fee mode %d", p.FeeMode)
	}
	if p.WalletCap != nil && p.WalletCap.Sign() <= 0 {
		return fmt.Errorf("wallet cap must be positive when set")
	}
	if p.Beneficiary == ([20]byte{}) {
		return ErrZeroAddress
	}
	return nil
}

// cut returns amount * bps / 10000, floor-rounded.
func cut(amount *big.Int, bps uint32) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return out.Quo(out, big.NewInt(bpsDenominator))
}
