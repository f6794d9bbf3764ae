package auction

import "math/big"

// Pool accumulators are kept as UQ128x128 fixed-point values: the real-valued
// "yield per unit principal" scaled by 2^128. The format gives enough headroom
// that repeated small inflows lose at most one indivisible unit per event, and
// all truncation favors the pool over the claimant.

var indexUnit = new(big.Int).Lsh(big.NewInt(1), 128)

// advanceIndex returns index + (inflow << 128) / principal. principal must be
// positive; callers guard the zero-principal case by retaining the inflow.
func advanceIndex(index, inflow, principal *big.Int) *big.Int {
	delta := new(big.Int).Lsh(inflow, 128)
	delta.Quo(delta, principal)
	return new(big.Int).Add(index, delta)
}

// pendingYield returns principal * (current - checkpoint) >> 128, the yield a
// position has accrued since its checkpoint. A checkpoint ahead of the current
// index yields zero.
func pendingYield(principal, current, checkpoint *big.Int) *big.Int {
	delta := new(big.Int).Sub(current, checkpoint)
	if delta.Sign() <= 0 {
		return big.NewInt(0)
	}
	yield := delta.Mul(delta, principal)
	return yield.Rsh(yield, 128)
}

// mergedCheckpoint rebases a position's checkpoint so that adding principal at
// the current index preserves the yield already accrued:
//
//	(old + added) * (current - merged) == old * (current - checkpoint)
//
// The subtracted term is floor-divided, which rounds the merged checkpoint up
// and keeps the preserved yield from exceeding the original.
func mergedCheckpoint(oldPrincipal, checkpoint, added, current *big.Int) *big.Int {
	accrued := new(big.Int).Sub(current, checkpoint)
	if accrued.Sign() <= 0 {
		return new(big.Int).Set(current)
	}
	accrued.Mul(accrued, oldPrincipal)
	total := new(big.Int).Add(oldPrincipal, added)
	accrued.Quo(accrued, total)
	return new(big.Int).Sub(current, accrued)
}
