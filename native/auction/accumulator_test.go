package auction

import (
	"math/big"
	"testing"
)

func unit(n int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return scale.Mul(scale, big.NewInt(n))
}

// unitFrac returns n/d scaled to 18 decimals; d must divide n*1e18 exactly.
func unitFrac(n, d int64) *big.Int {
	v := unit(n)
	return v.Quo(v, big.NewInt(d))
}

func TestAdvanceIndexDistributesExactly(t *testing.T) {
	index := advanceIndex(big.NewInt(0), big.NewInt(100), big.NewInt(8))

	got := pendingYield(big.NewInt(5), index, big.NewInt(0))
	if got.Cmp(big.NewInt(62)) != 0 {
		t.Fatalf("pending for principal 5 = %s, want 62", got)
	}
	got = pendingYield(big.NewInt(8), index, big.NewInt(0))
	if got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("pending for full principal = %s, want 100", got)
	}
}

func TestPendingYieldZeroWhenCheckpointCurrent(t *testing.T) {
	index := advanceIndex(big.NewInt(0), big.NewInt(100), big.NewInt(3))
	if got := pendingYield(big.NewInt(3), index, index); got.Sign() != 0 {
		t.Fatalf("pending at checkpoint = %s, want 0", got)
	}
	ahead := new(big.Int).Add(index, big.NewInt(1))
	if got := pendingYield(big.NewInt(3), index, ahead); got.Sign() != 0 {
		t.Fatalf("pending with future checkpoint = %s, want 0", got)
	}
}

func TestPendingYieldNeverExceedsInflow(t *testing.T) {
	principals := []int64{1, 3, 7, 11, 1000003}
	for _, p := range principals {
		index := advanceIndex(big.NewInt(0), unit(95), big.NewInt(p))
		total := big.NewInt(0)
		// Distribute across two holders covering the whole principal.
		a := p / 2
		b := p - a
		if a > 0 {
			total.Add(total, pendingYield(big.NewInt(a), index, big.NewInt(0)))
		}
		total.Add(total, pendingYield(big.NewInt(b), index, big.NewInt(0)))
		if total.Cmp(unit(95)) > 0 {
			t.Fatalf("principal %d: distributed %s exceeds inflow", p, total)
		}
		slack := new(big.Int).Sub(unit(95), total)
		if slack.Cmp(big.NewInt(2)) > 0 {
			t.Fatalf("principal %d: rounding slack %s above one unit per holder", p, slack)
		}
	}
}

func TestAccrualMatchesProRataSchedule(t *testing.T) {
	// Two holders of 5 units each, inflow 23.75; each accrues 11.875. A third
	// holder brings the principal to 25, a second 23.75 inflow adds 4.75 to
	// the original holders for 16.625 total.
	principalA := unit(5)
	index := advanceIndex(big.NewInt(0), unitFrac(95, 4), unit(10))

	first := pendingYield(principalA, index, big.NewInt(0))
	if first.Cmp(unitFrac(95, 8)) != 0 {
		t.Fatalf("first round accrual = %s, want %s", first, unitFrac(95, 8))
	}

	index = advanceIndex(index, unitFrac(95, 4), unit(25))
	second := pendingYield(principalA, index, big.NewInt(0))
	want := new(big.Int).Add(unitFrac(95, 8), unitFrac(19, 4))
	diff := new(big.Int).Sub(want, second)
	if diff.Sign() < 0 || diff.Cmp(big.NewInt(1)) > 0 {
		t.Fatalf("cumulative accrual = %s, want %s within one unit", second, want)
	}
}

func TestMergedCheckpointPreservesAccrued(t *testing.T) {
	index := advanceIndex(big.NewInt(0), unit(50), unit(5))
	accrued := pendingYield(unit(5), index, big.NewInt(0))
	if accrued.Cmp(unit(50)) != 0 {
		t.Fatalf("sole staker accrual = %s, want %s", accrued, unit(50))
	}

	merged := mergedCheckpoint(unit(5), big.NewInt(0), unit(5), index)
	after := pendingYield(unit(10), index, merged)
	if after.Cmp(accrued) > 0 {
		t.Fatalf("merge inflated accrual: %s > %s", after, accrued)
	}
	slack := new(big.Int).Sub(accrued, after)
	if slack.Cmp(big.NewInt(16)) > 0 {
		t.Fatalf("merge lost %s units", slack)
	}
}

func TestMergedCheckpointAtCurrentIndex(t *testing.T) {
	index := advanceIndex(big.NewInt(0), unit(7), unit(3))
	merged := mergedCheckpoint(unit(3), index, unit(2), index)
	if merged.Cmp(index) != 0 {
		t.Fatalf("merge with no accrual moved checkpoint")
	}
}
