package auction

import (
	"encoding/hex"
	"math/big"
	"strconv"
)

const (
	// TypeEpochStarted is emitted when the first contribution of a day
	// materializes a new epoch and its mint quota.
	TypeEpochStarted = "auction.epochStarted"
	// TypeContributed captures a currency contribution into the open epoch.
	TypeContributed = "auction.contributed"
	// TypeClaimed is emitted when a contributor settles an epoch share.
	TypeClaimed = "auction.claimed"
	// TypeStakeOpened covers deposits into either yield pool.
	TypeStakeOpened = "stake.opened"
	// TypeStakeSettled covers principal-plus-yield settlements.
	TypeStakeSettled = "stake.settled"
	// TypeBeneficiaryWithdrawn is emitted when the fee account is drained.
	TypeBeneficiaryWithdrawn = "beneficiary.withdrawn"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatEpoch(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// EpochStarted announces a freshly minted epoch bucket.
type EpochStarted struct {
	ID        uint64
	MintQuota *big.Int
}

func (EpochStarted) EventType() string { return TypeEpochStarted }

func (e EpochStarted) Attributes() map[string]string {
	return map[string]string{
		"epoch": formatEpoch(e.ID),
		"quota": formatAmount(e.MintQuota),
	}
}

// Contributed captures one contribution and the epoch totals after it.
type Contributed struct {
	User   [20]byte
	ID     uint64
	Amount *big.Int
	Total  *big.Int
}

func (Contributed) EventType() string { return TypeContributed }

func (e Contributed) Attributes() map[string]string {
	return map[string]string{
		"addr":   formatAddr(e.User),
		"epoch":  formatEpoch(e.ID),
		"amount": formatAmount(e.Amount),
		"total":  formatAmount(e.Total),
	}
}

// Claimed captures a settled contribution share.
type Claimed struct {
	User [20]byte
	ID   uint64
	Paid *big.Int
}

func (Claimed) EventType() string { return TypeClaimed }

func (e Claimed) Attributes() map[string]string {
	return map[string]string{
		"addr":  formatAddr(e.User),
		"epoch": formatEpoch(e.ID),
		"paid":  formatAmount(e.Paid),
	}
}

// StakeOpened captures a pool deposit after coalescing.
type StakeOpened struct {
	User      [20]byte
	Pool      PoolID
	ID        uint64
	Principal *big.Int
}

func (StakeOpened) EventType() string { return TypeStakeOpened }

func (e StakeOpened) Attributes() map[string]string {
	return map[string]string{
		"addr":      formatAddr(e.User),
		"pool":      strconv.Itoa(int(e.Pool)),
		"epoch":     formatEpoch(e.ID),
		"principal": formatAmount(e.Principal),
	}
}

// StakeSettled captures a closed position.
type StakeSettled struct {
	User      [20]byte
	Pool      PoolID
	ID        uint64
	Principal *big.Int
	Yield     *big.Int
}

func (StakeSettled) EventType() string { return TypeStakeSettled }

func (e StakeSettled) Attributes() map[string]string {
	return map[string]string{
		"addr":      formatAddr(e.User),
		"pool":      strconv.Itoa(int(e.Pool)),
		"epoch":     formatEpoch(e.ID),
		"principal": formatAmount(e.Principal),
		"yield":     formatAmount(e.Yield),
	}
}

// BeneficiaryWithdrawn captures a fee-account drain.
type BeneficiaryWithdrawn struct {
	Currency *big.Int
	Token    *big.Int
	LPToken  *big.Int
}

func (BeneficiaryWithdrawn) EventType() string { return TypeBeneficiaryWithdrawn }

func (e BeneficiaryWithdrawn) Attributes() map[string]string {
	return map[string]string{
		"currency": formatAmount(e.Currency),
		"token":    formatAmount(e.Token),
		"lpToken":  formatAmount(e.LPToken),
	}
}
