// Package liquidity defines the boundary to an external automated market
// maker. The ledger only ever pairs assets through this interface; pool
// mechanics, pricing and slippage belong to the collaborator behind it.
package liquidity

import "math/big"

// Router provisions liquidity from a token/currency pair and reports the
// liquidity tokens minted in return.
type Router interface {
	AddLiquidity(tokenAmount, currencyAmount *big.Int) (*big.Int, error)
}

// NoopRouter satisfies Router for deployments without an AMM. It accepts the
// pair and mints nothing.
type NoopRouter struct{}

// AddLiquidity implements the Router interface.
func (NoopRouter) AddLiquidity(tokenAmount, currencyAmount *big.Int) (*big.Int, error) {
	return big.NewInt(0), nil
}
