package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Swap is one classified trade against a pool. From supplies AssetIn (the taker
// side), To receives AssetOut. They differ when a router forwards output to the
// next hop of a multi-hop route.
type Swap struct {
	Contract    Contract       `json:"contract"`
	Block       BlockRef       `json:"block"`
	Transaction TxRef          `json:"transaction"`
	Event       EventRef       `json:"event"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	AssetIn     common.Address `json:"assetIn"`
	AmountIn    *big.Int       `json:"amountIn"`
	AssetOut    common.Address `json:"assetOut"`
	AmountOut   *big.Int       `json:"amountOut"`
	Metadata    Metadata       `json:"metadata,omitempty"`
}

type Swaps []*Swap

// Before reports whether s executed before o in the block.
func (s *Swap) Before(o *Swap) bool {
	return before(s.Transaction, o.Transaction, s.Event, o.Event)
}

// Tick returns the active price tick recorded by concentrated-liquidity pools.
func (s *Swap) Tick() (*big.Int, bool) {
	return s.Metadata.Int(MetaTick)
}

// Valid reports whether the amounts needed by detectors are present.
func (s *Swap) Valid() bool {
	return s != nil && s.AmountIn != nil && s.AmountOut != nil &&
		s.AmountIn.Sign() >= 0 && s.AmountOut.Sign() >= 0
}
