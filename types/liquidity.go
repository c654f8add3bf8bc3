package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// LiquidityDeposit adds liquidity to a pool. Assets and Amounts are index-aligned.
type LiquidityDeposit struct {
	Contract    Contract         `json:"contract"`
	Block       BlockRef         `json:"block"`
	Transaction TxRef            `json:"transaction"`
	Event       EventRef         `json:"event"`
	Depositor   common.Address   `json:"depositor"`
	Assets      []common.Address `json:"assets"`
	Amounts     []*big.Int       `json:"amounts"`
	Metadata    Metadata         `json:"metadata,omitempty"`
}

// LiquidityWithdrawal removes liquidity from a pool. Assets and Amounts are
// index-aligned.
type LiquidityWithdrawal struct {
	Contract    Contract         `json:"contract"`
	Block       BlockRef         `json:"block"`
	Transaction TxRef            `json:"transaction"`
	Event       EventRef         `json:"event"`
	Withdrawer  common.Address   `json:"withdrawer"`
	Assets      []common.Address `json:"assets"`
	Amounts     []*big.Int       `json:"amounts"`
	Metadata    Metadata         `json:"metadata,omitempty"`
}

// TickRange returns the position bounds, [lower, upper). ok is false for
// positions without a range, e.g. full-range constant product pools.
func (d *LiquidityDeposit) TickRange() (lower, upper *big.Int, ok bool) {
	lower, okLower := d.Metadata.Int(MetaTickLower)
	upper, okUpper := d.Metadata.Int(MetaTickUpper)
	if !okLower || !okUpper {
		return nil, nil, false
	}
	return lower, upper, true
}

// Valid reports whether assets and amounts line up.
func (d *LiquidityDeposit) Valid() bool {
	return d != nil && validVector(d.Assets, d.Amounts)
}

func (w *LiquidityWithdrawal) Valid() bool {
	return w != nil && validVector(w.Assets, w.Amounts)
}

func validVector(assets []common.Address, amounts []*big.Int) bool {
	if len(assets) == 0 || len(assets) != len(amounts) {
		return false
	}
	for _, a := range amounts {
		if a == nil {
			return false
		}
	}
	return true
}
