package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Arbitrage is a cyclic chain of swaps by one taker, within one transaction,
// starting and ending in ProfitAsset.
type Arbitrage struct {
	Swaps       Swaps          `json:"swaps"`
	StartAmount *big.Int       `json:"startAmount"`
	EndAmount   *big.Int       `json:"endAmount"`
	ProfitAsset common.Address `json:"profitAsset"`
}

// Profit is EndAmount - StartAmount, negative for loss-making cycles.
func (a *Arbitrage) Profit() *big.Int {
	return new(big.Int).Sub(a.EndAmount, a.StartAmount)
}

// Victim is one action executed between the legs of a sandwich. Exactly one of
// Swap and Deposit is set.
type Victim struct {
	Swap    *Swap             `json:"swap,omitempty"`
	Deposit *LiquidityDeposit `json:"deposit,omitempty"`
}

func (v Victim) Transaction() TxRef {
	if v.Swap != nil {
		return v.Swap.Transaction
	}
	return v.Deposit.Transaction
}

// Sandwich is a front-run and back-run swap pair around at least one victim.
type Sandwich struct {
	Sandwicher  common.Address `json:"sandwicher"`
	FrontSwap   *Swap          `json:"frontSwap"`
	BackSwap    *Swap          `json:"backSwap"`
	Sandwiched  []Victim       `json:"sandwiched"`
	Profit      AssetAmount    `json:"profit"`
	Consecutive bool           `json:"consecutive"` // front, victims and back occupy adjacent tx indices
}

// JitSandwich is liquidity added right before and removed right after swaps that
// trade inside the position range.
type JitSandwich struct {
	Sandwicher common.Address       `json:"sandwicher"`
	Deposit    *LiquidityDeposit    `json:"deposit"`
	Withdrawal *LiquidityWithdrawal `json:"withdrawal"`
	Sandwiched Swaps                `json:"sandwiched"`
	Deltas     []AssetAmount        `json:"deltas"`
}

type Liquidation struct {
	Repayment *Repayment `json:"repayment"`
	Seizure   *Seizure   `json:"seizure"`
}

type Arbitrager struct {
	Sender      common.Address `json:"sender"`
	Beneficiary common.Address `json:"beneficiary"`
}

// NftArbitrage is a buy of one collection token and a later sale of the same
// token by the same account.
type NftArbitrage struct {
	Swaps      [2]*NftSwap `json:"swaps"` // buy, sell
	Profit     AssetAmount `json:"profit"`
	Arbitrager Arbitrager  `json:"arbitrager"`
}

// PureArbitrage is an account that only gained assets in a transaction that
// looks like active trading, derived from raw transfers alone.
type PureArbitrage struct {
	Transactions []common.Hash       `json:"transactions"`
	Receipts     []*ethtypes.Receipt `json:"-"`
	BlockNumber  uint64              `json:"blockNumber"`
	Searcher     common.Address      `json:"searcher"`
	Beneficiary  common.Address      `json:"beneficiary"`
	Assets       []AssetAmount       `json:"assets"`
}
