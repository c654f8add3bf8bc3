package mev

import (
	"mevwatcher/config"
	"mevwatcher/types"
)

// Options tunes the classified-event detectors.
type Options struct {
	AmountThreshold int64 // percent tolerance when chaining swaps
	MaxHops         int   // arbitrage hop budget, 0 for none
}

func DefaultOptions() Options {
	return Options{
		AmountThreshold: config.AMOUNT_MATCH_PERCENT,
		MaxHops:         config.ARBITRAGE_MAX_HOPS,
	}
}

// DetectBlock runs every classified-event detector over one block. The
// detectors are independent of each other.
func DetectBlock(b *types.Block, opts Options) *types.Report {
	return &types.Report{
		BlockNumber:    b.Number,
		BlockHash:      b.Hash,
		Arbitrages:     FindArbitrages(b.Swaps, opts),
		Sandwiches:     FindSandwiches(b.Swaps, b.Deposits),
		JitSandwiches:  FindJitSandwiches(b.Swaps, b.Deposits, b.Withdrawals),
		Liquidations:   FindLiquidations(b.Repayments, b.Seizures),
		NftArbitrages:  FindNftArbitrages(b.NftSwaps),
		PureArbitrages: make([]*types.PureArbitrage, 0),
	}
}
