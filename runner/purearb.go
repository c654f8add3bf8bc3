package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/chain"
	"mevwatcher/logger"
	"mevwatcher/metrics"
	"mevwatcher/mev"
	"mevwatcher/types"
)

// BlockSource is the part of *chain.Client the pure arbitrage commands need.
type BlockSource interface {
	CurrentBlock(ctx context.Context) (uint64, error)
	BlockTxInputs(ctx context.Context, number uint64) (common.Hash, []*types.TxInput, error)
}

// NewPureDetector wires the kind resolver to the client, with the Redis tier
// when REDIS_ADDR is set. The returned func releases the Redis client.
func NewPureDetector(client *chain.Client) (*mev.PureArbitrageDetector, func() error) {
	closeStore := func() error { return nil }
	var store chain.KindStore
	if rs := chain.NewRedisKindStoreFromConfig(); rs != nil {
		store = rs
		closeStore = rs.Close
	}
	resolver := chain.NewResolver(client.RPC(), chain.NewKindCache(), store)
	return mev.NewPureArbitrageDetector(resolver, ScoreConfig()), closeStore
}

// DetectPureBlock fetches one block and runs the pure arbitrage detector over
// its transactions.
func DetectPureBlock(ctx context.Context, src BlockSource, det *mev.PureArbitrageDetector, source string, number uint64) (*types.Report, error) {
	hash, txs, err := src.BlockTxInputs(ctx, number)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	arbs, err := det.DetectBlock(ctx, number, txs)
	if err != nil {
		return nil, fmt.Errorf("pure arbitrage detection of block %d failed: %w", number, err)
	}
	r := &types.Report{
		BlockNumber:    number,
		BlockHash:      hash,
		Arbitrages:     make([]*types.Arbitrage, 0),
		Sandwiches:     make([]*types.Sandwich, 0),
		JitSandwiches:  make([]*types.JitSandwich, 0),
		Liquidations:   make([]*types.Liquidation, 0),
		NftArbitrages:  make([]*types.NftArbitrage, 0),
		PureArbitrages: arbs,
	}
	metrics.ObserveReport(source, r, time.Since(start))
	return r, nil
}

func RunPureArbCmd(ctx context.Context, startBlock, count uint64, out *Outputs) error {
	client, err := chain.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	det, closeStore := NewPureDetector(client)
	defer func() {
		if err := closeStore(); err != nil {
			logger.DetectLogger.Warn("Failed to close kind store", "err", err)
		}
	}()
	return runPureArb(ctx, client, det, startBlock, count, out)
}

func runPureArb(ctx context.Context, src BlockSource, det *mev.PureArbitrageDetector, startBlock, count uint64, out *Outputs) error {
	if count == 0 {
		current, err := src.CurrentBlock(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current block: %w", err)
		}
		if current < startBlock {
			return fmt.Errorf("start block %d is ahead of current block %d", startBlock, current)
		}
		count = current - startBlock + 1
	}

	logger.DetectLogger.Info("Running pure arbitrage detection", "start", startBlock, "count", count)
	for n := startBlock; n < startBlock+count; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r, err := DetectPureBlock(ctx, src, det, SourcePureArb, n)
		if err != nil {
			return err
		}
		logger.DetectLogger.Info("Block report", "block", n, "pure_arbitrages", len(r.PureArbitrages))
		if err := out.Emit(ctx, SourcePureArb, r); err != nil {
			return err
		}
	}
	return nil
}
