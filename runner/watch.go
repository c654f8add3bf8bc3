package runner

import (
	"context"
	"fmt"
	"time"

	"mevwatcher/chain"
	"mevwatcher/config"
	"mevwatcher/logger"
	"mevwatcher/mev"
)

func RunWatchCmd(ctx context.Context, startBlock uint64, out *Outputs) error {
	client, err := chain.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	det, closeStore := NewPureDetector(client)
	defer func() {
		if err := closeStore(); err != nil {
			logger.ChainLogger.Warn("Failed to close kind store", "err", err)
		}
	}()
	return runWatch(ctx, client, det, startBlock, out)
}

// sleepCtx waits for d, returning false if ctx ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// resumeBlock picks the first block to process: after the last recorded one,
// never before startBlock, and jumping to the head when too far behind.
func resumeBlock(startBlock, lastInDB uint64, hasLast bool, current uint64) uint64 {
	if hasLast {
		startBlock = max(startBlock, lastInDB+1)
	}
	if startBlock+config.ETH_FETCH_BLOCK_MAX_GAP < current {
		logger.ChainLogger.Info("Start block too far behind current block, start from current block", "startBlock", startBlock, "currentBlock", current)
		return current
	}
	return startBlock
}

func runWatch(ctx context.Context, src BlockSource, det *mev.PureArbitrageDetector, startBlock uint64, out *Outputs) error {
	var lastInDB uint64
	var hasLast bool
	if out.DB != nil {
		var err error
		lastInDB, hasLast, err = out.DB.QueryLastProcessedBlock(SourceWatch)
		if err != nil {
			return fmt.Errorf("failed to query last processed block: %w", err)
		}
		logger.ChainLogger.Info("Last processed block in DB", "block", lastInDB, "found", hasLast)
	}

	current, err := src.CurrentBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current block: %w", err)
	}
	logger.ChainLogger.Info("Current block from RPC", "block", current)
	next := resumeBlock(startBlock, lastInDB, hasLast, current)
	logger.ChainLogger.Info("Following chain head", "startBlockFromInput", startBlock, "lastBlockInDB", lastInDB, "currentBlockFromRpc", current, "next", next)

	for {
		if ctx.Err() != nil {
			logger.ChainLogger.Info("Stop following chain head", "next", next)
			return nil
		}

		current, err := src.CurrentBlock(ctx)
		if err != nil {
			logger.ChainLogger.Error("Failed to get current block", "err", err)
			if !sleepCtx(ctx, config.ETH_FETCH_BLOCK_SHORT_INTERVAL) {
				return nil
			}
			continue
		}

		if current < next || current-next+1 < config.ETH_FETCH_BLOCK_LOWER {
			logger.ChainLogger.Debug("Not enough new blocks, sleep and retry", "next", next, "current", current)
			if !sleepCtx(ctx, config.ETH_FETCH_BLOCK_LONG_INTERVAL) {
				return nil
			}
			continue
		}

		limit := min(current-next+1, uint64(config.ETH_FETCH_BLOCK_LIMIT))
		logger.ChainLogger.Info("Process blocks", "start", next, "current", current, "limit", limit)
		next = processRange(ctx, src, det, next, limit, out)

		if !sleepCtx(ctx, config.ETH_FETCH_BLOCK_SHORT_INTERVAL) {
			return nil
		}
	}
}

// processRange handles up to limit blocks from start and returns the next
// block to process. It stops at the first failure so the block is retried.
func processRange(ctx context.Context, src BlockSource, det *mev.PureArbitrageDetector, start, limit uint64, out *Outputs) uint64 {
	for n := start; n < start+limit; n++ {
		if ctx.Err() != nil {
			return n
		}
		r, err := DetectPureBlock(ctx, src, det, SourceWatch, n)
		if err != nil {
			logger.ChainLogger.Error("Failed to process block", "block", n, "err", err)
			return n
		}
		if err := out.Emit(ctx, SourceWatch, r); err != nil {
			logger.ChainLogger.Error("Failed to emit block report", "block", n, "err", err)
			return n
		}
		if len(r.PureArbitrages) > 0 {
			logger.DetectLogger.Info("Pure arbitrages found", "block", n, "count", len(r.PureArbitrages))
		}
	}
	return start + limit
}
