package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"mevwatcher/config"
	"mevwatcher/logger"
	"mevwatcher/metrics"
	"mevwatcher/mev"
	"mevwatcher/types"
	"mevwatcher/utils"
)

// LoadBlocks reads classified blocks from a local file or an http(s) URL.
func LoadBlocks(ctx context.Context, input string) (types.Blocks, error) {
	var data []byte
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		var raw json.RawMessage
		if err := utils.GetUrlResponseWithRetry(ctx, input, nil, &raw, config.CLASSIFIED_FETCH_RETRYS, logger.DetectLogger); err != nil {
			return nil, fmt.Errorf("failed to fetch classified blocks: %w", err)
		}
		data = raw
	} else {
		var err error
		data, err = os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read classified blocks: %w", err)
		}
	}
	return types.ParseBlocks(data)
}

func RunDetectCmd(ctx context.Context, input string, opts mev.Options, out *Outputs) error {
	logger.DetectLogger.Info("Load classified blocks (start)", "input", input)
	loadTimeBefore := time.Now()
	blocks, err := LoadBlocks(ctx, input)
	if err != nil {
		return err
	}
	logger.DetectLogger.Info("Loaded classified blocks (done)", "num_blocks", len(blocks), "load_time", time.Since(loadTimeBefore).String())

	processTimeBefore := time.Now()
	reports := ProcessBlocks(blocks, opts)
	logger.DetectLogger.Info("Processed classified blocks (done)", "num_blocks", len(blocks), "process_time", time.Since(processTimeBefore).String())

	failed := 0
	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.DetectLogger.Info("Block report", "block", r.BlockNumber,
			"arbitrages", len(r.Arbitrages), "sandwiches", len(r.Sandwiches), "jit_sandwiches", len(r.JitSandwiches),
			"liquidations", len(r.Liquidations), "nft_arbitrages", len(r.NftArbitrages))
		if err := out.Emit(ctx, SourceDetect, r); err != nil {
			logger.DetectLogger.Error("Failed to emit block report", "block", r.BlockNumber, "err", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d block reports could not be emitted", failed, len(reports))
	}
	return nil
}

// ProcessBlocks runs the detectors over blocks with DETECT_PARALLEL_NUM workers.
// Reports come back ordered by block number.
func ProcessBlocks(blocks types.Blocks, opts mev.Options) []*types.Report {
	parallel := min(config.DETECT_PARALLEL_NUM, max(len(blocks), 1))
	blocksQueue := make(chan *types.Block, len(blocks))
	reportsCh := make(chan *types.Report)

	var processWg sync.WaitGroup

	for _, b := range blocks {
		blocksQueue <- b
	}
	close(blocksQueue)

	processWg.Add(parallel)
	for range parallel {
		go func() {
			defer processWg.Done()
			for b := range blocksQueue {
				start := time.Now()
				r := mev.DetectBlock(b, opts)
				metrics.ObserveReport(SourceDetect, r, time.Since(start))
				reportsCh <- r
			}
		}()
	}

	go func() {
		processWg.Wait()
		close(reportsCh)
	}()

	reports := make([]*types.Report, 0, len(blocks))
	for r := range reportsCh {
		reports = append(reports, r)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].BlockNumber < reports[j].BlockNumber
	})
	return reports
}
