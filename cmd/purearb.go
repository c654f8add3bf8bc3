package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mevwatcher/config"
	"mevwatcher/logger"
	"mevwatcher/runner"
)

var (
	pureArbStart uint64
	pureArbCount uint64
)

var pureArbCmd = cobra.Command{
	Use:   "pure-arb",
	Short: "Detect protocol-agnostic arbitrage from the balance changes of fetched blocks",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("pure-arb")

		if pureArbStart < config.MIN_START_BLOCK {
			logger.DetectLogger.Error(fmt.Sprintf("start block (%d) is below minimum allowed block (%d)", pureArbStart, config.MIN_START_BLOCK))
			return
		}
		logger.DetectLogger.Info("Running cmd pure-arb...", "start", pureArbStart, "count", pureArbCount)

		ctx, cancel := commandContext()
		defer cancel()

		out, err := runner.NewOutputsFromConfig(os.Stdout)
		if err != nil {
			logger.DetectLogger.Error("Failed to open outputs", "err", err)
			return
		}
		defer out.Close()

		if err := runner.RunPureArbCmd(ctx, pureArbStart, pureArbCount, out); err != nil {
			logger.DetectLogger.Error("Error running pure-arb command", "err", err)
		}
	},
}

func init() {
	pureArbCmd.Flags().Uint64VarP(
		&pureArbStart,
		"block",
		"b",
		0,
		fmt.Sprintf("first block number (>=%d)", config.MIN_START_BLOCK),
	)
	pureArbCmd.Flags().Uint64VarP(
		&pureArbCount,
		"count",
		"n",
		1,
		"(Optional) number of blocks, 0 runs up to the current block",
	)
	RootCmd.AddCommand(&pureArbCmd)
}
