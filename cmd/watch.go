package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"mevwatcher/config"
	"mevwatcher/logger"
	"mevwatcher/runner"
)

var watchStart uint64

var watchCmd = cobra.Command{
	Use:   "watch",
	Short: "Follow the chain head, detecting and storing pure arbitrages",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("watch")

		if watchStart != 0 && watchStart < config.MIN_START_BLOCK {
			logger.ChainLogger.Error(fmt.Sprintf("start block (%d) is below minimum allowed block (%d)", watchStart, config.MIN_START_BLOCK))
			return
		}
		logger.ChainLogger.Info("Running cmd watch, following chain head...", "start", watchStart)

		ctx, cancel := commandContext()
		defer cancel()

		// Reports are stored and published, not printed
		out, err := runner.NewOutputsFromConfig(nil)
		if err != nil {
			logger.ChainLogger.Error("Failed to open outputs", "err", err)
			return
		}
		defer out.Close()

		if err := runner.RunWatchCmd(ctx, watchStart, out); err != nil {
			logger.ChainLogger.Error("Error running watch command", "err", err)
		}
	},
}

func init() {
	watchCmd.Flags().Uint64VarP(
		&watchStart,
		"block",
		"b",
		0,
		fmt.Sprintf("(Optional) starting block number (>=%d), defaults to the last processed block", config.MIN_START_BLOCK),
	)
	RootCmd.AddCommand(&watchCmd)
}
