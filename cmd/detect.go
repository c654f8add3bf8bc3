package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"mevwatcher/logger"
	"mevwatcher/runner"
)

var detectInput string

var detectCmd = cobra.Command{
	Use:   "detect",
	Short: "Detect arbitrages, sandwiches, liquidations and NFT arbitrages in classified blocks",
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitLogs("detect")

		if detectInput == "" {
			logger.DetectLogger.Error("No input given, use --input with a file path or URL")
			return
		}
		logger.DetectLogger.Info("Running cmd detect...", "input", detectInput)

		ctx, cancel := commandContext()
		defer cancel()

		out, err := runner.NewOutputsFromConfig(os.Stdout)
		if err != nil {
			logger.DetectLogger.Error("Failed to open outputs", "err", err)
			return
		}
		defer out.Close()

		if err := runner.RunDetectCmd(ctx, detectInput, runner.DetectOptions(), out); err != nil {
			logger.DetectLogger.Error("Error running detect command", "err", err)
		}
	},
}

func init() {
	detectCmd.Flags().StringVarP(
		&detectInput,
		"input",
		"i",
		"",
		"classified block JSON, a local file or an http(s) URL",
	)
	RootCmd.AddCommand(&detectCmd)
}
