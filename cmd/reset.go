package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"mevwatcher/chain"
	"mevwatcher/db"
	"mevwatcher/logger"
)

var resetCmd = cobra.Command{
	Use:   "reset",
	Short: "Drop every table and the shared asset kind cache",
	Run: func(cmd *cobra.Command, args []string) {
		if db.Configured() {
			ch, err := db.NewClickhouse()
			if err != nil {
				logger.GlobalLogger.Error("Failed to open database", "err", err)
				return
			}
			defer ch.Close()

			logger.GlobalLogger.Info("Dropping tables in database...")
			if err := ch.DropTables(); err != nil {
				logger.GlobalLogger.Error("Failed to drop tables", "err", err)
			}
		}

		if store := chain.NewRedisKindStoreFromConfig(); store != nil {
			defer store.Close()
			logger.GlobalLogger.Info("Clearing asset kind cache...")
			if err := store.Clear(context.Background()); err != nil {
				logger.GlobalLogger.Error("Failed to clear asset kind cache", "err", err)
			}
		}
		logger.GlobalLogger.Info("Done.")
	},
}

func init() {
	RootCmd.AddCommand(&resetCmd)
}
