package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mevwatcher/metrics"
)

var metricsAddr string

var RootCmd = &cobra.Command{
	Use:   "mevwatcher",
	Short: "A tool for detecting MEV on Ethereum",
}

// commandContext is cancelled on SIGINT or SIGTERM. It also starts the
// metrics endpoint when --metrics-addr is set.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	metrics.Serve(ctx, metricsAddr)
	return ctx, cancel
}

func init() {
	RootCmd.PersistentFlags().StringVar(
		&metricsAddr,
		"metrics-addr",
		"",
		"(Optional) listen address of the Prometheus /metrics endpoint, e.g. :9100",
	)
}
