// Package runner drives the detectors for the CLI commands.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"mevwatcher/db"
	"mevwatcher/logger"
	"mevwatcher/metrics"
	"mevwatcher/mev"
	"mevwatcher/sink"
	"mevwatcher/types"
)

// Processed-block sources, one per command
const (
	SourceDetect  = "detect"
	SourcePureArb = "pure-arb"
	SourceWatch   = "watch"
)

// Outputs is where finished reports go. DB and Writer are optional.
type Outputs struct {
	DB        db.Database
	Publisher sink.Publisher
	Writer    io.Writer // one JSON report per line
}

// NewOutputsFromConfig opens ClickHouse when CLICKHOUSE_ADDR is set and Kafka
// when KAFKA_BROKERS is set.
func NewOutputsFromConfig(w io.Writer) (*Outputs, error) {
	out := &Outputs{Writer: w}
	if db.Configured() {
		ch, err := db.NewClickhouse()
		if err != nil {
			return nil, err
		}
		out.DB = ch
	}
	pub, err := sink.NewPublisherFromConfig()
	if err != nil {
		out.Close()
		return nil, err
	}
	out.Publisher = pub
	return out, nil
}

func (o *Outputs) Close() {
	if o.DB != nil {
		if err := o.DB.Close(); err != nil {
			logger.GlobalLogger.Warn("Failed to close database", "err", err)
		}
	}
	if o.Publisher != nil {
		if err := o.Publisher.Close(); err != nil {
			logger.GlobalLogger.Warn("Failed to close publisher", "err", err)
		}
	}
}

// Emit stores, publishes and prints one report, then records the block as
// processed by source. Every output is attempted; the errors are joined.
func (o *Outputs) Emit(ctx context.Context, source string, r *types.Report) error {
	var errs []error
	if o.DB != nil {
		if err := o.DB.InsertReport(db.NewReportRows(r)); err != nil {
			errs = append(errs, fmt.Errorf("store block %d: %w", r.BlockNumber, err))
		}
	}
	if o.Publisher != nil {
		if err := o.Publisher.Publish(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	if o.Writer != nil {
		line, err := json.Marshal(r)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode block %d: %w", r.BlockNumber, err))
		} else if _, err := o.Writer.Write(append(line, '\n')); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if o.DB != nil {
		processed := &db.ProcessedBlock{
			BlockNumber: r.BlockNumber,
			Source:      source,
			Detections:  uint32(r.Count()),
			ProcessedAt: time.Now().UTC(),
		}
		if err := o.DB.RecordProcessedBlocks([]*db.ProcessedBlock{processed}); err != nil {
			return fmt.Errorf("record block %d: %w", r.BlockNumber, err)
		}
	}
	metrics.LastProcessedBlock.Set(float64(r.BlockNumber))
	return nil
}

// ScoreConfig returns the default pure arbitrage score, with any
// detect.score.* keys from config applied.
func ScoreConfig() mev.ScoreConfig {
	c := mev.DefaultScoreConfig()
	for key, field := range map[string]*int64{
		"detect.score.spent":         &c.Spent,
		"detect.score.nonZero":       &c.NonZero,
		"detect.score.sender":        &c.Sender,
		"detect.score.recipient":     &c.Recipient,
		"detect.score.senderSolvent": &c.SenderSolvent,
		"detect.score.threshold":     &c.Threshold,
	} {
		if viper.IsSet(key) {
			*field = viper.GetInt64(key)
		}
	}
	return c
}

// DetectOptions returns the default detector options with detect.* overrides.
func DetectOptions() mev.Options {
	opts := mev.DefaultOptions()
	if viper.IsSet("detect.amountThreshold") {
		opts.AmountThreshold = viper.GetInt64("detect.amountThreshold")
	}
	if viper.IsSet("detect.maxHops") {
		opts.MaxHops = viper.GetInt("detect.maxHops")
	}
	return opts
}
