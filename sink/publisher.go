// Package sink forwards detections to downstream consumers.
package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/viper"

	"mevwatcher/config"
	"mevwatcher/types"
)

var ErrUnableToInitKafka = errors.New("unable to init kafka writer")

// Detection kinds carried in Envelope.Type
const (
	KindArbitrage     = "arbitrage"
	KindSandwich      = "sandwich"
	KindJitSandwich   = "jitSandwich"
	KindLiquidation   = "liquidation"
	KindNftArbitrage  = "nftArbitrage"
	KindPureArbitrage = "pureArbitrage"
)

type Publisher interface {
	Publish(ctx context.Context, r *types.Report) error
	Close() error
}

// Envelope is the message value written for one detection.
type Envelope struct {
	Type        string      `json:"type"`
	BlockNumber uint64      `json:"blockNumber"`
	TxHash      common.Hash `json:"txHash"`
	Data        any         `json:"data"`
}

// Envelopes flattens a report into one envelope per detection, in report order.
func Envelopes(r *types.Report) []Envelope {
	res := make([]Envelope, 0, r.Count())
	add := func(kind string, tx common.Hash, data any) {
		res = append(res, Envelope{Type: kind, BlockNumber: r.BlockNumber, TxHash: tx, Data: data})
	}
	for _, a := range r.Arbitrages {
		add(KindArbitrage, a.Swaps[0].Transaction.Hash, a)
	}
	for _, s := range r.Sandwiches {
		add(KindSandwich, s.FrontSwap.Transaction.Hash, s)
	}
	for _, j := range r.JitSandwiches {
		add(KindJitSandwich, j.Deposit.Transaction.Hash, j)
	}
	for _, l := range r.Liquidations {
		add(KindLiquidation, l.Repayment.Transaction.Hash, l)
	}
	for _, n := range r.NftArbitrages {
		add(KindNftArbitrage, n.Swaps[0].Transaction.Hash, n)
	}
	for _, p := range r.PureArbitrages {
		var tx common.Hash
		if len(p.Transactions) > 0 {
			tx = p.Transactions[0]
		}
		add(KindPureArbitrage, tx, p)
	}
	return res
}

// Messages encodes the envelopes of a report, keyed by transaction hash so that
// detections of one transaction land on one partition.
func Messages(r *types.Report) ([]kafka.Message, error) {
	envs := Envelopes(r)
	msgs := make([]kafka.Message, 0, len(envs))
	for _, e := range envs {
		value, err := json.Marshal(&e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s envelope of block %d: %w", e.Type, e.BlockNumber, err)
		}
		msgs = append(msgs, kafka.Message{Key: e.TxHash.Bytes(), Value: value})
	}
	return msgs, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: config.KAFKA_BATCH_TIMEOUT,
	})
	if writer == nil {
		return nil, ErrUnableToInitKafka
	}
	return &KafkaPublisher{writer: writer}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *types.Report) error {
	msgs, err := Messages(r)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d detections of block %d: %w", len(msgs), r.BlockNumber, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *types.Report) error { return nil }
func (NopPublisher) Close() error                                { return nil }

// NewPublisherFromConfig returns a Kafka publisher when KAFKA_BROKERS is set
// (comma separated), a NopPublisher otherwise.
func NewPublisherFromConfig() (Publisher, error) {
	raw := viper.GetString("KAFKA_BROKERS")
	if raw == "" {
		return NopPublisher{}, nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	topic := viper.GetString("KAFKA_TOPIC")
	if topic == "" {
		topic = config.KAFKA_DEFAULT_TOPIC
	}
	return NewKafkaPublisher(brokers, topic)
}
