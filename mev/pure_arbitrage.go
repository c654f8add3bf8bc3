package mev

import (
	"context"
	"fmt"

	MapSet "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"mevwatcher/logger"
	"mevwatcher/types"
	"mevwatcher/utils"
)

// AssetKindResolver tells which token standard each contract implements, as of
// a block. Contracts of no known kind are absent from the result or mapped to
// types.AssetUnknown.
type AssetKindResolver interface {
	ResolveKinds(ctx context.Context, blockNumber uint64, addrs []common.Address) (map[common.Address]types.AssetType, error)
}

// PureArbitrageDetector finds arbitrage from raw asset movements alone, without
// any protocol classification. An account that spent nothing net and received
// something in a transaction that looks like active trading is reported.
type PureArbitrageDetector struct {
	Resolver AssetKindResolver
	Score    ScoreConfig
}

func NewPureArbitrageDetector(resolver AssetKindResolver, score ScoreConfig) *PureArbitrageDetector {
	return &PureArbitrageDetector{Resolver: resolver, Score: score}
}

// Detect runs the detector on one transaction.
func (d *PureArbitrageDetector) Detect(ctx context.Context, tx *types.TxInput) ([]*types.PureArbitrage, error) {
	if skipPureTx(tx) {
		return make([]*types.PureArbitrage, 0), nil
	}
	kinds, err := d.Resolver.ResolveKinds(ctx, tx.BlockNumber, TransferEmitters(tx.Receipt.Logs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve asset kinds of tx %s: %w", tx.Hash.Hex(), err)
	}
	return d.DetectWithKinds(tx, kinds), nil
}

// DetectBlock runs the detector on every transaction of one block, resolving
// all emitters of the block in a single round.
func (d *PureArbitrageDetector) DetectBlock(ctx context.Context, blockNumber uint64, txs []*types.TxInput) ([]*types.PureArbitrage, error) {
	res := make([]*types.PureArbitrage, 0)

	candidates := make([]*types.TxInput, 0, len(txs))
	emitters := make([]common.Address, 0)
	seen := MapSet.NewThreadUnsafeSet[common.Address]()
	for _, tx := range txs {
		if skipPureTx(tx) {
			continue
		}
		candidates = append(candidates, tx)
		for _, addr := range TransferEmitters(tx.Receipt.Logs) {
			if seen.Add(addr) {
				emitters = append(emitters, addr)
			}
		}
	}
	if len(candidates) == 0 {
		return res, nil
	}

	kinds, err := d.Resolver.ResolveKinds(ctx, blockNumber, emitters)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve asset kinds of block %d: %w", blockNumber, err)
	}
	for _, tx := range candidates {
		res = append(res, d.DetectWithKinds(tx, kinds)...)
	}
	logger.DetectLogger.Debug("Pure arbitrage detection finished", "block", blockNumber,
		"txs", len(txs), "candidates", len(candidates), "emitters", len(emitters), "found", len(res))
	return res, nil
}

// DetectWithKinds scores every account touched by the transaction, given the
// resolved kinds of its log emitters.
func (d *PureArbitrageDetector) DetectWithKinds(tx *types.TxInput, kinds map[common.Address]types.AssetType) []*types.PureArbitrage {
	res := make([]*types.PureArbitrage, 0)
	if skipPureTx(tx) {
		return res
	}

	ledger := NewLedger()
	for _, t := range tx.EthCalls {
		if t.Amount == nil || t.Amount.Sign() == 0 {
			continue
		}
		ledger.Apply(types.Transfer{Asset: types.Eth(), From: t.From, To: t.To, Amount: t.Amount})
	}
	for _, t := range DecodeTransfers(tx.Receipt.Logs, kinds) {
		ledger.Apply(t)
	}

	for _, account := range ledger.Accounts() {
		score := d.Score.Score(ledger, account, tx.From, tx.To)
		if !d.Score.Suspicious(score) {
			continue
		}
		// A beneficiary never pays net, in any asset
		if !ledger.NonNegative(account) {
			continue
		}
		gains := make([]types.AssetAmount, 0)
		for _, delta := range ledger.Deltas(account) {
			if delta.Amount.Sign() > 0 {
				gains = append(gains, delta)
			}
		}
		if len(gains) == 0 {
			continue
		}
		res = append(res, &types.PureArbitrage{
			Transactions: []common.Hash{tx.Hash},
			Receipts:     []*ethtypes.Receipt{tx.Receipt},
			BlockNumber:  tx.BlockNumber,
			Searcher:     tx.From,
			Beneficiary:  account,
			Assets:       gains,
		})
	}
	return res
}

// skipPureTx reports whether tx cannot hold an internal arbitrage: failed or
// missing receipts, contract deployments and single plain transfers.
func skipPureTx(tx *types.TxInput) bool {
	if tx == nil || tx.Receipt == nil || tx.Receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return true
	}
	if tx.To == nil {
		return true
	}
	if len(tx.Input) == 0 {
		return true // bare ETH transfer
	}
	return utils.HasSelector(tx.Input, utils.SelectorErc20Transfer) ||
		utils.HasSelector(tx.Input, utils.SelectorSafeTransferFrom) ||
		utils.HasSelector(tx.Input, utils.SelectorSafeTransferFromWithData)
}
