package mev

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mevwatcher/types"
	"mevwatcher/utils"
)

var bot = common.HexToAddress("0x4000000000000000000000000000000000000001")

type fakeResolver struct {
	kinds map[common.Address]types.AssetType
	err   error
	calls int
	asked []common.Address
}

func (r *fakeResolver) ResolveKinds(_ context.Context, _ uint64, addrs []common.Address) (map[common.Address]types.AssetType, error) {
	r.calls++
	r.asked = append(r.asked, addrs...)
	if r.err != nil {
		return nil, r.err
	}
	res := make(map[common.Address]types.AssetType)
	for _, a := range addrs {
		if k, ok := r.kinds[a]; ok {
			res[a] = k
		}
	}
	return res, nil
}

func erc20Log(token, from, to common.Address, amount int64) *ethtypes.Log {
	return &ethtypes.Log{
		Address: token,
		Topics:  []common.Hash{TopicTransfer, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:    common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
	}
}

func newTxInput(index uint, logs ...*ethtypes.Log) *types.TxInput {
	to := bot
	return &types.TxInput{
		Hash:        txHashOf(index),
		BlockNumber: 17000000,
		Index:       index,
		From:        searcher,
		To:          &to,
		Value:       new(big.Int),
		Input:       common.FromHex("0x0000000100"),
		Receipt:     &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, Logs: logs},
	}
}

func erc20Kinds() *fakeResolver {
	return &fakeResolver{kinds: map[common.Address]types.AssetType{
		tokenW: types.AssetErc20,
		tokenX: types.AssetErc20,
	}}
}

// Bot sells W for X on one pool and X back to W on another, netting 10 W.
func cycleLogs() []*ethtypes.Log {
	return []*ethtypes.Log{
		erc20Log(tokenW, bot, poolP, 100),
		erc20Log(tokenX, poolP, bot, 50),
		erc20Log(tokenX, bot, poolQ, 50),
		erc20Log(tokenW, poolQ, bot, 110),
	}
}

func TestPureArbitrage_Detect(t *testing.T) {
	d := NewPureArbitrageDetector(erc20Kinds(), DefaultScoreConfig())
	tx := newTxInput(3, cycleLogs()...)

	res, err := d.Detect(context.Background(), tx)

	require.NoError(t, err)
	require.Len(t, res, 1)
	a := res[0]
	assert.Equal(t, []common.Hash{tx.Hash}, a.Transactions)
	assert.Equal(t, tx.Receipt, a.Receipts[0])
	assert.Equal(t, searcher, a.Searcher)
	assert.Equal(t, bot, a.Beneficiary)
	require.Len(t, a.Assets, 1)
	assert.Equal(t, types.Erc20(tokenW), a.Assets[0].Asset)
	assert.Equal(t, int64(10), a.Assets[0].Amount.Int64())

	// Every reported asset is a strict gain
	for _, asset := range a.Assets {
		assert.Positive(t, asset.Amount.Sign())
	}
}

func TestPureArbitrage_NetSpenderRejected(t *testing.T) {
	d := NewPureArbitrageDetector(erc20Kinds(), DefaultScoreConfig())
	logs := append(cycleLogs(), erc20Log(tokenX, bot, poolR, 1))

	res, err := d.Detect(context.Background(), newTxInput(3, logs...))

	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestPureArbitrage_EthGain(t *testing.T) {
	d := NewPureArbitrageDetector(erc20Kinds(), DefaultScoreConfig())
	tx := newTxInput(3,
		erc20Log(tokenW, bot, poolP, 100),
		erc20Log(tokenW, poolQ, bot, 100),
	)
	tx.EthCalls = []types.Transfer{{Asset: types.Eth(), From: poolP, To: bot, Amount: big.NewInt(7)}}

	res, err := d.Detect(context.Background(), tx)

	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0].Assets, 1)
	assert.Equal(t, types.Eth(), res[0].Assets[0].Asset)
	assert.Equal(t, int64(7), res[0].Assets[0].Amount.Int64())
}

func TestPureArbitrage_UnknownEmittersIgnored(t *testing.T) {
	d := NewPureArbitrageDetector(&fakeResolver{}, DefaultScoreConfig())

	res, err := d.Detect(context.Background(), newTxInput(3, cycleLogs()...))

	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestPureArbitrage_ResolverErrorPropagated(t *testing.T) {
	errRPC := errors.New("execution reverted")
	d := NewPureArbitrageDetector(&fakeResolver{err: errRPC}, DefaultScoreConfig())

	_, err := d.Detect(context.Background(), newTxInput(3, cycleLogs()...))

	require.Error(t, err)
	assert.ErrorIs(t, err, errRPC)
}

func TestPureArbitrage_SkippedTransactions(t *testing.T) {
	resolver := erc20Kinds()
	d := NewPureArbitrageDetector(resolver, DefaultScoreConfig())

	deployment := newTxInput(1, cycleLogs()...)
	deployment.To = nil

	plainEth := newTxInput(2, cycleLogs()...)
	plainEth.Input = nil

	erc20Transfer := newTxInput(3, cycleLogs()...)
	erc20Transfer.Input = append(utils.SelectorErc20Transfer, make([]byte, 64)...)

	nftTransfer := newTxInput(4, cycleLogs()...)
	nftTransfer.Input = append(utils.SelectorSafeTransferFrom, make([]byte, 96)...)

	failed := newTxInput(5, cycleLogs()...)
	failed.Receipt.Status = ethtypes.ReceiptStatusFailed

	for _, tx := range []*types.TxInput{deployment, plainEth, erc20Transfer, nftTransfer, failed, nil} {
		res, err := d.Detect(context.Background(), tx)
		require.NoError(t, err)
		assert.Empty(t, res)
	}
	assert.Zero(t, resolver.calls)
}

func TestPureArbitrage_DetectBlockResolvesOnce(t *testing.T) {
	resolver := erc20Kinds()
	d := NewPureArbitrageDetector(resolver, DefaultScoreConfig())

	deployment := newTxInput(1, cycleLogs()...)
	deployment.To = nil
	txs := []*types.TxInput{deployment, newTxInput(2, cycleLogs()...), newTxInput(3, cycleLogs()...)}

	res, err := d.DetectBlock(context.Background(), 17000000, txs)

	require.NoError(t, err)
	assert.Len(t, res, 2)
	assert.Equal(t, 1, resolver.calls)
	assert.ElementsMatch(t, []common.Address{tokenW, tokenX}, resolver.asked)
}

func TestScore_Defaults(t *testing.T) {
	c := DefaultScoreConfig()
	ledger := NewLedger()
	ledger.Move(searcher, poolP, types.Erc20(tokenW), big.NewInt(100))
	ledger.Move(poolP, searcher, types.Erc20(tokenX), big.NewInt(100))

	// Sender that spent and is not the recipient, while itself holding a negative delta
	assert.Equal(t, int64(8*10*10), c.Score(ledger, searcher, searcher, &bot))
	assert.False(t, c.Suspicious(c.Score(ledger, poolP, searcher, &bot)))

	ledger.Credit(searcher, types.Erc20(tokenW), big.NewInt(100))
	assert.Equal(t, int64(8*10*10*4), c.Score(ledger, searcher, searcher, &bot))
	assert.True(t, c.Suspicious(c.Score(ledger, searcher, searcher, &bot)))

	// The zero address never spends and is never the sender
	ledger.Credit(common.Address{}, types.Eth(), big.NewInt(1))
	assert.Equal(t, int64(4), c.Score(ledger, common.Address{}, searcher, nil))
}
