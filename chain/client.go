package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/viper"

	"mevwatcher/logger"
	"mevwatcher/types"
)

var EthRpcURL string

var ErrNoRPC = errors.New("no ethereum rpc url configured, set eth.rpc")

func GetEthRpcURL() string {
	if EthRpcURL != "" {
		return EthRpcURL
	}
	return viper.GetString("eth.rpc")
}

// Client reads blocks, receipts and call traces from an execution node.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

// Dial connects to the configured node.
func Dial(ctx context.Context) (*Client, error) {
	url := GetEthRpcURL()
	if url == "" {
		return nil, ErrNoRPC
	}
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewClient(rc), nil
}

func NewClient(rc *rpc.Client) *Client {
	return &Client{rpc: rc, eth: ethclient.NewClient(rc)}
}

func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) CurrentBlock(ctx context.Context) (uint64, error) {
	n, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	return n, nil
}

// callFrame is one frame of the callTracer output.
type callFrame struct {
	Type  string          `json:"type"`
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Value *hexutil.Big    `json:"value"`
	Error string          `json:"error"`
	Calls []callFrame     `json:"calls"`
}

type txTrace struct {
	TxHash common.Hash `json:"txHash"`
	Result *callFrame  `json:"result"`
}

// BlockTxInputs loads the block hash and every transaction of a block with its
// receipt and the ETH moved by its successful call frames.
func (c *Client) BlockTxInputs(ctx context.Context, number uint64) (common.Hash, []*types.TxInput, error) {
	block, err := c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("failed to get block %d: %w", number, err)
	}
	// Receipts by hash so a reorg between the two calls cannot mix blocks
	receipts, err := c.eth.BlockReceipts(ctx, rpc.BlockNumberOrHashWithHash(block.Hash(), false))
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("failed to get receipts of block %d: %w", number, err)
	}
	receiptByHash := make(map[common.Hash]*ethtypes.Receipt, len(receipts))
	for _, r := range receipts {
		receiptByHash[r.TxHash] = r
	}

	var traces []txTrace
	err = c.rpc.CallContext(ctx, &traces, "debug_traceBlockByNumber",
		hexutil.EncodeUint64(number), map[string]any{"tracer": "callTracer"})
	if err != nil {
		return common.Hash{}, nil, fmt.Errorf("failed to trace block %d: %w", number, err)
	}
	traceByHash := make(map[common.Hash]*callFrame, len(traces))
	for i := range traces {
		traceByHash[traces[i].TxHash] = traces[i].Result
	}
	// Older nodes omit txHash, traces are then in transaction order
	if len(traces) == len(block.Transactions()) {
		for i, tx := range block.Transactions() {
			if traces[i].TxHash == (common.Hash{}) {
				traceByHash[tx.Hash()] = traces[i].Result
			}
		}
	}

	res := make([]*types.TxInput, 0, len(block.Transactions()))
	for i, tx := range block.Transactions() {
		receipt, ok := receiptByHash[tx.Hash()]
		if !ok {
			logger.ChainLogger.Warn("Missing receipt, skipping transaction", "block", number, "tx", tx.Hash().Hex())
			continue
		}
		input := &types.TxInput{
			Hash:        tx.Hash(),
			BlockNumber: number,
			Index:       uint(i),
			To:          tx.To(),
			Value:       tx.Value(),
			Input:       tx.Data(),
			Receipt:     receipt,
		}
		if frame := traceByHash[tx.Hash()]; frame != nil {
			input.From = frame.From
			input.EthCalls = ethCalls(frame, make([]types.Transfer, 0))
		} else {
			from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(tx.ChainId()), tx)
			if err != nil {
				return common.Hash{}, nil, fmt.Errorf("failed to recover sender of %s: %w", tx.Hash().Hex(), err)
			}
			input.From = from
			if tx.To() != nil && tx.Value().Sign() > 0 {
				input.EthCalls = []types.Transfer{{Asset: types.Eth(), From: from, To: *tx.To(), Amount: tx.Value()}}
			}
		}
		res = append(res, input)
	}
	return block.Hash(), res, nil
}

// ethCalls flattens value-carrying frames. Reverted frames take their children
// with them, delegate and static calls never move the caller's ETH.
func ethCalls(frame *callFrame, acc []types.Transfer) []types.Transfer {
	if frame.Error != "" {
		return acc
	}
	switch strings.ToUpper(frame.Type) {
	case "DELEGATECALL", "STATICCALL", "CALLCODE":
	default:
		if frame.To != nil && frame.Value != nil && frame.Value.ToInt().Sign() > 0 {
			acc = append(acc, types.Transfer{
				Asset:  types.Eth(),
				From:   frame.From,
				To:     *frame.To,
				Amount: new(big.Int).Set(frame.Value.ToInt()),
			})
		}
	}
	for i := range frame.Calls {
		acc = ethCalls(&frame.Calls[i], acc)
	}
	return acc
}
