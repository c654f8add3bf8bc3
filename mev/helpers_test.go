package mev

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/types"
)

var (
	tokenW = common.HexToAddress("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2")
	tokenX = common.HexToAddress("0x6b175474e89094c44da98b954eedeac495271d0f")
	tokenY = common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")

	poolP = common.HexToAddress("0x1000000000000000000000000000000000000001")
	poolQ = common.HexToAddress("0x1000000000000000000000000000000000000002")
	poolR = common.HexToAddress("0x1000000000000000000000000000000000000003")

	searcher = common.HexToAddress("0x2000000000000000000000000000000000000001")
	other    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	victim   = common.HexToAddress("0x2000000000000000000000000000000000000003")
)

func txHashOf(index uint) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(uint64(index) + 0x1000))
}

func newSwap(txIndex, logIndex uint, pool, from, assetIn common.Address, amountIn int64, assetOut common.Address, amountOut int64) *types.Swap {
	return &types.Swap{
		Contract:    types.Contract{Address: pool, Protocol: types.ProtocolUniswapV2},
		Block:       types.BlockRef{Number: 17000000},
		Transaction: types.TxRef{Hash: txHashOf(txIndex), Index: txIndex},
		Event:       types.EventRef{Address: pool, LogIndex: logIndex},
		From:        from,
		To:          from,
		AssetIn:     assetIn,
		AmountIn:    big.NewInt(amountIn),
		AssetOut:    assetOut,
		AmountOut:   big.NewInt(amountOut),
	}
}

func withTick(s *types.Swap, tick int) *types.Swap {
	s.Contract.Protocol = types.ProtocolUniswapV3
	s.Metadata = types.Metadata{types.MetaTick: tick}
	return s
}

func newDeposit(txIndex uint, pool, depositor common.Address, assets []common.Address, amounts ...int64) *types.LiquidityDeposit {
	d := &types.LiquidityDeposit{
		Contract:    types.Contract{Address: pool, Protocol: types.ProtocolUniswapV3},
		Transaction: types.TxRef{Hash: txHashOf(txIndex), Index: txIndex},
		Event:       types.EventRef{Address: pool},
		Depositor:   depositor,
		Assets:      assets,
	}
	for _, a := range amounts {
		d.Amounts = append(d.Amounts, big.NewInt(a))
	}
	return d
}

func withRange(d *types.LiquidityDeposit, lower, upper int) *types.LiquidityDeposit {
	d.Metadata = types.Metadata{types.MetaTickLower: lower, types.MetaTickUpper: upper}
	return d
}

func newWithdrawal(txIndex uint, pool, withdrawer common.Address, assets []common.Address, amounts ...int64) *types.LiquidityWithdrawal {
	w := &types.LiquidityWithdrawal{
		Contract:    types.Contract{Address: pool, Protocol: types.ProtocolUniswapV3},
		Transaction: types.TxRef{Hash: txHashOf(txIndex), Index: txIndex},
		Event:       types.EventRef{Address: pool},
		Withdrawer:  withdrawer,
		Assets:      assets,
	}
	for _, a := range amounts {
		w.Amounts = append(w.Amounts, big.NewInt(a))
	}
	return w
}
