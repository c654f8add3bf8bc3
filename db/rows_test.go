package db

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mevwatcher/types"
)

var (
	tokenX   = common.HexToAddress("0x1000000000000000000000000000000000000001")
	tokenY   = common.HexToAddress("0x1000000000000000000000000000000000000002")
	poolP    = common.HexToAddress("0x3000000000000000000000000000000000000001")
	vault    = common.HexToAddress("0xba12222222228d8ba445958a75a0704d566bf2c8")
	searcher = common.HexToAddress("0x4000000000000000000000000000000000000001")
	victim   = common.HexToAddress("0x4000000000000000000000000000000000000002")
)

func swapAt(txIndex uint, from common.Address, in, out common.Address, amountIn, amountOut int64) *types.Swap {
	return &types.Swap{
		Contract:    types.Contract{Address: poolP, Protocol: types.ProtocolUniswapV2},
		Block:       types.BlockRef{Number: 17000000},
		Transaction: types.TxRef{Hash: common.BigToHash(big.NewInt(int64(txIndex) + 1)), Index: txIndex},
		From:        from,
		To:          from,
		AssetIn:     in,
		AmountIn:    big.NewInt(amountIn),
		AssetOut:    out,
		AmountOut:   big.NewInt(amountOut),
	}
}

func TestToDecimal(t *testing.T) {
	huge, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	require.True(t, ok)

	assert.True(t, toDecimal(nil).IsZero())
	assert.Equal(t, huge.String(), toDecimal(huge).String())
	assert.True(t, toDecimal(big.NewInt(-42)).Equal(decimal.NewFromInt(-42)))
}

func TestNewArbitrageRow(t *testing.T) {
	first := swapAt(3, searcher, tokenX, tokenY, 100, 50)
	second := swapAt(3, searcher, tokenY, tokenX, 50, 90)
	second.Contract = types.Contract{Address: vault, Protocol: types.ProtocolBalancerV2}
	second.Metadata = types.Metadata{types.MetaPoolId: "0x5c6ee304399dbdb9c8ef030ab642b10820db8f56000200000000000000000014"}

	row := NewArbitrageRow(17000000, &types.Arbitrage{
		Swaps:       types.Swaps{first, second},
		StartAmount: big.NewInt(100),
		EndAmount:   big.NewInt(90),
		ProfitAsset: tokenX,
	})

	assert.Equal(t, first.Transaction.Hash.Hex(), row.TxHash)
	assert.Equal(t, uint32(3), row.TxIndex)
	assert.Equal(t, uint16(2), row.Hops)
	assert.True(t, row.Profit.Equal(decimal.NewFromInt(-10)))
	assert.Equal(t, []string{poolP.Hex(), common.HexToAddress("0x5c6ee304399dbdb9c8ef030ab642b10820db8f56").Hex()}, row.Pools)
	assert.Equal(t, []string{"uniswapV2", "balancerV2"}, row.Protocols)
}

func TestNewReportRows(t *testing.T) {
	front := swapAt(1, searcher, tokenX, tokenY, 100, 50)
	middle := swapAt(2, victim, tokenX, tokenY, 200, 90)
	back := swapAt(3, searcher, tokenY, tokenX, 50, 120)
	deposit := &types.LiquidityDeposit{
		Contract:    types.Contract{Address: poolP},
		Transaction: types.TxRef{Hash: common.HexToHash("0xd1"), Index: 1},
		Depositor:   searcher,
		Assets:      []common.Address{tokenX, tokenY},
		Amounts:     []*big.Int{big.NewInt(10), big.NewInt(20)},
	}
	withdrawal := &types.LiquidityWithdrawal{
		Contract:    types.Contract{Address: poolP},
		Transaction: types.TxRef{Hash: common.HexToHash("0xd3"), Index: 3},
		Withdrawer:  searcher,
		Assets:      []common.Address{tokenX, tokenY},
		Amounts:     []*big.Int{big.NewInt(15), big.NewInt(12)},
	}
	report := &types.Report{
		BlockNumber: 17000000,
		Sandwiches: []*types.Sandwich{{
			Sandwicher:  searcher,
			FrontSwap:   front,
			BackSwap:    back,
			Sandwiched:  []types.Victim{{Swap: middle}},
			Profit:      types.AssetAmount{Asset: types.Erc20(tokenX), Amount: big.NewInt(20)},
			Consecutive: true,
		}},
		JitSandwiches: []*types.JitSandwich{{
			Sandwicher: searcher,
			Deposit:    deposit,
			Withdrawal: withdrawal,
			Sandwiched: types.Swaps{middle},
			Deltas: []types.AssetAmount{
				{Asset: types.Erc20(tokenX), Amount: big.NewInt(5)},
				{Asset: types.Erc20(tokenY), Amount: big.NewInt(-8)},
			},
		}},
		PureArbitrages: []*types.PureArbitrage{{
			Transactions: []common.Hash{common.HexToHash("0xaa")},
			BlockNumber:  17000000,
			Searcher:     searcher,
			Beneficiary:  searcher,
			Assets:       []types.AssetAmount{{Asset: types.Eth(), Amount: big.NewInt(7)}},
		}},
	}

	rows := NewReportRows(report)

	require.Len(t, rows.Sandwiches, 1)
	s := rows.Sandwiches[0]
	assert.Equal(t, poolP.Hex(), s.Pool)
	assert.Equal(t, []string{middle.Transaction.Hash.Hex()}, s.VictimTxs)
	assert.Equal(t, uint16(1), s.VictimCount)
	assert.Equal(t, tokenX.Hex(), s.ProfitAsset)
	assert.True(t, s.Profit.Equal(decimal.NewFromInt(20)))
	assert.True(t, s.Consecutive)

	require.Len(t, rows.JitSandwiches, 1)
	j := rows.JitSandwiches[0]
	assert.Equal(t, common.HexToHash("0xd1").Hex(), j.DepositTx)
	assert.Equal(t, []string{tokenX.Hex(), tokenY.Hex()}, j.DeltaAssets)
	require.Len(t, j.Deltas, 2)
	assert.True(t, j.Deltas[1].Equal(decimal.NewFromInt(-8)))

	require.Len(t, rows.PureArbitrages, 1)
	assert.Equal(t, common.HexToHash("0xaa").Hex(), rows.PureArbitrages[0].TxHash)
	assert.Equal(t, []string{"eth"}, rows.PureArbitrages[0].Assets)

	assert.Empty(t, rows.Arbitrages)
	assert.Empty(t, rows.Liquidations)
	assert.Empty(t, rows.NftArbitrages)
}

func TestNewLiquidationAndNftRows(t *testing.T) {
	liq := NewLiquidationRow(17000000, &types.Liquidation{
		Repayment: &types.Repayment{
			Contract:    types.Contract{Address: poolP, Protocol: types.ProtocolAaveV2},
			Transaction: types.TxRef{Hash: common.HexToHash("0xbb")},
			Payer:       searcher,
			Borrower:    victim,
			Asset:       tokenX,
			Amount:      big.NewInt(1000),
		},
		Seizure: &types.Seizure{
			Seizor:   searcher,
			Borrower: victim,
			Asset:    tokenY,
			Amount:   big.NewInt(1100),
		},
	})
	assert.Equal(t, "aaveV2", liq.Protocol)
	assert.Equal(t, searcher.Hex(), liq.Liquidator)
	assert.True(t, liq.CollateralAmount.Equal(decimal.NewFromInt(1100)))

	collection := common.HexToAddress("0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d")
	buy := &types.NftSwap{
		Contract:    types.Contract{Protocol: types.ProtocolOpensea},
		Transaction: types.TxRef{Hash: common.HexToHash("0xcc")},
		AssetIn:     types.Eth(),
		AssetOut:    types.Erc721(collection, big.NewInt(42)),
	}
	sell := &types.NftSwap{Contract: types.Contract{Protocol: types.ProtocolLooksRare}}
	nft := NewNftArbitrageRow(17000000, &types.NftArbitrage{
		Swaps:      [2]*types.NftSwap{buy, sell},
		Profit:     types.AssetAmount{Asset: types.Eth(), Amount: big.NewInt(3)},
		Arbitrager: types.Arbitrager{Sender: searcher, Beneficiary: searcher},
	})
	assert.Equal(t, collection.Hex(), nft.Collection)
	assert.Equal(t, "42", nft.TokenId)
	assert.Equal(t, "opensea", nft.BuyProtocol)
	assert.Equal(t, "looksRare", nft.SellProtocol)
	assert.Equal(t, "eth", nft.ProfitAsset)
}
