package db

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"mevwatcher/mev"
	"mevwatcher/types"
)

// Rows mirror the ClickHouse tables created in CreateTables. Amounts are
// Decimal(76, 0) columns, wide enough for any uint256.

type ArbitrageRow struct {
	BlockNumber uint64          `ch:"blockNumber"`
	TxHash      string          `ch:"txHash"`
	TxIndex     uint32          `ch:"txIndex"`
	Taker       string          `ch:"taker"`
	ProfitAsset string          `ch:"profitAsset"`
	StartAmount decimal.Decimal `ch:"startAmount"`
	EndAmount   decimal.Decimal `ch:"endAmount"`
	Profit      decimal.Decimal `ch:"profit"`
	Hops        uint16          `ch:"hops"`
	Pools       []string        `ch:"pools"`
	Protocols   []string        `ch:"protocols"`
}

type SandwichRow struct {
	BlockNumber uint64          `ch:"blockNumber"`
	Sandwicher  string          `ch:"sandwicher"`
	Pool        string          `ch:"pool"`
	FrontTx     string          `ch:"frontTx"`
	BackTx      string          `ch:"backTx"`
	VictimTxs   []string        `ch:"victimTxs"`
	VictimCount uint16          `ch:"victimCount"`
	ProfitAsset string          `ch:"profitAsset"`
	Profit      decimal.Decimal `ch:"profit"`
	Consecutive bool            `ch:"consecutive"`
}

type JitSandwichRow struct {
	BlockNumber  uint64            `ch:"blockNumber"`
	Sandwicher   string            `ch:"sandwicher"`
	Pool         string            `ch:"pool"`
	DepositTx    string            `ch:"depositTx"`
	WithdrawalTx string            `ch:"withdrawalTx"`
	SwapTxs      []string          `ch:"swapTxs"`
	DeltaAssets  []string          `ch:"deltaAssets"`
	Deltas       []decimal.Decimal `ch:"deltas"`
}

type LiquidationRow struct {
	BlockNumber      uint64          `ch:"blockNumber"`
	TxHash           string          `ch:"txHash"`
	LendingPool      string          `ch:"lendingPool"`
	Protocol         string          `ch:"protocol"`
	Liquidator       string          `ch:"liquidator"`
	Borrower         string          `ch:"borrower"`
	DebtAsset        string          `ch:"debtAsset"`
	DebtAmount       decimal.Decimal `ch:"debtAmount"`
	CollateralAsset  string          `ch:"collateralAsset"`
	CollateralAmount decimal.Decimal `ch:"collateralAmount"`
}

type NftArbitrageRow struct {
	BlockNumber  uint64          `ch:"blockNumber"`
	TxHash       string          `ch:"txHash"`
	Collection   string          `ch:"collection"`
	TokenId      string          `ch:"tokenId"`
	BuyProtocol  string          `ch:"buyProtocol"`
	SellProtocol string          `ch:"sellProtocol"`
	Sender       string          `ch:"sender"`
	Beneficiary  string          `ch:"beneficiary"`
	ProfitAsset  string          `ch:"profitAsset"`
	Profit       decimal.Decimal `ch:"profit"`
}

type PureArbitrageRow struct {
	BlockNumber uint64            `ch:"blockNumber"`
	TxHash      string            `ch:"txHash"`
	Searcher    string            `ch:"searcher"`
	Beneficiary string            `ch:"beneficiary"`
	Assets      []string          `ch:"assets"`
	Amounts     []decimal.Decimal `ch:"amounts"`
}

type ProcessedBlock struct {
	BlockNumber uint64    `ch:"blockNumber"`
	Source      string    `ch:"source"`
	Detections  uint32    `ch:"detections"`
	ProcessedAt time.Time `ch:"processedAt"`
}

// ReportRows holds the rows of one block report, one slice per table.
type ReportRows struct {
	Arbitrages     []*ArbitrageRow
	Sandwiches     []*SandwichRow
	JitSandwiches  []*JitSandwichRow
	Liquidations   []*LiquidationRow
	NftArbitrages  []*NftArbitrageRow
	PureArbitrages []*PureArbitrageRow
}

func toDecimal(x *big.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, 0)
}

func hexAddr(a common.Address) string {
	return a.Hex()
}

func NewReportRows(r *types.Report) *ReportRows {
	rows := &ReportRows{}
	for _, a := range r.Arbitrages {
		rows.Arbitrages = append(rows.Arbitrages, NewArbitrageRow(r.BlockNumber, a))
	}
	for _, s := range r.Sandwiches {
		rows.Sandwiches = append(rows.Sandwiches, NewSandwichRow(r.BlockNumber, s))
	}
	for _, j := range r.JitSandwiches {
		rows.JitSandwiches = append(rows.JitSandwiches, NewJitSandwichRow(r.BlockNumber, j))
	}
	for _, l := range r.Liquidations {
		rows.Liquidations = append(rows.Liquidations, NewLiquidationRow(r.BlockNumber, l))
	}
	for _, n := range r.NftArbitrages {
		rows.NftArbitrages = append(rows.NftArbitrages, NewNftArbitrageRow(r.BlockNumber, n))
	}
	for _, p := range r.PureArbitrages {
		rows.PureArbitrages = append(rows.PureArbitrages, NewPureArbitrageRow(p))
	}
	return rows
}

func NewArbitrageRow(blockNumber uint64, a *types.Arbitrage) *ArbitrageRow {
	first := a.Swaps[0]
	row := &ArbitrageRow{
		BlockNumber: blockNumber,
		TxHash:      first.Transaction.Hash.Hex(),
		TxIndex:     uint32(first.Transaction.Index),
		Taker:       hexAddr(first.From),
		ProfitAsset: hexAddr(a.ProfitAsset),
		StartAmount: toDecimal(a.StartAmount),
		EndAmount:   toDecimal(a.EndAmount),
		Profit:      toDecimal(a.Profit()),
		Hops:        uint16(len(a.Swaps)),
		Pools:       make([]string, 0, len(a.Swaps)),
		Protocols:   make([]string, 0, len(a.Swaps)),
	}
	for _, s := range a.Swaps {
		row.Pools = append(row.Pools, hexAddr(mev.SwapPool(s)))
		row.Protocols = append(row.Protocols, string(s.Contract.Protocol))
	}
	return row
}

func NewSandwichRow(blockNumber uint64, s *types.Sandwich) *SandwichRow {
	row := &SandwichRow{
		BlockNumber: blockNumber,
		Sandwicher:  hexAddr(s.Sandwicher),
		Pool:        hexAddr(mev.SwapPool(s.FrontSwap)),
		FrontTx:     s.FrontSwap.Transaction.Hash.Hex(),
		BackTx:      s.BackSwap.Transaction.Hash.Hex(),
		VictimTxs:   make([]string, 0, len(s.Sandwiched)),
		VictimCount: uint16(len(s.Sandwiched)),
		ProfitAsset: hexAddr(s.Profit.Asset.Address),
		Profit:      toDecimal(s.Profit.Amount),
		Consecutive: s.Consecutive,
	}
	for _, v := range s.Sandwiched {
		row.VictimTxs = append(row.VictimTxs, v.Transaction().Hash.Hex())
	}
	return row
}

func NewJitSandwichRow(blockNumber uint64, j *types.JitSandwich) *JitSandwichRow {
	row := &JitSandwichRow{
		BlockNumber:  blockNumber,
		Sandwicher:   hexAddr(j.Sandwicher),
		Pool:         hexAddr(mev.DepositPool(j.Deposit)),
		DepositTx:    j.Deposit.Transaction.Hash.Hex(),
		WithdrawalTx: j.Withdrawal.Transaction.Hash.Hex(),
		SwapTxs:      make([]string, 0, len(j.Sandwiched)),
		DeltaAssets:  make([]string, 0, len(j.Deltas)),
		Deltas:       make([]decimal.Decimal, 0, len(j.Deltas)),
	}
	for _, s := range j.Sandwiched {
		row.SwapTxs = append(row.SwapTxs, s.Transaction.Hash.Hex())
	}
	for _, d := range j.Deltas {
		row.DeltaAssets = append(row.DeltaAssets, hexAddr(d.Asset.Address))
		row.Deltas = append(row.Deltas, toDecimal(d.Amount))
	}
	return row
}

func NewLiquidationRow(blockNumber uint64, l *types.Liquidation) *LiquidationRow {
	return &LiquidationRow{
		BlockNumber:      blockNumber,
		TxHash:           l.Repayment.Transaction.Hash.Hex(),
		LendingPool:      hexAddr(l.Repayment.Contract.Address),
		Protocol:         string(l.Repayment.Contract.Protocol),
		Liquidator:       hexAddr(l.Repayment.Payer),
		Borrower:         hexAddr(l.Repayment.Borrower),
		DebtAsset:        hexAddr(l.Repayment.Asset),
		DebtAmount:       toDecimal(l.Repayment.Amount),
		CollateralAsset:  hexAddr(l.Seizure.Asset),
		CollateralAmount: toDecimal(l.Seizure.Amount),
	}
}

func NewNftArbitrageRow(blockNumber uint64, n *types.NftArbitrage) *NftArbitrageRow {
	buy, sell := n.Swaps[0], n.Swaps[1]
	row := &NftArbitrageRow{
		BlockNumber:  blockNumber,
		TxHash:       buy.Transaction.Hash.Hex(),
		Collection:   hexAddr(buy.AssetOut.Address),
		BuyProtocol:  string(buy.Contract.Protocol),
		SellProtocol: string(sell.Contract.Protocol),
		Sender:       hexAddr(n.Arbitrager.Sender),
		Beneficiary:  hexAddr(n.Arbitrager.Beneficiary),
		ProfitAsset:  n.Profit.Asset.String(),
		Profit:       toDecimal(n.Profit.Amount),
	}
	if buy.AssetOut.ID != nil {
		row.TokenId = buy.AssetOut.ID.String()
	}
	return row
}

func NewPureArbitrageRow(p *types.PureArbitrage) *PureArbitrageRow {
	row := &PureArbitrageRow{
		BlockNumber: p.BlockNumber,
		Searcher:    hexAddr(p.Searcher),
		Beneficiary: hexAddr(p.Beneficiary),
		Assets:      make([]string, 0, len(p.Assets)),
		Amounts:     make([]decimal.Decimal, 0, len(p.Assets)),
	}
	if len(p.Transactions) > 0 {
		row.TxHash = p.Transactions[0].Hex()
	}
	for _, a := range p.Assets {
		row.Assets = append(row.Assets, a.Asset.String())
		row.Amounts = append(row.Amounts, toDecimal(a.Amount))
	}
	return row
}
