package mev

import (
	"sort"

	MapSet "github.com/deckarep/golang-set/v2"

	"mevwatcher/types"
)

// JitSandwichFinder detects liquidity added right before and removed right
// after swaps on the same pool, by the same account.
type JitSandwichFinder struct {
	Swaps         types.Swaps
	Deposits      []*types.LiquidityDeposit
	Withdrawals   []*types.LiquidityWithdrawal
	JitSandwiches []*types.JitSandwich

	// Internal states
	usedSwapIdx       MapSet.Set[int]
	usedDepositIdx    MapSet.Set[int]
	usedWithdrawalIdx MapSet.Set[int]
}

func (f *JitSandwichFinder) Find() {
	f.JitSandwiches = make([]*types.JitSandwich, 0)
	f.usedSwapIdx = MapSet.NewThreadUnsafeSet[int]()
	f.usedDepositIdx = MapSet.NewThreadUnsafeSet[int]()
	f.usedWithdrawalIdx = MapSet.NewThreadUnsafeSet[int]()

	for _, di := range f.depositOrder() {
		deposit := f.Deposits[di]
		wi := f.nearestWithdrawal(deposit)
		if wi < 0 {
			continue
		}
		withdrawal := f.Withdrawals[wi]
		if !alignedPosition(deposit, withdrawal) {
			continue // Malformed pair
		}

		swapIdx := f.collectSandwiched(deposit, withdrawal)
		if len(swapIdx) == 0 {
			continue
		}
		f.record(di, wi, swapIdx)
	}
}

// depositOrder returns valid deposit indices in block order.
func (f *JitSandwichFinder) depositOrder() []int {
	res := make([]int, 0, len(f.Deposits))
	for i, d := range f.Deposits {
		if d.Valid() {
			res = append(res, i)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		a, b := f.Deposits[res[i]], f.Deposits[res[j]]
		if a.Transaction.Index != b.Transaction.Index {
			return a.Transaction.Index < b.Transaction.Index
		}
		return a.Event.LogIndex < b.Event.LogIndex
	})
	return res
}

// nearestWithdrawal returns the earliest unused withdrawal by the depositor on
// the same pool in a later transaction, or -1.
func (f *JitSandwichFinder) nearestWithdrawal(d *types.LiquidityDeposit) int {
	pool := DepositPool(d)
	best := -1
	for i, w := range f.Withdrawals {
		if !w.Valid() || f.usedWithdrawalIdx.Contains(i) {
			continue
		}
		if w.Withdrawer != d.Depositor || withdrawalPool(w) != pool {
			continue
		}
		// Same transaction brackets nothing
		if w.Transaction.Index <= d.Transaction.Index || w.Transaction.Hash == d.Transaction.Hash {
			continue
		}
		if best < 0 || withdrawalBefore(w, f.Withdrawals[best]) {
			best = i
		}
	}
	return best
}

func withdrawalBefore(a, b *types.LiquidityWithdrawal) bool {
	if a.Transaction.Index != b.Transaction.Index {
		return a.Transaction.Index < b.Transaction.Index
	}
	return a.Event.LogIndex < b.Event.LogIndex
}

// alignedPosition reports whether deposit and withdrawal move the same assets at
// the same indices.
func alignedPosition(d *types.LiquidityDeposit, w *types.LiquidityWithdrawal) bool {
	if len(d.Assets) != len(w.Assets) {
		return false
	}
	for i := range d.Assets {
		if d.Assets[i] != w.Assets[i] {
			return false
		}
	}
	return true
}

// collectSandwiched returns swaps on the position's pool strictly between the
// deposit and the withdrawal whose tick lies in [tickLower, tickUpper).
// Positions without a range count every swap in between.
func (f *JitSandwichFinder) collectSandwiched(d *types.LiquidityDeposit, w *types.LiquidityWithdrawal) []int {
	pool := DepositPool(d)
	lower, upper, ranged := d.TickRange()

	res := make([]int, 0)
	for i, s := range f.Swaps {
		if !s.Valid() || f.usedSwapIdx.Contains(i) {
			continue
		}
		if SwapPool(s) != pool {
			continue
		}
		if s.Transaction.Index <= d.Transaction.Index || s.Transaction.Index >= w.Transaction.Index {
			continue
		}
		if ranged {
			tick, ok := s.Tick()
			if !ok {
				continue
			}
			if tick.Cmp(lower) < 0 || tick.Cmp(upper) >= 0 {
				continue
			}
		}
		res = append(res, i)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return f.Swaps[res[i]].Before(f.Swaps[res[j]])
	})
	return res
}

func (f *JitSandwichFinder) record(di, wi int, swapIdx []int) {
	deposit := f.Deposits[di]
	withdrawal := f.Withdrawals[wi]

	f.usedDepositIdx.Add(di)
	f.usedWithdrawalIdx.Add(wi)
	sandwiched := make(types.Swaps, 0, len(swapIdx))
	for _, i := range swapIdx {
		f.usedSwapIdx.Add(i)
		sandwiched = append(sandwiched, f.Swaps[i])
	}

	// Per asset index: withdrawn minus deposited
	deltas := make([]types.AssetAmount, 0, len(deposit.Assets))
	for i, addr := range deposit.Assets {
		ledger := NewLedger()
		asset := types.Erc20(addr)
		ledger.Debit(deposit.Depositor, asset, deposit.Amounts[i])
		ledger.Credit(deposit.Depositor, asset, withdrawal.Amounts[i])
		deltas = append(deltas, types.AssetAmount{
			Asset:  asset,
			Amount: ledger.Balance(deposit.Depositor, asset),
		})
	}

	f.JitSandwiches = append(f.JitSandwiches, &types.JitSandwich{
		Sandwicher: deposit.Depositor,
		Deposit:    deposit,
		Withdrawal: withdrawal,
		Sandwiched: sandwiched,
		Deltas:     deltas,
	})
}

// FindJitSandwiches runs a JitSandwichFinder over one block.
func FindJitSandwiches(swaps types.Swaps, deposits []*types.LiquidityDeposit, withdrawals []*types.LiquidityWithdrawal) []*types.JitSandwich {
	finder := &JitSandwichFinder{Swaps: swaps, Deposits: deposits, Withdrawals: withdrawals}
	finder.Find()
	return finder.JitSandwiches
}
