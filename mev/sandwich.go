package mev

import (
	"sort"

	MapSet "github.com/deckarep/golang-set/v2"

	"mevwatcher/types"
)

// SandwichFinder detects classic sandwiches among the swaps of one block.
type SandwichFinder struct {
	Swaps      types.Swaps
	Deposits   []*types.LiquidityDeposit
	Sandwiches []*types.Sandwich

	// Internal states
	buckets          map[PoolKey][]PoolEntry
	confirmedSwapIdx MapSet.Set[int] // swaps already attributed to a sandwich, as a leg or a victim
	usedDepositIdx   MapSet.Set[int]

	// Record the last evaluated sandwich
	lastFront    PoolEntry
	lastBack     PoolEntry
	lastVictims  []PoolEntry
	lastDeposits []int
}

// Suppose a sandwich consists of front-run A->B, victim(s) A->B, and back-run B->A,
// front-run and back-run sent by the same account in two different transactions.
// Find detects sandwiches in the provided swaps
func (f *SandwichFinder) Find() {
	f.Sandwiches = make([]*types.Sandwich, 0)
	f.confirmedSwapIdx = MapSet.NewThreadUnsafeSet[int]()
	f.usedDepositIdx = MapSet.NewThreadUnsafeSet[int]()
	// Build buckets for swaps, keyed by (pool, assetIn, assetOut)
	f.buckets = buildSwapBuckets(f.Swaps)

	// Front direction: (pool, A, B), back direction: (pool, B, A)
	for _, key := range sortedPoolKeys(f.buckets) {
		frontBucket := f.buckets[key]
		backBucket, ok := f.buckets[key.Reverse()]
		if !ok || len(backBucket) == 0 {
			continue // No reverse bucket, cannot form sandwich
		}

		for _, front := range frontBucket {
			if f.confirmedSwapIdx.Contains(front.SwapIdx) {
				continue
			}
			if !f.collectBack(front, frontBucket, backBucket) {
				continue
			}
			f.RecordSandwich()
			f.ResetSandwichState()
		}
	}
}

func (f *SandwichFinder) ResetSandwichState() {
	f.lastVictims = nil
	f.lastDeposits = nil
}

// collectBack scans the reverse bucket for the first back-run of front that
// has at least one victim.
func (f *SandwichFinder) collectBack(front PoolEntry, frontBucket, backBucket []PoolEntry) bool {
	for _, back := range backBucket {
		// Back-run must be in a later transaction
		if back.TxIndex <= front.TxIndex || back.TxHash == front.TxHash {
			continue
		}
		if f.confirmedSwapIdx.Contains(back.SwapIdx) {
			continue
		}
		if back.Taker != front.Taker {
			continue
		}
		victims := f.collectVictims(front, back, frontBucket)
		if len(victims) == 0 {
			continue
		}
		f.lastFront = front
		f.lastBack = back
		f.lastVictims = victims
		f.lastDeposits = f.collectDeposits(front, back)
		return true
	}
	return false
}

// collectVictims returns the swaps of frontBucket strictly between front and
// back, sent by another account.
func (f *SandwichFinder) collectVictims(front, back PoolEntry, frontBucket []PoolEntry) []PoolEntry {
	victims := make([]PoolEntry, 0)
	if back.TxIndex <= front.TxIndex+1 {
		return victims // No space for victim txs
	}
	for _, e := range frontBucket {
		if e.TxIndex <= front.TxIndex || e.TxIndex >= back.TxIndex {
			continue
		}
		if e.Taker == front.Taker {
			continue
		}
		if f.confirmedSwapIdx.Contains(e.SwapIdx) {
			continue
		}
		victims = append(victims, e)
	}
	return victims
}

// collectDeposits returns third-party deposits to the sandwiched pool inside the
// window. They pay the same inflated price as swap victims.
func (f *SandwichFinder) collectDeposits(front, back PoolEntry) []int {
	res := make([]int, 0)
	pool := SwapPool(f.Swaps[front.SwapIdx])
	for i, d := range f.Deposits {
		if !d.Valid() || f.usedDepositIdx.Contains(i) {
			continue
		}
		if d.Transaction.Index <= front.TxIndex || d.Transaction.Index >= back.TxIndex {
			continue
		}
		if d.Depositor == front.Taker || DepositPool(d) != pool {
			continue
		}
		res = append(res, i)
	}
	return res
}

func (f *SandwichFinder) RecordSandwich() {
	if len(f.lastVictims) == 0 {
		return
	}
	frontSwap := f.Swaps[f.lastFront.SwapIdx]
	backSwap := f.Swaps[f.lastBack.SwapIdx]

	f.confirmedSwapIdx.Add(f.lastFront.SwapIdx)
	f.confirmedSwapIdx.Add(f.lastBack.SwapIdx)

	victims := make([]types.Victim, 0, len(f.lastVictims)+len(f.lastDeposits))
	txIndices := []uint{f.lastFront.TxIndex, f.lastBack.TxIndex}
	for _, v := range f.lastVictims {
		f.confirmedSwapIdx.Add(v.SwapIdx)
		victims = append(victims, types.Victim{Swap: f.Swaps[v.SwapIdx]})
		txIndices = append(txIndices, v.TxIndex)
	}
	for _, i := range f.lastDeposits {
		f.usedDepositIdx.Add(i)
		victims = append(victims, types.Victim{Deposit: f.Deposits[i]})
		txIndices = append(txIndices, f.Deposits[i].Transaction.Index)
	}
	sort.SliceStable(victims, func(i, j int) bool {
		return victimBefore(victims[i], victims[j])
	})

	// The sandwicher pays A in the front-run and receives A in the back-run
	ledger := NewLedger()
	profitAsset := types.Erc20(frontSwap.AssetIn)
	ledger.Debit(frontSwap.From, profitAsset, frontSwap.AmountIn)
	ledger.Credit(backSwap.From, types.Erc20(backSwap.AssetOut), backSwap.AmountOut)

	f.Sandwiches = append(f.Sandwiches, &types.Sandwich{
		Sandwicher: frontSwap.From,
		FrontSwap:  frontSwap,
		BackSwap:   backSwap,
		Sandwiched: victims,
		Profit: types.AssetAmount{
			Asset:  profitAsset,
			Amount: ledger.Balance(frontSwap.From, profitAsset),
		},
		Consecutive: isTxIndicesConsecutive(txIndices),
	})
}

func victimBefore(a, b types.Victim) bool {
	ta, tb := a.Transaction(), b.Transaction()
	if ta.Index != tb.Index {
		return ta.Index < tb.Index
	}
	return victimLogIndex(a) < victimLogIndex(b)
}

func victimLogIndex(v types.Victim) uint {
	if v.Swap != nil {
		return v.Swap.Event.LogIndex
	}
	return v.Deposit.Event.LogIndex
}

// FindSandwiches runs a SandwichFinder over one block.
func FindSandwiches(swaps types.Swaps, deposits []*types.LiquidityDeposit) []*types.Sandwich {
	finder := &SandwichFinder{Swaps: swaps, Deposits: deposits}
	finder.Find()
	return finder.Sandwiches
}
