package mev

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/types"
)

// PoolKey groups swaps that traded the same pool in the same direction.
type PoolKey struct {
	PoolAddress common.Address // Suppose a sandwich consists of front-run A->B, victim(s) A->B, and back-run B->A. Front-run and victims share one key
	AssetIn     common.Address // A for the front-run and victims, B for the back-run
	AssetOut    common.Address
}

// Reverse returns the key of swaps trading back the other way on the same pool.
func (k PoolKey) Reverse() PoolKey {
	return PoolKey{PoolAddress: k.PoolAddress, AssetIn: k.AssetOut, AssetOut: k.AssetIn}
}

type PoolEntry struct {
	SwapIdx  int // Index of the swap in the original swaps slice
	TxHash   common.Hash
	TxIndex  uint
	LogIndex uint
	Taker    common.Address
}

func buildSwapBuckets(swaps types.Swaps) map[PoolKey][]PoolEntry {
	buckets := make(map[PoolKey][]PoolEntry)
	for idx, s := range swaps {
		if !s.Valid() {
			continue
		}
		// A swap must move two distinct assets
		if s.AssetIn == s.AssetOut {
			continue
		}
		key := PoolKey{PoolAddress: SwapPool(s), AssetIn: s.AssetIn, AssetOut: s.AssetOut}
		buckets[key] = append(buckets[key], PoolEntry{
			SwapIdx:  idx,
			TxHash:   s.Transaction.Hash,
			TxIndex:  s.Transaction.Index,
			LogIndex: s.Event.LogIndex,
			Taker:    s.From,
		})
	}

	// Sort each bucket by transaction index, then log index
	for k := range buckets {
		sort.SliceStable(buckets[k], func(i, j int) bool {
			return entryBefore(buckets[k][i], buckets[k][j])
		})
	}
	return buckets
}

func entryBefore(a, b PoolEntry) bool {
	if a.TxIndex != b.TxIndex {
		return a.TxIndex < b.TxIndex
	}
	return a.LogIndex < b.LogIndex
}

// sortedPoolKeys returns the bucket keys in a stable order so repeated runs
// attribute contested swaps identically.
func sortedPoolKeys(buckets map[PoolKey][]PoolEntry) []PoolKey {
	keys := make([]PoolKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].PoolAddress[:], keys[j].PoolAddress[:]); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(keys[i].AssetIn[:], keys[j].AssetIn[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].AssetOut[:], keys[j].AssetOut[:]) < 0
	})
	return keys
}

// isTxIndicesConsecutive reports whether the distinct, sorted transaction
// indices have no gaps.
func isTxIndicesConsecutive(indices []uint) bool {
	if len(indices) <= 1 {
		return true
	}
	sorted := make([]uint, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	prev := sorted[0]
	for _, idx := range sorted[1:] {
		if idx == prev {
			continue
		}
		if idx != prev+1 {
			return false
		}
		prev = idx
	}
	return true
}
