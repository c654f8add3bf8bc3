package mev

import (
	"math/big"

	MapSet "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/config"
	"mevwatcher/types"
	"mevwatcher/utils"
)

// ArbitrageFinder finds cyclic swap chains inside a single transaction.
//
// Suppose an arbitrage consists of swaps A->B, B->C, C->A by the same taker.
// A start is a swap whose taker is not a pool of this transaction and that has
// at least one end: another swap by the same taker paying out the start's input
// asset. For each unused start the shortest chain to an unused end is kept.
type ArbitrageFinder struct {
	Swaps           types.Swaps // all swaps of one transaction
	Arbitrages      []*types.Arbitrage
	AmountThreshold int64 // percent, see utils.EqualWithinPercent
	MaxHops         int   // maximum chain length, 0 for no limit

	// Internal states
	pools MapSet.Set[common.Address] // pool and contract addresses seen in the transaction
	used  MapSet.Set[int]            // swap indices already part of an arbitrage
}

// routeNode is one step of a partial chain, linked to its parent node.
type routeNode struct {
	swap   int
	parent int
	depth  int
}

// Find detects arbitrages in f.Swaps.
func (f *ArbitrageFinder) Find() {
	f.Arbitrages = make([]*types.Arbitrage, 0)
	f.used = MapSet.NewThreadUnsafeSet[int]()
	f.pools = MapSet.NewThreadUnsafeSet[common.Address]()
	if f.AmountThreshold <= 0 {
		f.AmountThreshold = config.AMOUNT_MATCH_PERCENT
	}

	for _, s := range f.Swaps {
		if s == nil {
			continue
		}
		f.pools.Add(s.Contract.Address)
		f.pools.Add(SwapPool(s))
	}

	for i, start := range f.Swaps {
		if f.used.Contains(i) || !start.Valid() {
			continue
		}
		// Intermediate hops of a routed trade are taken by a pool, not a trader
		if f.pools.Contains(start.From) {
			continue
		}
		ends := f.collectEnds(i)
		if len(ends) == 0 {
			continue
		}
		route := f.shortestRoute(i, ends)
		if route == nil {
			continue
		}
		f.recordArbitrage(route)
	}
}

// collectEnds returns swaps that could close a cycle opened by start.
func (f *ArbitrageFinder) collectEnds(start int) []int {
	s := f.Swaps[start]
	ends := make([]int, 0)
	for j, e := range f.Swaps {
		if j == start || !e.Valid() {
			continue
		}
		if e.From == s.From && e.AssetOut == s.AssetIn {
			ends = append(ends, j)
		}
	}
	return ends
}

// continues reports whether next consumes the output of prev.
func (f *ArbitrageFinder) continues(prev, next int) bool {
	p, n := f.Swaps[prev], f.Swaps[next]
	if !n.Valid() {
		return false
	}
	return p.AssetOut == n.AssetIn &&
		p.From == n.From &&
		utils.EqualWithinPercent(p.AmountOut, n.AmountIn, f.AmountThreshold)
}

// shortestRoute runs a breadth-first search from start. Nodes are expanded in
// discovery order and each node checks the ends before other hops, so the
// first completed chain is the shortest one, ties going to the earliest found.
// A swap is enqueued at most once, at its shortest depth.
func (f *ArbitrageFinder) shortestRoute(start int, ends []int) []int {
	nodes := []routeNode{{swap: start, parent: -1, depth: 1}}
	visited := MapSet.NewThreadUnsafeSet[int](start)

	for head := 0; head < len(nodes); head++ {
		cur := nodes[head]

		if f.MaxHops <= 0 || cur.depth+1 <= f.MaxHops {
			for _, e := range ends {
				if f.used.Contains(e) || onRoute(nodes, head, e) {
					continue
				}
				if f.continues(cur.swap, e) {
					return unwindRoute(nodes, head, e)
				}
			}
		}

		// One more hop must still leave room for an end
		if f.MaxHops > 0 && cur.depth+2 > f.MaxHops {
			continue
		}
		for j := range f.Swaps {
			if f.used.Contains(j) || visited.Contains(j) {
				continue
			}
			if f.continues(cur.swap, j) {
				visited.Add(j)
				nodes = append(nodes, routeNode{swap: j, parent: head, depth: cur.depth + 1})
			}
		}
	}
	return nil
}

func onRoute(nodes []routeNode, at, swap int) bool {
	for i := at; i >= 0; i = nodes[i].parent {
		if nodes[i].swap == swap {
			return true
		}
	}
	return false
}

func unwindRoute(nodes []routeNode, at, end int) []int {
	route := make([]int, nodes[at].depth+1)
	route[len(route)-1] = end
	for i, pos := at, len(route)-2; i >= 0; i, pos = nodes[i].parent, pos-1 {
		route[pos] = nodes[i].swap
	}
	return route
}

func (f *ArbitrageFinder) recordArbitrage(route []int) {
	swaps := make(types.Swaps, 0, len(route))
	for _, idx := range route {
		swaps = append(swaps, f.Swaps[idx])
		f.used.Add(idx)
	}
	first, last := swaps[0], swaps[len(swaps)-1]
	f.Arbitrages = append(f.Arbitrages, &types.Arbitrage{
		Swaps:       swaps,
		StartAmount: new(big.Int).Set(first.AmountIn),
		EndAmount:   new(big.Int).Set(last.AmountOut),
		ProfitAsset: first.AssetIn,
	})
}

// FindArbitrages groups swaps by transaction and runs an ArbitrageFinder on each group.
func FindArbitrages(swaps types.Swaps, opts Options) []*types.Arbitrage {
	res := make([]*types.Arbitrage, 0)
	for _, group := range groupSwapsByTx(swaps) {
		finder := &ArbitrageFinder{
			Swaps:           group,
			AmountThreshold: opts.AmountThreshold,
			MaxHops:         opts.MaxHops,
		}
		finder.Find()
		res = append(res, finder.Arbitrages...)
	}
	return res
}

// groupSwapsByTx keeps the first-seen order of transactions and of swaps within each.
func groupSwapsByTx(swaps types.Swaps) []types.Swaps {
	index := make(map[common.Hash]int)
	groups := make([]types.Swaps, 0)
	for _, s := range swaps {
		if s == nil {
			continue
		}
		i, ok := index[s.Transaction.Hash]
		if !ok {
			i = len(groups)
			index[s.Transaction.Hash] = i
			groups = append(groups, make(types.Swaps, 0))
		}
		groups[i] = append(groups[i], s)
	}
	return groups
}
