package mev

import (
	"math/big"
	"sort"

	MapSet "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/types"
)

// FindNftArbitrages looks, per transaction, for a buy of one collection token
// and a later sale of that token by the buyer for the same fungible asset it
// paid with.
func FindNftArbitrages(swaps []*types.NftSwap) []*types.NftArbitrage {
	res := make([]*types.NftArbitrage, 0)
	for _, group := range groupNftSwapsByTx(swaps) {
		res = append(res, findNftArbitragesInTx(group)...)
	}
	return res
}

func findNftArbitragesInTx(swaps []*types.NftSwap) []*types.NftArbitrage {
	res := make([]*types.NftArbitrage, 0)
	used := MapSet.NewThreadUnsafeSet[int]()

	for i, buy := range swaps {
		if used.Contains(i) || !nftBuy(buy) {
			continue
		}
		token := buy.AssetOut.Key()
		for j := i + 1; j < len(swaps); j++ {
			sell := swaps[j]
			if used.Contains(j) || !nftSell(sell) {
				continue
			}
			if sell.AssetIn.Key() != token || sell.From != buy.To {
				continue
			}
			// Profit is only meaningful in one asset
			if sell.AssetOut.Key() != buy.AssetIn.Key() {
				continue
			}
			used.Add(i)
			used.Add(j)
			res = append(res, &types.NftArbitrage{
				Swaps: [2]*types.NftSwap{buy, sell},
				Profit: types.AssetAmount{
					Asset:  sell.AssetOut,
					Amount: new(big.Int).Sub(sell.AmountOut, buy.AmountIn),
				},
				Arbitrager: types.Arbitrager{
					Sender:      buy.Transaction.From,
					Beneficiary: buy.To,
				},
			})
			break
		}
	}
	return res
}

// nftBuy reports whether s pays a fungible asset for one collection token.
func nftBuy(s *types.NftSwap) bool {
	return s != nil && s.AmountIn != nil &&
		s.AssetIn.Fungible() && !s.AssetOut.Fungible() && s.AssetOut.ID != nil
}

// nftSell reports whether s gives up one collection token for a fungible asset.
func nftSell(s *types.NftSwap) bool {
	return s != nil && s.AmountOut != nil &&
		!s.AssetIn.Fungible() && s.AssetIn.ID != nil && s.AssetOut.Fungible()
}

func groupNftSwapsByTx(swaps []*types.NftSwap) [][]*types.NftSwap {
	index := make(map[common.Hash]int)
	groups := make([][]*types.NftSwap, 0)
	for _, s := range swaps {
		if s == nil {
			continue
		}
		i, ok := index[s.Transaction.Hash]
		if !ok {
			i = len(groups)
			index[s.Transaction.Hash] = i
			groups = append(groups, make([]*types.NftSwap, 0))
		}
		groups[i] = append(groups[i], s)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Before(g[j]) })
	}
	return groups
}
