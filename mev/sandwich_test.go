package mev

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mevwatcher/types"
)

func assertSandwichOrdering(t *testing.T, sandwiches []*types.Sandwich) {
	t.Helper()
	for _, s := range sandwiches {
		require.NotEmpty(t, s.Sandwiched)
		assert.NotEqual(t, s.FrontSwap.Transaction.Hash, s.BackSwap.Transaction.Hash)
		for _, v := range s.Sandwiched {
			assert.Less(t, s.FrontSwap.Transaction.Index, v.Transaction().Index)
			assert.Less(t, v.Transaction().Index, s.BackSwap.Transaction.Index)
		}
	}
}

func TestFindSandwiches_Classic(t *testing.T) {
	front := newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000)
	middle := newSwap(2, 0, poolP, victim, tokenW, 50, tokenX, 400)
	back := newSwap(3, 0, poolP, searcher, tokenX, 1000, tokenW, 120)

	res := FindSandwiches(types.Swaps{front, middle, back}, nil)

	require.Len(t, res, 1)
	s := res[0]
	assert.Equal(t, searcher, s.Sandwicher)
	assert.Equal(t, front, s.FrontSwap)
	assert.Equal(t, back, s.BackSwap)
	require.Len(t, s.Sandwiched, 1)
	assert.Equal(t, middle, s.Sandwiched[0].Swap)
	assert.Equal(t, types.Erc20(tokenW), s.Profit.Asset)
	assert.Equal(t, int64(20), s.Profit.Amount.Int64())
	assert.True(t, s.Consecutive)
	assertSandwichOrdering(t, res)
}

func TestFindSandwiches_UnprofitableIsReported(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolP, victim, tokenW, 50, tokenX, 400),
		newSwap(3, 0, poolP, searcher, tokenX, 1000, tokenW, 90),
	}, nil)

	require.Len(t, res, 1)
	assert.Equal(t, int64(-10), res[0].Profit.Amount.Int64())
}

func TestFindSandwiches_NoVictim(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolP, searcher, tokenX, 1000, tokenW, 120),
	}, nil)
	assert.Empty(t, res)
}

func TestFindSandwiches_SameTransactionLegs(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(1, 1, poolP, searcher, tokenX, 1000, tokenW, 120),
		newSwap(2, 0, poolP, victim, tokenW, 50, tokenX, 400),
	}, nil)
	assert.Empty(t, res)
}

func TestFindSandwiches_VictimMustBeAnotherAccount(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolP, searcher, tokenW, 50, tokenX, 400),
		newSwap(3, 0, poolP, searcher, tokenX, 1000, tokenW, 120),
	}, nil)
	assert.Empty(t, res)
}

func TestFindSandwiches_VictimMustTradeSameDirection(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolP, victim, tokenX, 400, tokenW, 50),
		newSwap(3, 0, poolP, searcher, tokenX, 1000, tokenW, 120),
	}, nil)
	assert.Empty(t, res)
}

func TestFindSandwiches_UnrelatedPool(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolQ, victim, tokenW, 50, tokenX, 400),
		newSwap(3, 0, poolP, searcher, tokenX, 1000, tokenW, 120),
	}, nil)
	assert.Empty(t, res)
}

func TestFindSandwiches_BackRunByAnotherAccount(t *testing.T) {
	res := FindSandwiches(types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolP, victim, tokenW, 50, tokenX, 400),
		newSwap(3, 0, poolP, other, tokenX, 1000, tokenW, 120),
	}, nil)
	assert.Empty(t, res)
}

func TestFindSandwiches_MultipleInOneBlock(t *testing.T) {
	swaps := types.Swaps{
		newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000),
		newSwap(2, 0, poolP, victim, tokenW, 50, tokenX, 400),
		newSwap(3, 0, poolP, searcher, tokenX, 1000, tokenW, 120),
		newSwap(4, 0, poolP, other, tokenW, 200, tokenX, 1800),
		newSwap(5, 0, poolP, victim, tokenW, 60, tokenX, 450),
		newSwap(6, 0, poolP, other, tokenX, 1800, tokenW, 230),
		// An independent sandwich on another pool, interleaved
		newSwap(2, 1, poolQ, other, tokenY, 10, tokenW, 5),
		newSwap(3, 1, poolQ, victim, tokenY, 10, tokenW, 4),
		newSwap(4, 1, poolQ, other, tokenW, 5, tokenY, 11),
	}

	res := FindSandwiches(swaps, nil)

	require.Len(t, res, 3)
	assertSandwichOrdering(t, res)

	used := make(map[*types.Swap]int)
	for _, s := range res {
		used[s.FrontSwap]++
		used[s.BackSwap]++
		for _, v := range s.Sandwiched {
			used[v.Swap]++
		}
	}
	for s, n := range used {
		assert.Equal(t, 1, n, "swap at tx %d attributed %d times", s.Transaction.Index, n)
	}
}

func TestFindSandwiches_DepositVictim(t *testing.T) {
	front := newSwap(1, 0, poolP, searcher, tokenW, 100, tokenX, 1000)
	middle := newSwap(3, 0, poolP, victim, tokenW, 50, tokenX, 400)
	back := newSwap(5, 0, poolP, searcher, tokenX, 1000, tokenW, 120)
	deposit := newDeposit(2, poolP, other, []common.Address{tokenW, tokenX}, 10, 100)

	res := FindSandwiches(types.Swaps{front, middle, back}, []*types.LiquidityDeposit{deposit})

	require.Len(t, res, 1)
	require.Len(t, res[0].Sandwiched, 2)
	assert.Equal(t, deposit, res[0].Sandwiched[0].Deposit)
	assert.Equal(t, middle, res[0].Sandwiched[1].Swap)
	assert.False(t, res[0].Consecutive)
	assertSandwichOrdering(t, res)
}
