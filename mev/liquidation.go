package mev

import (
	MapSet "github.com/deckarep/golang-set/v2"

	"mevwatcher/types"
)

// FindLiquidations pairs each repayment with the first unused seizure from the
// same transaction and lending pool, on the same borrower, by the same account.
func FindLiquidations(repayments []*types.Repayment, seizures []*types.Seizure) []*types.Liquidation {
	res := make([]*types.Liquidation, 0)
	used := MapSet.NewThreadUnsafeSet[int]()

	for _, r := range repayments {
		if r == nil {
			continue
		}
		for i, s := range seizures {
			if s == nil || used.Contains(i) {
				continue
			}
			if s.Transaction.Hash != r.Transaction.Hash ||
				s.Contract.Address != r.Contract.Address ||
				s.Borrower != r.Borrower ||
				s.Seizor != r.Payer {
				continue
			}
			used.Add(i)
			res = append(res, &types.Liquidation{Repayment: r, Seizure: s})
			break
		}
	}
	return res
}
