package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrEmptyInput = errors.New("no classified blocks in input")

// Block holds the classified events of one block, as produced by the external
// classifier.
type Block struct {
	Number      uint64                 `json:"number"`
	Hash        common.Hash            `json:"hash"`
	Swaps       Swaps                  `json:"swaps"`
	Deposits    []*LiquidityDeposit    `json:"deposits"`
	Withdrawals []*LiquidityWithdrawal `json:"withdrawals"`
	Repayments  []*Repayment           `json:"repayments"`
	Seizures    []*Seizure             `json:"seizures"`
	NftSwaps    []*NftSwap             `json:"nftSwaps"`
}

type Blocks []*Block

// ParseBlocks decodes a single block object or an array of blocks.
func ParseBlocks(data []byte) (Blocks, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	var blocks Blocks
	if data[0] == '[' {
		if err := json.Unmarshal(data, &blocks); err != nil {
			return nil, fmt.Errorf("failed to decode block array: %w", err)
		}
	} else {
		var b Block
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("failed to decode block: %w", err)
		}
		blocks = Blocks{&b}
	}

	res := make(Blocks, 0, len(blocks))
	for _, b := range blocks {
		if b != nil {
			res = append(res, b)
		}
	}
	if len(res) == 0 {
		return nil, ErrEmptyInput
	}
	return res, nil
}

// Report unions the detector outputs of one block.
type Report struct {
	BlockNumber    uint64           `json:"blockNumber"`
	BlockHash      common.Hash      `json:"blockHash"`
	Arbitrages     []*Arbitrage     `json:"arbitrages"`
	Sandwiches     []*Sandwich      `json:"sandwiches"`
	JitSandwiches  []*JitSandwich   `json:"jitSandwiches"`
	Liquidations   []*Liquidation   `json:"liquidations"`
	NftArbitrages  []*NftArbitrage  `json:"nftArbitrages"`
	PureArbitrages []*PureArbitrage `json:"pureArbitrages"`
}

func (r *Report) Count() int {
	return len(r.Arbitrages) + len(r.Sandwiches) + len(r.JitSandwiches) +
		len(r.Liquidations) + len(r.NftArbitrages) + len(r.PureArbitrages)
}
