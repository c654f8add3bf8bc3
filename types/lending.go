package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Repayment is debt paid back on a lending pool, by Payer on behalf of Borrower.
type Repayment struct {
	Contract    Contract       `json:"contract"`
	Block       BlockRef       `json:"block"`
	Transaction TxRef          `json:"transaction"`
	Event       EventRef       `json:"event"`
	Payer       common.Address `json:"payer"`
	Borrower    common.Address `json:"borrower"`
	Asset       common.Address `json:"asset"`
	Amount      *big.Int       `json:"amount"`
}

// Seizure is collateral taken from Borrower by Seizor.
type Seizure struct {
	Contract    Contract       `json:"contract"`
	Block       BlockRef       `json:"block"`
	Transaction TxRef          `json:"transaction"`
	Event       EventRef       `json:"event"`
	Seizor      common.Address `json:"seizor"`
	Borrower    common.Address `json:"borrower"`
	Asset       common.Address `json:"asset"`
	Amount      *big.Int       `json:"amount"`
}
