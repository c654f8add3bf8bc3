package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// Transfer moves Amount of Asset from one account to another. ERC-721 transfers
// always carry an amount of one.
type Transfer struct {
	Asset  Asset          `json:"asset"`
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *big.Int       `json:"amount"`
}

// TxInput is one executed transaction as seen by the balance-delta detector:
// the top level call, its receipt, and every successful value-carrying call frame.
type TxInput struct {
	Hash        common.Hash
	BlockNumber uint64
	Index       uint
	From        common.Address
	To          *common.Address // nil for contract deployments
	Value       *big.Int
	Input       []byte
	Receipt     *ethtypes.Receipt
	EthCalls    []Transfer // AssetEth transfers, including the top level value
}
