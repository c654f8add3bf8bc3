package mev

import (
	"math/big"

	MapSet "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"mevwatcher/types"
)

var (
	// Transfer(address,address,uint256), shared by ERC-20 and ERC-721
	TopicTransfer = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	// TransferSingle(address,address,address,uint256,uint256)
	TopicTransferSingle = crypto.Keccak256Hash([]byte("TransferSingle(address,address,address,uint256,uint256)"))
	// TransferBatch(address,address,address,uint256[],uint256[])
	TopicTransferBatch = crypto.Keccak256Hash([]byte("TransferBatch(address,address,address,uint256[],uint256[])"))
	// WETH wrap and unwrap
	TopicDeposit    = crypto.Keccak256Hash([]byte("Deposit(address,uint256)"))
	TopicWithdrawal = crypto.Keccak256Hash([]byte("Withdrawal(address,uint256)"))
)

var batchArgs = func() abi.Arguments {
	uintArr, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: uintArr}, {Type: uintArr}}
}()

// TransferEmitters returns, in first-seen order, the addresses whose logs need a
// resolved asset kind before they can be decoded. ERC-1155 events are decoded
// by topic alone.
func TransferEmitters(logs []*ethtypes.Log) []common.Address {
	seen := MapSet.NewThreadUnsafeSet[common.Address]()
	res := make([]common.Address, 0)
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 {
			continue
		}
		switch l.Topics[0] {
		case TopicTransfer, TopicDeposit, TopicWithdrawal:
			if seen.Add(l.Address) {
				res = append(res, l.Address)
			}
		}
	}
	return res
}

// DecodeTransfers turns transfer logs into asset movements. Logs from emitters
// of unknown kind, or that do not fit the shape of their kind, are dropped.
func DecodeTransfers(logs []*ethtypes.Log, kinds map[common.Address]types.AssetType) []types.Transfer {
	res := make([]types.Transfer, 0, len(logs))
	for _, l := range logs {
		if l == nil || len(l.Topics) == 0 || l.Removed {
			continue
		}
		switch l.Topics[0] {
		case TopicTransfer:
			if t, ok := decodeTransfer(l, kinds[l.Address]); ok {
				res = append(res, t)
			}
		case TopicDeposit:
			if kinds[l.Address] != types.AssetErc20 || len(l.Topics) != 2 || len(l.Data) < 32 {
				continue
			}
			res = append(res, types.Transfer{
				Asset:  types.Erc20(l.Address),
				From:   common.Address{},
				To:     common.BytesToAddress(l.Topics[1].Bytes()),
				Amount: new(big.Int).SetBytes(l.Data[:32]),
			})
		case TopicWithdrawal:
			if kinds[l.Address] != types.AssetErc20 || len(l.Topics) != 2 || len(l.Data) < 32 {
				continue
			}
			res = append(res, types.Transfer{
				Asset:  types.Erc20(l.Address),
				From:   common.BytesToAddress(l.Topics[1].Bytes()),
				To:     common.Address{},
				Amount: new(big.Int).SetBytes(l.Data[:32]),
			})
		case TopicTransferSingle:
			if len(l.Topics) != 4 || len(l.Data) < 64 {
				continue
			}
			res = append(res, types.Transfer{
				Asset:  types.Erc1155(l.Address, new(big.Int).SetBytes(l.Data[:32])),
				From:   common.BytesToAddress(l.Topics[2].Bytes()),
				To:     common.BytesToAddress(l.Topics[3].Bytes()),
				Amount: new(big.Int).SetBytes(l.Data[32:64]),
			})
		case TopicTransferBatch:
			res = append(res, decodeTransferBatch(l)...)
		}
	}
	return res
}

func decodeTransfer(l *ethtypes.Log, kind types.AssetType) (types.Transfer, bool) {
	switch kind {
	case types.AssetErc20:
		if len(l.Topics) != 3 || len(l.Data) < 32 {
			return types.Transfer{}, false
		}
		return types.Transfer{
			Asset:  types.Erc20(l.Address),
			From:   common.BytesToAddress(l.Topics[1].Bytes()),
			To:     common.BytesToAddress(l.Topics[2].Bytes()),
			Amount: new(big.Int).SetBytes(l.Data[:32]),
		}, true
	case types.AssetErc721:
		// Token id is the third indexed argument
		if len(l.Topics) != 4 {
			return types.Transfer{}, false
		}
		return types.Transfer{
			Asset:  types.Erc721(l.Address, new(big.Int).SetBytes(l.Topics[3].Bytes())),
			From:   common.BytesToAddress(l.Topics[1].Bytes()),
			To:     common.BytesToAddress(l.Topics[2].Bytes()),
			Amount: big.NewInt(1),
		}, true
	default:
		return types.Transfer{}, false
	}
}

func decodeTransferBatch(l *ethtypes.Log) []types.Transfer {
	if len(l.Topics) != 4 {
		return nil
	}
	values, err := batchArgs.Unpack(l.Data)
	if err != nil || len(values) != 2 {
		return nil
	}
	ids, ok1 := values[0].([]*big.Int)
	amounts, ok2 := values[1].([]*big.Int)
	if !ok1 || !ok2 || len(ids) != len(amounts) {
		return nil
	}
	from := common.BytesToAddress(l.Topics[2].Bytes())
	to := common.BytesToAddress(l.Topics[3].Bytes())
	res := make([]types.Transfer, 0, len(ids))
	for i := range ids {
		res = append(res, types.Transfer{
			Asset:  types.Erc1155(l.Address, ids[i]),
			From:   from,
			To:     to,
			Amount: amounts[i],
		})
	}
	return res
}
