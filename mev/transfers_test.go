package mev

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mevwatcher/types"
)

func topicOf(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestDecodeTransfers(t *testing.T) {
	batchData, err := batchArgs.Pack(
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		[]*big.Int{big.NewInt(10), big.NewInt(20)},
	)
	require.NoError(t, err)

	logs := []*ethtypes.Log{
		erc20Log(tokenW, searcher, poolP, 100),
		// ERC-721 carries the token id as a fourth topic
		{
			Address: collection,
			Topics:  []common.Hash{TopicTransfer, topicOf(poolP), topicOf(searcher), common.BigToHash(big.NewInt(9))},
		},
		{
			Address: tokenW,
			Topics:  []common.Hash{TopicDeposit, topicOf(searcher)},
			Data:    common.LeftPadBytes(big.NewInt(5).Bytes(), 32),
		},
		{
			Address: tokenW,
			Topics:  []common.Hash{TopicWithdrawal, topicOf(searcher)},
			Data:    common.LeftPadBytes(big.NewInt(3).Bytes(), 32),
		},
		{
			Address: poolR,
			Topics:  []common.Hash{TopicTransferSingle, topicOf(searcher), topicOf(poolP), topicOf(searcher)},
			Data: append(common.LeftPadBytes(big.NewInt(4).Bytes(), 32),
				common.LeftPadBytes(big.NewInt(6).Bytes(), 32)...),
		},
		{
			Address: poolR,
			Topics:  []common.Hash{TopicTransferBatch, topicOf(searcher), topicOf(searcher), topicOf(poolQ)},
			Data:    batchData,
		},
		// Unknown emitter
		erc20Log(tokenY, searcher, poolP, 100),
	}
	kinds := map[common.Address]types.AssetType{
		tokenW:     types.AssetErc20,
		collection: types.AssetErc721,
	}

	got := DecodeTransfers(logs, kinds)

	require.Len(t, got, 7)
	assert.Equal(t, types.Transfer{Asset: types.Erc20(tokenW), From: searcher, To: poolP, Amount: big.NewInt(100)}, got[0])
	assert.Equal(t, types.Transfer{Asset: types.Erc721(collection, big.NewInt(9)), From: poolP, To: searcher, Amount: big.NewInt(1)}, got[1])
	assert.Equal(t, types.Transfer{Asset: types.Erc20(tokenW), From: common.Address{}, To: searcher, Amount: big.NewInt(5)}, got[2])
	assert.Equal(t, types.Transfer{Asset: types.Erc20(tokenW), From: searcher, To: common.Address{}, Amount: big.NewInt(3)}, got[3])
	assert.Equal(t, types.Transfer{Asset: types.Erc1155(poolR, big.NewInt(4)), From: poolP, To: searcher, Amount: big.NewInt(6)}, got[4])
	assert.Equal(t, types.Transfer{Asset: types.Erc1155(poolR, big.NewInt(1)), From: searcher, To: poolQ, Amount: big.NewInt(10)}, got[5])
	assert.Equal(t, types.Transfer{Asset: types.Erc1155(poolR, big.NewInt(2)), From: searcher, To: poolQ, Amount: big.NewInt(20)}, got[6])
}

func TestDecodeTransfers_ShapeMustMatchKind(t *testing.T) {
	// ERC-20 shaped log from an ERC-721 contract
	logs := []*ethtypes.Log{erc20Log(collection, searcher, poolP, 100)}
	assert.Empty(t, DecodeTransfers(logs, map[common.Address]types.AssetType{collection: types.AssetErc721}))

	// WETH events need an ERC-20 emitter
	deposit := &ethtypes.Log{
		Address: poolQ,
		Topics:  []common.Hash{TopicDeposit, topicOf(searcher)},
		Data:    common.LeftPadBytes(big.NewInt(5).Bytes(), 32),
	}
	assert.Empty(t, DecodeTransfers([]*ethtypes.Log{deposit}, nil))
}

func TestTransferEmitters(t *testing.T) {
	logs := []*ethtypes.Log{
		erc20Log(tokenW, searcher, poolP, 1),
		erc20Log(tokenX, searcher, poolP, 1),
		erc20Log(tokenW, poolP, searcher, 1),
		{Address: poolR, Topics: []common.Hash{TopicTransferSingle}},
		{Address: poolQ},
	}
	assert.Equal(t, []common.Address{tokenW, tokenX}, TransferEmitters(logs))
}
