package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mevwatcher/types"
)

const tracedTx = `{
  "type": "CALL",
  "from": "0x2000000000000000000000000000000000000001",
  "to": "0x4000000000000000000000000000000000000001",
  "value": "0x64",
  "calls": [
    {"type": "CALL", "from": "0x4000000000000000000000000000000000000001", "to": "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640", "value": "0x0"},
    {"type": "DELEGATECALL", "from": "0x4000000000000000000000000000000000000001", "to": "0x1000000000000000000000000000000000000009", "value": "0x64"},
    {"type": "CALL", "from": "0x4000000000000000000000000000000000000001", "to": "0x1000000000000000000000000000000000000002", "value": "0xa", "error": "execution reverted",
     "calls": [{"type": "CALL", "from": "0x1000000000000000000000000000000000000002", "to": "0x1000000000000000000000000000000000000003", "value": "0x5"}]},
    {"type": "CALL", "from": "0x4000000000000000000000000000000000000001", "to": "0x1000000000000000000000000000000000000004", "value": "0x7",
     "calls": [{"type": "CALL", "from": "0x1000000000000000000000000000000000000004", "to": "0x4000000000000000000000000000000000000001", "value": "0x9"}]}
  ]
}`

func TestEthCalls(t *testing.T) {
	var frame callFrame
	require.NoError(t, json.Unmarshal([]byte(tracedTx), &frame))

	got := ethCalls(&frame, nil)

	bot := common.HexToAddress("0x4000000000000000000000000000000000000001")
	require.Len(t, got, 3)
	assert.Equal(t, types.Transfer{Asset: types.Eth(), From: common.HexToAddress("0x2000000000000000000000000000000000000001"), To: bot, Amount: big.NewInt(100)}, got[0])
	assert.Equal(t, types.Transfer{Asset: types.Eth(), From: bot, To: common.HexToAddress("0x1000000000000000000000000000000000000004"), Amount: big.NewInt(7)}, got[1])
	assert.Equal(t, types.Transfer{Asset: types.Eth(), From: common.HexToAddress("0x1000000000000000000000000000000000000004"), To: bot, Amount: big.NewInt(9)}, got[2])
}

func TestDialWithoutRPC(t *testing.T) {
	EthRpcURL = ""
	_, err := Dial(context.Background())
	assert.ErrorIs(t, err, ErrNoRPC)
}
