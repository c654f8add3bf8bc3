package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol tags the classifier that produced a record. Detectors never branch on
// it, except to find the pool address of vault-style AMMs.
type Protocol string

const (
	ProtocolUniswapV2   Protocol = "uniswapV2"
	ProtocolUniswapV3   Protocol = "uniswapV3"
	ProtocolSushiswap   Protocol = "sushiswap"
	ProtocolCurve       Protocol = "curve"
	ProtocolBalancerV1  Protocol = "balancerV1"
	ProtocolBalancerV2  Protocol = "balancerV2"
	ProtocolBancorV2    Protocol = "bancorV2"
	ProtocolZeroExV4    Protocol = "zeroExV4"
	ProtocolAaveV2      Protocol = "aaveV2"
	ProtocolAaveV3      Protocol = "aaveV3"
	ProtocolCompoundV2  Protocol = "compoundV2"
	ProtocolOpensea     Protocol = "opensea"
	ProtocolLooksRare   Protocol = "looksRare"
	ProtocolX2y2        Protocol = "x2y2"
	ProtocolRarible     Protocol = "rarible"
	ProtocolCryptoPunks Protocol = "cryptoPunks"
)

// Metadata keys set by classifiers
const (
	MetaTick      = "tick"
	MetaTickLower = "tickLower"
	MetaTickUpper = "tickUpper"
	MetaPoolId    = "poolId"
)

type Contract struct {
	Address  common.Address `json:"address"`
	Protocol Protocol       `json:"protocol"`
}

type BlockRef struct {
	Hash   common.Hash `json:"hash"`
	Number uint64      `json:"number"`
}

// TxRef identifies the transaction an event was emitted in. From is optional, it
// is only needed to attribute NFT arbitrage to a sender.
type TxRef struct {
	Hash    common.Hash    `json:"hash"`
	Index   uint           `json:"index"`
	From    common.Address `json:"from"`
	GasUsed uint64         `json:"gasUsed"`
}

type EventRef struct {
	Address  common.Address `json:"address"`
	LogIndex uint           `json:"logIndex"`
}

// Metadata carries protocol specific context as an open key-value map.
type Metadata map[string]any

// Int reads an integer value. Classifiers emit ticks as JSON numbers or strings.
func (m Metadata) Int(key string) (*big.Int, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	switch n := v.(type) {
	case int:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	case float64:
		if n != float64(int64(n)) {
			return nil, false
		}
		return big.NewInt(int64(n)), true
	case json.Number:
		out, ok := new(big.Int).SetString(n.String(), 10)
		return out, ok
	case string:
		out, ok := new(big.Int).SetString(n, 0)
		return out, ok
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	default:
		return nil, false
	}
}

// Hash reads a 32-byte hex value such as a vault pool id.
func (m Metadata) Hash(key string) (common.Hash, bool) {
	if m == nil {
		return common.Hash{}, false
	}
	switch v := m[key].(type) {
	case string:
		b := common.FromHex(v)
		if len(b) != common.HashLength {
			return common.Hash{}, false
		}
		return common.BytesToHash(b), true
	case common.Hash:
		return v, true
	default:
		return common.Hash{}, false
	}
}

// before orders two events by transaction index, then log index.
func before(a, b TxRef, la, lb EventRef) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	return la.LogIndex < lb.LogIndex
}
