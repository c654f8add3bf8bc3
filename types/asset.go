package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetType is the token standard of an asset. It doubles as the resolved kind
// of a log-emitting contract.
type AssetType string

const (
	AssetUnknown AssetType = ""
	AssetEth     AssetType = "eth"
	AssetErc20   AssetType = "erc20"
	AssetErc721  AssetType = "erc721"
	AssetErc1155 AssetType = "erc1155"
)

// Asset is a fungible token (Address), or one token of a collection (Address+ID).
// Native ETH is AssetEth with the zero address.
type Asset struct {
	Type    AssetType      `json:"type"`
	Address common.Address `json:"address"`
	ID      *big.Int       `json:"id,omitempty"`
}

func Eth() Asset {
	return Asset{Type: AssetEth}
}

func Erc20(addr common.Address) Asset {
	return Asset{Type: AssetErc20, Address: addr}
}

func Erc721(collection common.Address, id *big.Int) Asset {
	return Asset{Type: AssetErc721, Address: collection, ID: id}
}

func Erc1155(collection common.Address, id *big.Int) Asset {
	return Asset{Type: AssetErc1155, Address: collection, ID: id}
}

// UnmarshalJSON accepts the classifier shape, where non-fungible assets name
// their contract "collection".
func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       AssetType       `json:"type"`
		Address    *common.Address `json:"address"`
		Collection *common.Address `json:"collection"`
		ID         *big.Int        `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Type = raw.Type
	a.ID = raw.ID
	switch {
	case raw.Address != nil:
		a.Address = *raw.Address
	case raw.Collection != nil:
		a.Address = *raw.Collection
	default:
		a.Address = common.Address{}
	}
	return nil
}

// Fungible reports whether amounts of the asset are interchangeable.
func (a Asset) Fungible() bool {
	return a.Type == AssetEth || a.Type == AssetErc20
}

// Key returns a comparable identity for map keys.
func (a Asset) Key() AssetKey {
	k := AssetKey{Type: a.Type, Address: a.Address}
	if a.ID != nil {
		k.ID = a.ID.String()
	}
	return k
}

func (a Asset) String() string {
	if a.ID != nil {
		return fmt.Sprintf("%s:%s:%s", a.Type, a.Address.Hex(), a.ID.String())
	}
	if a.Type == AssetEth {
		return string(AssetEth)
	}
	return fmt.Sprintf("%s:%s", a.Type, a.Address.Hex())
}

// AssetKey is the comparable form of Asset.
type AssetKey struct {
	Type    AssetType
	Address common.Address
	ID      string
}

func (k AssetKey) Asset() Asset {
	a := Asset{Type: k.Type, Address: k.Address}
	if k.ID != "" {
		a.ID, _ = new(big.Int).SetString(k.ID, 10)
	}
	return a
}

// AssetAmount is a signed quantity of an asset.
type AssetAmount struct {
	Asset  Asset    `json:"asset"`
	Amount *big.Int `json:"amount"`
}

// NftSwap is a trade on an NFT marketplace. Each side is either fungible or a
// single collection token.
type NftSwap struct {
	Contract    Contract       `json:"contract"`
	Block       BlockRef       `json:"block"`
	Transaction TxRef          `json:"transaction"`
	Event       EventRef       `json:"event"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	AssetIn     Asset          `json:"assetIn"`
	AmountIn    *big.Int       `json:"amountIn"`
	AssetOut    Asset          `json:"assetOut"`
	AmountOut   *big.Int       `json:"amountOut"`
	Metadata    Metadata       `json:"metadata,omitempty"`
}

func (s *NftSwap) Before(o *NftSwap) bool {
	return before(s.Transaction, o.Transaction, s.Event, o.Event)
}
