package utils

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
)

// Function selectors
var (
	SelectorErc20Transfer            = common.FromHex("0xa9059cbb") // transfer(address,uint256)
	SelectorSafeTransferFrom         = common.FromHex("0x42842e0e") // safeTransferFrom(address,address,uint256)
	SelectorSafeTransferFromWithData = common.FromHex("0xb88d4fde") // safeTransferFrom(address,address,uint256,bytes)
	SelectorDecimals                 = common.FromHex("0x313ce567") // decimals()
	SelectorSupportsInterface        = common.FromHex("0x01ffc9a7") // supportsInterface(bytes4)
)

// InterfaceIdErc721 is the ERC-165 identifier of ERC-721.
var InterfaceIdErc721 = common.FromHex("0x80ac58cd")

// HasSelector reports whether calldata starts with the given 4-byte selector.
func HasSelector(input, selector []byte) bool {
	return len(input) >= 4 && bytes.Equal(input[:4], selector)
}
