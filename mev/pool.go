package mev

import (
	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/types"
)

// poolAddress returns the pool an event traded against. Vault-style AMMs emit
// every event from the vault and identify the pool by a 32-byte pool id whose
// leading 20 bytes are the pool address.
func poolAddress(contract types.Contract, meta types.Metadata) common.Address {
	if id, ok := meta.Hash(types.MetaPoolId); ok {
		return common.BytesToAddress(id[:common.AddressLength])
	}
	return contract.Address
}

// SwapPool returns the pool a swap traded against.
func SwapPool(s *types.Swap) common.Address {
	return poolAddress(s.Contract, s.Metadata)
}

func DepositPool(d *types.LiquidityDeposit) common.Address {
	return poolAddress(d.Contract, d.Metadata)
}

func withdrawalPool(w *types.LiquidityWithdrawal) common.Address {
	return poolAddress(w.Contract, w.Metadata)
}
