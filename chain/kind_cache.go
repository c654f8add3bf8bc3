package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/types"
)

// KindCache remembers the resolved asset kind of each contract for the life of
// the process. Contracts never change kind, so concurrent puts of the same
// address are interchangeable.
type KindCache struct {
	mu    sync.RWMutex
	kinds map[common.Address]types.AssetType
}

func NewKindCache() *KindCache {
	return &KindCache{kinds: make(map[common.Address]types.AssetType)}
}

func (c *KindCache) Put(addr common.Address, kind types.AssetType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds[addr] = kind
}

// Lookup splits addrs into cached kinds and addresses still to resolve.
func (c *KindCache) Lookup(addrs []common.Address) (map[common.Address]types.AssetType, []common.Address) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found := make(map[common.Address]types.AssetType, len(addrs))
	missing := make([]common.Address, 0)
	for _, a := range addrs {
		if k, ok := c.kinds[a]; ok {
			found[a] = k
			continue
		}
		missing = append(missing, a)
	}
	return found, missing
}

func (c *KindCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.kinds)
}

func (c *KindCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.kinds = make(map[common.Address]types.AssetType)
}
