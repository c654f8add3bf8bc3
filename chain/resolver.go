package chain

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/sync/errgroup"

	"mevwatcher/config"
	"mevwatcher/logger"
	"mevwatcher/metrics"
	"mevwatcher/types"
	"mevwatcher/utils"
)

// BatchCaller is the part of *rpc.Client the resolver needs.
type BatchCaller interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Resolver decides the asset kind of contracts by probing decimals() and
// supportsInterface(ERC721) with batched eth_call requests. Timeouts are
// retried forever, any other failure is returned as is.
type Resolver struct {
	caller BatchCaller
	cache  *KindCache
	store  KindStore // optional
	logger *slog.Logger
}

func NewResolver(caller BatchCaller, cache *KindCache, store KindStore) *Resolver {
	if cache == nil {
		cache = NewKindCache()
	}
	return &Resolver{caller: caller, cache: cache, store: store, logger: logger.ChainLogger}
}

func (r *Resolver) Cache() *KindCache {
	return r.cache
}

// probe is one read-only call issued to every candidate contract.
type probe struct {
	name      string
	data      []byte
	batchSize int
	accept    func(ret []byte) bool
}

var (
	decimalsProbe = probe{
		name:      "decimals",
		data:      utils.SelectorDecimals,
		batchSize: config.DECIMALS_BATCH_SIZE,
		accept: func(ret []byte) bool {
			return len(ret) >= 32
		},
	}
	erc721Probe = probe{
		name:      "supportsInterface",
		data:      append(append([]byte{}, utils.SelectorSupportsInterface...), common.RightPadBytes(utils.InterfaceIdErc721, 32)...),
		batchSize: config.SUPPORTS_INTERFACE_BATCH_SIZE,
		accept: func(ret []byte) bool {
			return len(ret) >= 32 && new(big.Int).SetBytes(ret[:32]).Cmp(common.Big1) == 0
		},
	}
)

func (r *Resolver) ResolveKinds(ctx context.Context, blockNumber uint64, addrs []common.Address) (map[common.Address]types.AssetType, error) {
	res, missing := r.cache.Lookup(addrs)
	if len(missing) == 0 {
		return res, nil
	}

	if r.store != nil {
		stored, err := r.store.GetKinds(ctx, missing)
		if err != nil {
			// The shared tier is an optimisation only
			r.logger.Warn("Failed to read asset kinds from store", "err", err)
		} else if len(stored) > 0 {
			remaining := make([]common.Address, 0, len(missing))
			for _, a := range missing {
				if k, ok := stored[a]; ok {
					r.cache.Put(a, k)
					res[a] = k
					continue
				}
				remaining = append(remaining, a)
			}
			missing = remaining
		}
	}
	if len(missing) == 0 {
		return res, nil
	}

	isErc20 := make([]bool, len(missing))
	isErc721 := make([]bool, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.PROBE_PARALLEL_NUM)
	for _, job := range []struct {
		p   probe
		out []bool
	}{{decimalsProbe, isErc20}, {erc721Probe, isErc721}} {
		for start := 0; start < len(missing); start += job.p.batchSize {
			end := min(start+job.p.batchSize, len(missing))
			p, out := job.p, job.out[start:end]
			chunk := missing[start:end]
			g.Go(func() error {
				return r.runProbe(gctx, p, blockNumber, chunk, out)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make(map[common.Address]types.AssetType, len(missing))
	for i, a := range missing {
		kind := types.AssetUnknown
		switch {
		case isErc20[i]:
			kind = types.AssetErc20
		case isErc721[i]:
			kind = types.AssetErc721
		}
		r.cache.Put(a, kind)
		res[a] = kind
		resolved[a] = kind
		metrics.KindsResolved.WithLabelValues(kindLabel(kind)).Inc()
	}
	if r.store != nil {
		if err := r.store.PutKinds(ctx, resolved); err != nil {
			r.logger.Warn("Failed to write asset kinds to store", "err", err)
		}
	}
	return res, nil
}

func kindLabel(k types.AssetType) string {
	if k == types.AssetUnknown {
		return "unknown"
	}
	return string(k)
}

// runProbe sends one batch and records, per address, whether the call succeeded
// with an accepted answer.
func (r *Resolver) runProbe(ctx context.Context, p probe, blockNumber uint64, addrs []common.Address, out []bool) error {
	block := hexutil.EncodeUint64(blockNumber)
	var elems []rpc.BatchElem

	op := func() error {
		elems = make([]rpc.BatchElem, len(addrs))
		for i, a := range addrs {
			elems[i] = rpc.BatchElem{
				Method: "eth_call",
				Args:   []any{map[string]any{"to": a, "data": hexutil.Bytes(p.data)}, block},
				Result: new(hexutil.Bytes),
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, config.PROBE_CALL_TIMEOUT)
		defer cancel()

		err := r.caller.BatchCallContext(callCtx, elems)
		if err == nil {
			// Per-call errors are answers (reverts), unless the node timed out
			for _, e := range elems {
				if utils.IsTimeout(e.Error) {
					err = e.Error
					break
				}
			}
		}
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if utils.IsTimeout(err) {
			metrics.ProbeRetries.WithLabelValues(p.name).Inc()
			r.logger.Warn("Probe batch timed out, retrying", "probe", p.name, "block", blockNumber, "size", len(addrs), "err", err)
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.PROBE_RETRY_INITIAL_INTERVAL
	b.MaxInterval = config.PROBE_RETRY_MAX_INTERVAL
	b.MaxElapsedTime = 0 // never give up on timeouts
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		r.logger.Error("Probe batch failed", "probe", p.name, "block", blockNumber, "size", len(addrs), "err", err)
		return err
	}

	for i, e := range elems {
		if e.Error != nil {
			continue
		}
		ret, ok := e.Result.(*hexutil.Bytes)
		out[i] = ok && ret != nil && p.accept(*ret)
	}
	return nil
}
