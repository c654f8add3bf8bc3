package mev

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mevwatcher/types"
)

// Ledger accumulates signed per-account, per-asset balance deltas. Accounts and
// assets are reported in first-touch order.
type Ledger struct {
	accounts map[common.Address]*accountDeltas
	order    []common.Address
}

type accountDeltas struct {
	deltas map[types.AssetKey]*big.Int
	order  []types.AssetKey
	spent  bool // appeared as the sender of any movement
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[common.Address]*accountDeltas)}
}

func (l *Ledger) account(addr common.Address) *accountDeltas {
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &accountDeltas{deltas: make(map[types.AssetKey]*big.Int)}
		l.accounts[addr] = acc
		l.order = append(l.order, addr)
	}
	return acc
}

func (a *accountDeltas) add(key types.AssetKey, amount *big.Int, negate bool) {
	d, ok := a.deltas[key]
	if !ok {
		d = new(big.Int)
		a.deltas[key] = d
		a.order = append(a.order, key)
	}
	if amount == nil {
		return
	}
	if negate {
		d.Sub(d, amount)
	} else {
		d.Add(d, amount)
	}
}

func (l *Ledger) Credit(addr common.Address, asset types.Asset, amount *big.Int) {
	l.account(addr).add(asset.Key(), amount, false)
}

func (l *Ledger) Debit(addr common.Address, asset types.Asset, amount *big.Int) {
	acc := l.account(addr)
	acc.spent = true
	acc.add(asset.Key(), amount, true)
}

// Move debits from and credits to.
func (l *Ledger) Move(from, to common.Address, asset types.Asset, amount *big.Int) {
	l.Debit(from, asset, amount)
	l.Credit(to, asset, amount)
}

func (l *Ledger) Apply(t types.Transfer) {
	l.Move(t.From, t.To, t.Asset, t.Amount)
}

// Balance returns a copy of the account delta for asset, zero when untouched.
func (l *Ledger) Balance(addr common.Address, asset types.Asset) *big.Int {
	acc, ok := l.accounts[addr]
	if !ok {
		return new(big.Int)
	}
	d, ok := acc.deltas[asset.Key()]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(d)
}

// Deltas returns every asset delta of the account, zero entries included.
func (l *Ledger) Deltas(addr common.Address) []types.AssetAmount {
	acc, ok := l.accounts[addr]
	if !ok {
		return nil
	}
	res := make([]types.AssetAmount, 0, len(acc.order))
	for _, key := range acc.order {
		res = append(res, types.AssetAmount{Asset: key.Asset(), Amount: new(big.Int).Set(acc.deltas[key])})
	}
	return res
}

func (l *Ledger) Accounts() []common.Address {
	res := make([]common.Address, len(l.order))
	copy(res, l.order)
	return res
}

func (l *Ledger) Touched(addr common.Address) bool {
	_, ok := l.accounts[addr]
	return ok
}

// Spent reports whether the account sent anything.
func (l *Ledger) Spent(addr common.Address) bool {
	acc, ok := l.accounts[addr]
	return ok && acc.spent
}

// NonNegative reports whether no delta of the account is below zero.
func (l *Ledger) NonNegative(addr common.Address) bool {
	acc, ok := l.accounts[addr]
	if !ok {
		return true
	}
	for _, d := range acc.deltas {
		if d.Sign() < 0 {
			return false
		}
	}
	return true
}
