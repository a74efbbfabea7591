// Package balance replays a contract's recorded transfer log into live
// per-wallet token balances. Every function here is pure: given the same
// events, they always return the same result regardless of event order,
// since the underlying operation (addition) is commutative.
package balance

import (
	"math"
	"math/big"

	"github.com/afterlife-xyz/afterlife/service/persist"
)

// BalancesFor replays every event in events that touches wallet and returns
// its resulting per-token balance, with zero and negative balances dropped.
func BalancesFor(events []persist.Event, wallet persist.EthereumAddress) map[persist.TokenID]uint64 {
	wallet = persist.Address(string(wallet))
	running := map[persist.TokenID]*big.Int{}

	for _, ev := range events {
		if ev.To != wallet && ev.From != wallet {
			continue
		}
		for i, id := range ev.IDs {
			value := ev.Values[i].BigInt()
			bal, ok := running[id]
			if !ok {
				bal = big.NewInt(0)
				running[id] = bal
			}
			if ev.To == wallet {
				bal.Add(bal, value)
			}
			if ev.From == wallet {
				bal.Sub(bal, value)
			}
		}
	}

	return toPositiveUint64Map(running)
}

// ExistingTokens counts mints minus burns per token id across events (which
// must already be scoped to one contract) and returns the ids with a
// positive net count, sorted ascending. Transfers between two non-sentinel
// addresses don't move this count.
func ExistingTokens(events []persist.Event) []persist.TokenID {
	counts := map[persist.TokenID]*big.Int{}

	for _, ev := range events {
		var multiplier int64
		switch {
		case ev.From == persist.ZeroAddress:
			multiplier = 1
		case ev.To == persist.ZeroAddress || ev.To == persist.DeadAddress:
			multiplier = -1
		default:
			continue
		}

		for i, id := range ev.IDs {
			value := new(big.Int).Mul(ev.Values[i].BigInt(), big.NewInt(multiplier))
			count, ok := counts[id]
			if !ok {
				count = big.NewInt(0)
				counts[id] = count
			}
			count.Add(count, value)
		}
	}

	var ids []persist.TokenID
	for id, count := range counts {
		if count.Sign() > 0 {
			ids = append(ids, id)
		}
	}
	sortTokenIDsNumerically(ids)
	return ids
}

// OwnersOf replays a contract's events restricted to one token id and
// returns every address left with a positive balance, excluding the
// zero and dead sentinel addresses.
func OwnersOf(events []persist.Event, tokenID persist.TokenID) []persist.EthereumAddress {
	running := map[persist.EthereumAddress]*big.Int{}

	for _, ev := range events {
		for i, id := range ev.IDs {
			if id != tokenID {
				continue
			}
			value := ev.Values[i].BigInt()
			if ev.To != "" {
				bal, ok := running[ev.To]
				if !ok {
					bal = big.NewInt(0)
					running[ev.To] = bal
				}
				bal.Add(bal, value)
			}
			if ev.From != "" {
				bal, ok := running[ev.From]
				if !ok {
					bal = big.NewInt(0)
					running[ev.From] = bal
				}
				bal.Sub(bal, value)
			}
		}
	}

	var owners []persist.EthereumAddress
	for addr, bal := range running {
		if addr.IsZeroOrDead() {
			continue
		}
		if bal.Sign() > 0 {
			owners = append(owners, addr)
		}
	}
	return owners
}

// CollectionBalances is {contract -> {token_id -> balance}}.
type CollectionBalances map[persist.EthereumAddress]map[persist.TokenID]uint64

// ChainCollections is {chain -> CollectionBalances}.
type ChainCollections map[persist.ChainID]CollectionBalances

// ContractEvent pairs an event with its contract's address, since
// FullCollection groups by contract rather than by the internal contract
// id events are stamped with.
type ContractEvent struct {
	Address persist.EthereumAddress
	Event   persist.Event
}

// FullCollection replays every event touching wallet across every chain and
// contract, grouped and pruned to only non-zero, non-empty entries.
func FullCollection(events []ContractEvent, wallet persist.EthereumAddress) ChainCollections {
	wallet = persist.Address(string(wallet))
	running := map[persist.ChainID]map[persist.EthereumAddress]map[persist.TokenID]*big.Int{}

	for _, ce := range events {
		ev := ce.Event
		if ev.To != wallet && ev.From != wallet {
			continue
		}

		byContract, ok := running[ev.ChainID]
		if !ok {
			byContract = map[persist.EthereumAddress]map[persist.TokenID]*big.Int{}
			running[ev.ChainID] = byContract
		}
		byToken, ok := byContract[ce.Address]
		if !ok {
			byToken = map[persist.TokenID]*big.Int{}
			byContract[ce.Address] = byToken
		}

		for i, id := range ev.IDs {
			value := ev.Values[i].BigInt()
			bal, ok := byToken[id]
			if !ok {
				bal = big.NewInt(0)
				byToken[id] = bal
			}
			if ev.To == wallet {
				bal.Add(bal, value)
			}
			if ev.From == wallet {
				bal.Sub(bal, value)
			}
		}
	}

	out := ChainCollections{}
	for chainID, byContract := range running {
		collections := CollectionBalances{}
		for contract, byToken := range byContract {
			balances := toPositiveUint64Map(byToken)
			if len(balances) > 0 {
				collections[contract] = balances
			}
		}
		if len(collections) > 0 {
			out[chainID] = collections
		}
	}
	return out
}

// AllUsersCollections computes FullCollection for every distinct address
// that appears as a from or to in events, excluding the zero and dead
// addresses.
func AllUsersCollections(events []ContractEvent) map[persist.EthereumAddress]ChainCollections {
	wallets := map[persist.EthereumAddress]bool{}
	for _, ce := range events {
		for _, addr := range []persist.EthereumAddress{ce.Event.From, ce.Event.To} {
			if addr.IsZeroOrDead() || addr == "" {
				continue
			}
			wallets[addr] = true
		}
	}

	out := make(map[persist.EthereumAddress]ChainCollections, len(wallets))
	for wallet := range wallets {
		collection := FullCollection(events, wallet)
		if len(collection) > 0 {
			out[wallet] = collection
		}
	}
	return out
}

func toPositiveUint64Map(running map[persist.TokenID]*big.Int) map[persist.TokenID]uint64 {
	out := make(map[persist.TokenID]uint64, len(running))
	for id, bal := range running {
		if bal.Sign() <= 0 {
			continue
		}
		out[id] = saturatingUint64(bal)
	}
	return out
}

var maxUint64 = new(big.Int).SetUint64(math.MaxUint64)

func saturatingUint64(v *big.Int) uint64 {
	if v.Cmp(maxUint64) > 0 {
		return math.MaxUint64
	}
	return v.Uint64()
}

func sortTokenIDsNumerically(ids []persist.TokenID) {
	// insertion sort is fine here: token counts per contract are modest and
	// this keeps the comparator free of allocation-heavy sort.Slice closures
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && lessTokenID(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func lessTokenID(a, b persist.TokenID) bool {
	ai, bi := a.BigInt(), b.BigInt()
	if ai == nil || bi == nil {
		return a < b
	}
	return ai.Cmp(bi) < 0
}
