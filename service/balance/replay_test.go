package balance

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterlife-xyz/afterlife/service/persist"
)

const (
	wallet1 = persist.EthereumAddress("0x1111111111111111111111111111111111111111")
	wallet2 = persist.EthereumAddress("0x2222222222222222222222222222222222222222")
)

func amount(v int64) persist.Amount {
	return persist.AmountFromBigInt(big.NewInt(v))
}

func mintEvent(to persist.EthereumAddress, id string, value int64) persist.Event {
	return persist.Event{
		ChainID: 1,
		From:    persist.ZeroAddress,
		To:      to,
		IDs:     []persist.TokenID{persist.TokenID(id)},
		Values:  []persist.Amount{amount(value)},
	}
}

func transferEvent(from, to persist.EthereumAddress, id string, value int64) persist.Event {
	return persist.Event{
		ChainID: 1,
		From:    from,
		To:      to,
		IDs:     []persist.TokenID{persist.TokenID(id)},
		Values:  []persist.Amount{amount(value)},
	}
}

func burnEvent(from persist.EthereumAddress, id string, value int64) persist.Event {
	return persist.Event{
		ChainID: 1,
		From:    from,
		To:      persist.ZeroAddress,
		IDs:     []persist.TokenID{persist.TokenID(id)},
		Values:  []persist.Amount{amount(value)},
	}
}

func TestBalancesFor(t *testing.T) {
	assert := assert.New(t)

	events := []persist.Event{
		mintEvent(wallet1, "1", 5),
		transferEvent(wallet1, wallet2, "1", 3),
		mintEvent(wallet1, "2", 1),
		burnEvent(wallet1, "2", 1),
	}

	bal1 := BalancesFor(events, wallet1)
	assert.Equal(map[persist.TokenID]uint64{"1": 2}, bal1)

	bal2 := BalancesFor(events, wallet2)
	assert.Equal(map[persist.TokenID]uint64{"1": 3}, bal2)
}

func TestBalancesForNormalizesWalletCase(t *testing.T) {
	assert := assert.New(t)

	checksummedWallet := persist.EthereumAddress("0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa")
	lowerWallet := persist.Address(string(checksummedWallet))
	events := []persist.Event{mintEvent(lowerWallet, "1", 5)}

	bal := BalancesFor(events, checksummedWallet)
	assert.Equal(uint64(5), bal["1"])
}

func TestExistingTokens(t *testing.T) {
	assert := assert.New(t)

	events := []persist.Event{
		mintEvent(wallet1, "3", 1),
		mintEvent(wallet1, "1", 1),
		mintEvent(wallet1, "2", 1),
		burnEvent(wallet1, "2", 1),
	}

	ids := ExistingTokens(events)
	assert.Equal([]persist.TokenID{"1", "3"}, ids)
}

func TestExistingTokensIgnoresPlainTransfers(t *testing.T) {
	assert := assert.New(t)

	events := []persist.Event{
		mintEvent(wallet1, "1", 1),
		transferEvent(wallet1, wallet2, "1", 1),
	}

	ids := ExistingTokens(events)
	assert.Equal([]persist.TokenID{"1"}, ids)
}

func TestOwnersOf(t *testing.T) {
	assert := assert.New(t)

	events := []persist.Event{
		mintEvent(wallet1, "1", 1),
		mintEvent(wallet2, "1", 1),
		transferEvent(wallet2, wallet1, "1", 1),
	}

	owners := OwnersOf(events, "1")
	assert.ElementsMatch([]persist.EthereumAddress{wallet1}, owners)
}

func TestOwnersOfExcludesDeadAndZero(t *testing.T) {
	assert := assert.New(t)

	events := []persist.Event{
		mintEvent(wallet1, "1", 1),
		transferEvent(wallet1, persist.DeadAddress, "1", 1),
	}

	owners := OwnersOf(events, "1")
	assert.Empty(owners)
}

func TestFullCollectionGroupsByChainAndContract(t *testing.T) {
	assert := assert.New(t)

	contractA := persist.EthereumAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	contractB := persist.EthereumAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	events := []ContractEvent{
		{Address: contractA, Event: mintEvent(wallet1, "1", 2)},
		{Address: contractB, Event: mintEvent(wallet1, "9", 1)},
		{Address: contractA, Event: transferEvent(wallet1, wallet2, "1", 1)},
	}

	collections := FullCollection(events, wallet1)
	assert.Equal(uint64(1), collections[1][contractA]["1"])
	assert.Equal(uint64(1), collections[1][contractB]["9"])

	wallet2Collections := FullCollection(events, wallet2)
	assert.Equal(uint64(1), wallet2Collections[1][contractA]["1"])
}

func TestFullCollectionPrunesEmptyEntries(t *testing.T) {
	assert := assert.New(t)

	contractA := persist.EthereumAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	events := []ContractEvent{
		{Address: contractA, Event: mintEvent(wallet1, "1", 1)},
		{Address: contractA, Event: burnEvent(wallet1, "1", 1)},
	}

	collections := FullCollection(events, wallet1)
	assert.Empty(collections)
}

func TestAllUsersCollectionsExcludesSentinelAddresses(t *testing.T) {
	assert := assert.New(t)

	contractA := persist.EthereumAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	events := []ContractEvent{
		{Address: contractA, Event: mintEvent(wallet1, "1", 1)},
		{Address: contractA, Event: transferEvent(wallet1, wallet2, "1", 1)},
	}

	all := AllUsersCollections(events)
	_, zeroPresent := all[persist.ZeroAddress]
	assert.False(zeroPresent)
	assert.Contains(all, wallet2)
	// wallet1 minted then transferred away its only token, netting to zero
	// balance, so its now-empty collection is pruned rather than listed.
	_, wallet1Present := all[wallet1]
	assert.False(wallet1Present)
}

func TestSaturatingUint64(t *testing.T) {
	assert := assert.New(t)

	huge := new(big.Int).Lsh(big.NewInt(1), 128)
	events := []persist.Event{
		{ChainID: 1, From: persist.ZeroAddress, To: wallet1,
			IDs: []persist.TokenID{"1"}, Values: []persist.Amount{persist.AmountFromBigInt(huge)}},
	}

	bal := BalancesFor(events, wallet1)
	assert.Equal(uint64(18446744073709551615), bal["1"])
}
