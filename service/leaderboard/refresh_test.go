package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterlife-xyz/afterlife/service/balance"
	"github.com/afterlife-xyz/afterlife/service/persist"
)

func TestDisplayNameForKnownAddress(t *testing.T) {
	assert := assert.New(t)

	wallet := persist.Address("0x1111111111111111111111111111111111111111")
	index := map[persist.EthereumAddress]string{wallet: "alice.eth"}

	assert.Equal("alice.eth", displayNameFor(wallet, index))
}

func TestDisplayNameForUnknownAddressFallsBackToChecksum(t *testing.T) {
	assert := assert.New(t)

	wallet := persist.Address("0x1111111111111111111111111111111111111111")
	assert.Equal(wallet.Checksum(), displayNameFor(wallet, map[persist.EthereumAddress]string{}))
}

func TestRarityFilePath(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{
		ChainID: 1,
		Address: persist.Address("0xabcabcabcabcabcabcabcabcabcabcabcabcabc"),
	}

	got := rarityFilePath("/rarities", "ethereum", contract)
	assert.Equal("/rarities/ethereum_"+contract.Address.Checksum()+"_rarity.json", got)
}

func TestScoreWalletSumsRarityTimesBalance(t *testing.T) {
	assert := assert.New(t)

	contractAddr := persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	contractID := persist.DBID("contract-1")

	chains := balance.ChainCollections{
		1: balance.CollectionBalances{
			contractAddr: map[persist.TokenID]uint64{
				"1": 2,
				"2": 1,
			},
		},
	}
	byContractAddress := map[persist.EthereumAddress]persist.DBID{contractAddr: contractID}
	rarities := map[persist.DBID]persist.RarityTable{
		contractID: {
			"1": persist.RarityEntry{RarityScore: 1.5},
			"2": persist.RarityEntry{RarityScore: 0.25},
		},
	}

	r := &Refresher{}
	score := r.scoreWallet(chains, byContractAddress, rarities)
	// (1.5*2 + 0.25*1) * 1000 = 3250
	assert.Equal(uint64(3250), score)
}

func TestScoreWalletSkipsUntrackedContractsAndTokens(t *testing.T) {
	assert := assert.New(t)

	untracked := persist.Address("0xdeaddeaddeaddeaddeaddeaddeaddeaddeaddead")
	chains := balance.ChainCollections{
		1: balance.CollectionBalances{
			untracked: map[persist.TokenID]uint64{"1": 5},
		},
	}

	r := &Refresher{}
	score := r.scoreWallet(chains, map[persist.EthereumAddress]persist.DBID{}, map[persist.DBID]persist.RarityTable{})
	assert.Equal(uint64(0), score)
}
