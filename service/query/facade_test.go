package query

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/util"
)

type fakeContractRepo struct {
	contracts []persist.Contract
}

func (f *fakeContractRepo) GetByChain(ctx context.Context, chain persist.ChainID) ([]persist.Contract, error) {
	var out []persist.Contract
	for _, c := range f.contracts {
		if c.ChainID == chain {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeContractRepo) GetByChainAndAddress(ctx context.Context, chain persist.ChainID, address persist.EthereumAddress) (persist.Contract, error) {
	for _, c := range f.contracts {
		if c.ChainID == chain && c.Address == address {
			return c, nil
		}
	}
	return persist.Contract{}, persist.ErrContractNotFoundByAddress{Chain: chain, Address: address}
}

func (f *fakeContractRepo) GetAll(ctx context.Context) ([]persist.Contract, error) {
	return f.contracts, nil
}

func (f *fakeContractRepo) Upsert(ctx context.Context, c persist.Contract) (persist.DBID, error) {
	return c.ID, nil
}

func (f *fakeContractRepo) UpdateLastSynced(ctx context.Context, id persist.DBID, block persist.BlockNumber) error {
	return nil
}

type fakeEventRepo struct {
	byContract map[persist.DBID][]persist.Event
}

func (f *fakeEventRepo) ReplaceRange(ctx context.Context, contractID persist.DBID, fromBlock, toBlock persist.BlockNumber, events []persist.Event) error {
	return nil
}

func (f *fakeEventRepo) EventsForChain(ctx context.Context, chain persist.ChainID) ([]persist.Event, error) {
	var out []persist.Event
	for _, events := range f.byContract {
		out = append(out, events...)
	}
	return out, nil
}

func (f *fakeEventRepo) EventsForContract(ctx context.Context, contractID persist.DBID) ([]persist.Event, error) {
	return f.byContract[contractID], nil
}

const testWallet = persist.EthereumAddress("0x1111111111111111111111111111111111111111")

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NoError(t, os.WriteFile(path, raw, 0o644))
}

func newTestFacade(t *testing.T, contracts []persist.Contract, events map[persist.DBID][]persist.Event, raritiesPath, metadataPath string) *Facade {
	t.Helper()
	contractRepo := &fakeContractRepo{contracts: contracts}
	eventRepo := &fakeEventRepo{byContract: events}
	chains := []persist.Chain{{ID: 1, Name: "ethereum"}}
	return NewFacade(contractRepo, eventRepo, chains, raritiesPath, metadataPath, persist.UsersData{"alice.eth": {string(testWallet)}})
}

func TestCollectionForAddress(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{ID: "c1", ChainID: 1, Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	events := map[persist.DBID][]persist.Event{
		"c1": {
			{ChainID: 1, From: persist.ZeroAddress, To: testWallet,
				IDs: []persist.TokenID{"1"}, Values: []persist.Amount{"5"}},
		},
	}

	raritiesDir := t.TempDir()
	metadataDir := t.TempDir()
	writeJSON(t, filepath.Join(raritiesDir, "ethereum_"+contract.Address.Checksum()+"_rarity.json"),
		[]persist.RarityEntry{{TokenID: "1", RarityScore: 0.5, RarityIndex: 3}})
	writeJSON(t, filepath.Join(metadataDir, "ethereum", contract.Address.Checksum(), "1.json"),
		map[string]interface{}{"name": "Cool NFT"})

	facade := newTestFacade(t, []persist.Contract{contract}, events, raritiesDir, metadataDir)

	tokens, err := facade.CollectionForAddress(context.Background(), "ethereum", contract.Address.Checksum(), string(testWallet))
	assert.NoError(err)
	assert.Len(tokens, 1)

	details := tokens["1"]
	assert.Equal(uint64(5), details["balance"])
	assert.Equal(500.0, details["rarity_score"])
	assert.Equal(3, details["rarity_index"])
}

func TestCollectionForAddressSkipsTokensWithNoMetadata(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{ID: "c1", ChainID: 1, Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	events := map[persist.DBID][]persist.Event{
		"c1": {
			{ChainID: 1, From: persist.ZeroAddress, To: testWallet,
				IDs: []persist.TokenID{"1"}, Values: []persist.Amount{"5"}},
		},
	}

	facade := newTestFacade(t, []persist.Contract{contract}, events, t.TempDir(), t.TempDir())

	tokens, err := facade.CollectionForAddress(context.Background(), "ethereum", contract.Address.Checksum(), string(testWallet))
	assert.NoError(err)
	assert.Empty(tokens)
}

func TestCollectionForAddressUnknownChain(t *testing.T) {
	assert := assert.New(t)

	facade := newTestFacade(t, nil, nil, t.TempDir(), t.TempDir())

	_, err := facade.CollectionForAddress(context.Background(), "polygon", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", string(testWallet))
	assert.Error(err)
	assert.Equal(400, util.ErrorStatus(err))
}

func TestCollectionForAddressUnknownContract(t *testing.T) {
	assert := assert.New(t)

	facade := newTestFacade(t, nil, nil, t.TempDir(), t.TempDir())

	_, err := facade.CollectionForAddress(context.Background(), "ethereum", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", string(testWallet))
	assert.Error(err)
	assert.Equal(400, util.ErrorStatus(err))
}

func TestCollectionForAddressInvalidWallet(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{ID: "c1", ChainID: 1, Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	facade := newTestFacade(t, []persist.Contract{contract}, nil, t.TempDir(), t.TempDir())

	_, err := facade.CollectionForAddress(context.Background(), "ethereum", contract.Address.Checksum(), "not-an-address")
	assert.Error(err)
	assert.Equal(400, util.ErrorStatus(err))
}

func TestEntireCollection(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{ID: "c1", ChainID: 1, Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	events := map[persist.DBID][]persist.Event{
		"c1": {
			{ChainID: 1, From: persist.ZeroAddress, To: testWallet,
				IDs: []persist.TokenID{"1"}, Values: []persist.Amount{"1"}},
		},
	}

	metadataDir := t.TempDir()
	writeJSON(t, filepath.Join(metadataDir, "ethereum", contract.Address.Checksum(), "1.json"),
		map[string]interface{}{"name": "Cool NFT"})

	facade := newTestFacade(t, []persist.Contract{contract}, events, t.TempDir(), metadataDir)

	tokens, err := facade.EntireCollection(context.Background(), "ethereum", contract.Address.Checksum())
	assert.NoError(err)
	assert.Len(tokens, 1)
	_, hasBalance := tokens["1"]["balance"]
	assert.False(hasBalance)
}

func TestTokenOwners(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{ID: "c1", ChainID: 1, Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	events := map[persist.DBID][]persist.Event{
		"c1": {
			{ChainID: 1, From: persist.ZeroAddress, To: testWallet,
				IDs: []persist.TokenID{"1"}, Values: []persist.Amount{"1"}},
		},
	}

	facade := newTestFacade(t, []persist.Contract{contract}, events, t.TempDir(), t.TempDir())

	owners, err := facade.TokenOwners(context.Background(), "ethereum", contract.Address.Checksum(), "1")
	assert.NoError(err)
	assert.Equal([]string{testWallet.Checksum()}, owners)
}

func TestGetUsernameResolvesRegisteredName(t *testing.T) {
	assert := assert.New(t)

	facade := newTestFacade(t, nil, nil, t.TempDir(), t.TempDir())

	name, err := facade.GetUsername(string(testWallet))
	assert.NoError(err)
	assert.Equal("alice.eth", name)
}

func TestGetUsernameFallsBackToChecksum(t *testing.T) {
	assert := assert.New(t)

	facade := newTestFacade(t, nil, nil, t.TempDir(), t.TempDir())

	other := "0x2222222222222222222222222222222222222222"
	name, err := facade.GetUsername(other)
	assert.NoError(err)
	assert.Equal(persist.Address(other).Checksum(), name)
}

func TestUserLevelAggregatesAcrossAddresses(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{ID: "c1", ChainID: 1, Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	events := map[persist.DBID][]persist.Event{
		"c1": {
			{ChainID: 1, From: persist.ZeroAddress, To: testWallet,
				IDs: []persist.TokenID{"1"}, Values: []persist.Amount{"2"}},
		},
	}

	raritiesDir := t.TempDir()
	writeJSON(t, filepath.Join(raritiesDir, "ethereum_"+contract.Address.Checksum()+"_rarity.json"),
		[]persist.RarityEntry{{TokenID: "1", RarityScore: 1.0}})

	facade := newTestFacade(t, []persist.Contract{contract}, events, raritiesDir, t.TempDir())

	result, err := facade.UserLevel(context.Background(), "alice.eth")
	assert.NoError(err)
	assert.Equal(uint64(2000), result.AggregateScore)
	assert.Len(result.AllNFTs, 1)
	assert.Len(result.TopNFTs, 1)
	assert.Equal(13, result.Level)
}

func TestUserLevelNotFoundForEmptyHoldings(t *testing.T) {
	assert := assert.New(t)

	facade := newTestFacade(t, nil, nil, t.TempDir(), t.TempDir())

	_, err := facade.UserLevel(context.Background(), "nobody")
	assert.Error(err)
	assert.Equal(400, util.ErrorStatus(err))
}
