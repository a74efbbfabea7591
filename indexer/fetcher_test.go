package indexer

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"

	"github.com/afterlife-xyz/afterlife/service/persist"
)

func TestFetchRangeNoContractsShortCircuits(t *testing.T) {
	assert := assert.New(t)

	f := NewEventFetcher(nil)
	events, err := f.FetchRange(context.Background(), persist.Chain{Name: "ethereum"}, nil, 1, 100)
	assert.NoError(err)
	assert.Nil(events)
}

func TestFetchRangeInvertedRangeShortCircuits(t *testing.T) {
	assert := assert.New(t)

	f := NewEventFetcher(nil)
	contract := persist.Contract{ID: "c1", Address: persist.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")}
	events, err := f.FetchRange(context.Background(), persist.Chain{Name: "ethereum"}, []persist.Contract{contract}, 100, 1)
	assert.NoError(err)
	assert.Nil(events)
}

func TestDecodeLogsForContractsFiltersUntrackedAddresses(t *testing.T) {
	assert := assert.New(t)

	tracked := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	untracked := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	byAddress := map[common.Address]persist.DBID{tracked: "c1"}

	from := "0x1111111111111111111111111111111111111111"
	to := "0x2222222222222222222222222222222222222222"
	transferLog := types.Log{
		Address: tracked,
		Topics: []common.Hash{
			common.HexToHash(string(erc721TransferEventHash)),
			topicFromAddress(from),
			topicFromAddress(to),
			topicFromInt(5),
		},
	}
	untrackedLog := types.Log{Address: untracked, Topics: transferLog.Topics}
	unmatchedTopicLog := types.Log{Address: tracked, Topics: []common.Hash{common.HexToHash("0xdeadbeef")}}

	decoded := decodeLogsForContracts(context.Background(), []types.Log{transferLog, untrackedLog, unmatchedTopicLog}, byAddress, 1)
	assert.Len(decoded, 1)
	assert.Equal(persist.DBID("c1"), decoded[0].ContractID)
	assert.Equal(persist.ChainID(1), decoded[0].ChainID)
	assert.Equal([]persist.TokenID{"5"}, decoded[0].IDs)
}
