package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afterlife-xyz/afterlife/service/persist"
)

type recordingEventRepo struct {
	replaceCalled bool
}

func (r *recordingEventRepo) ReplaceRange(ctx context.Context, contractID persist.DBID, fromBlock, toBlock persist.BlockNumber, events []persist.Event) error {
	r.replaceCalled = true
	return nil
}

func (r *recordingEventRepo) EventsForChain(ctx context.Context, chain persist.ChainID) ([]persist.Event, error) {
	return nil, nil
}

func (r *recordingEventRepo) EventsForContract(ctx context.Context, contractID persist.DBID) ([]persist.Event, error) {
	return nil, nil
}

func TestReconcileContractSkipsWhenTargetBehindFrom(t *testing.T) {
	assert := assert.New(t)

	events := &recordingEventRepo{}
	r := &Reconciler{events: events}
	contract := persist.Contract{ID: "c1", StartBlock: 100, LastSynced: 0}

	r.reconcileContract(context.Background(), persist.Chain{Name: "ethereum"}, contract, 50)
	assert.False(events.replaceCalled)
}

func TestFetchFromBlockFirstSyncStartsAtStartBlock(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{StartBlock: 100, LastSynced: 0}
	assert.Equal(persist.BlockNumber(100), fetchFromBlock(contract, 100000))
}

func TestFetchFromBlockNeverGoesBelowStartBlock(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{StartBlock: 100, LastSynced: 105}
	assert.Equal(persist.BlockNumber(100), fetchFromBlock(contract, 105))
}

func TestFetchFromBlockLooksBackWhenHeadIsNearWatermark(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{StartBlock: 0, LastSynced: 10000}
	head := contract.LastSynced + reorgLookback
	assert.Equal(contract.LastSynced-reorgLookback, fetchFromBlock(contract, head))
}

func TestFetchFromBlockSkipsLookBackWhenHeadIsFarAhead(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{StartBlock: 0, LastSynced: 10000}
	head := contract.LastSynced + reorgLookback + 1
	assert.Equal(contract.LastSynced, fetchFromBlock(contract, head))
}

func TestFetchFromBlockLookBackSaturatesAtStartBlock(t *testing.T) {
	assert := assert.New(t)

	contract := persist.Contract{StartBlock: 500, LastSynced: 1000}
	head := contract.LastSynced
	assert.Equal(contract.StartBlock, fetchFromBlock(contract, head))
}
