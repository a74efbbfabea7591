package indexer

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/service/rpc"
)

// maxInFlightLogRequests bounds how many eth_getLogs calls a single
// FetchRange invocation has outstanding at once, so a chain with a huge
// backlog doesn't overwhelm its RPC provider's rate limit.
const maxInFlightLogRequests = 20

var transferTopics = []common.Hash{
	common.HexToHash(string(erc721TransferEventHash)),
	common.HexToHash(string(erc1155TransferSingleEventHash)),
	common.HexToHash(string(erc1155TransferBatchEventHash)),
}

// EventFetcher pulls raw transfer logs for a chain's tracked contracts over
// a block range, chunking the range per the chain's configured chunk size
// and fanning chunk requests out across a bounded pool.
type EventFetcher struct {
	clients *rpc.ClientSet
}

func NewEventFetcher(clients *rpc.ClientSet) *EventFetcher {
	return &EventFetcher{clients: clients}
}

// FetchRange retrieves and decodes every transfer-shaped log emitted by
// contracts between from and to (inclusive), and stamps each decoded Event
// with the ContractID of the contract that emitted it.
func (f *EventFetcher) FetchRange(ctx context.Context, chain persist.Chain, contracts []persist.Contract, from, to persist.BlockNumber) ([]persist.Event, error) {
	if len(contracts) == 0 || to < from {
		return nil, nil
	}

	client, err := f.clients.Client(ctx, chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("indexer: dialing chain %s: %w", chain.Name, err)
	}

	byAddress := make(map[common.Address]persist.DBID, len(contracts))
	addresses := make([]common.Address, 0, len(contracts))
	for _, c := range contracts {
		addr := common.HexToAddress(string(c.Address))
		byAddress[addr] = c.ID
		addresses = append(addresses, addr)
	}

	chunkSize := chain.ChunkSize
	if chunkSize == 0 {
		chunkSize = 2000
	}

	type chunk struct {
		from, to uint64
	}
	var chunks []chunk
	for start := uint64(from); start <= uint64(to); start += chunkSize {
		end := start + chunkSize - 1
		if end > uint64(to) {
			end = uint64(to)
		}
		chunks = append(chunks, chunk{from: start, to: end})
	}

	var (
		mu     sync.Mutex
		events []persist.Event
	)

	sem := semaphore.NewWeighted(maxInFlightLogRequests)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, ch := range chunks {
		ch := ch
		if err := sem.Acquire(groupCtx, 1); err != nil {
			return nil, fmt.Errorf("indexer: acquiring fetch slot for chain %s: %w", chain.Name, err)
		}

		group.Go(func() error {
			defer sem.Release(1)

			query := ethereum.FilterQuery{
				FromBlock: new(big.Int).SetUint64(ch.from),
				ToBlock:   new(big.Int).SetUint64(ch.to),
				Addresses: addresses,
				Topics:    [][]common.Hash{transferTopics},
			}

			logs, err := rpc.RetryFilterLogs(groupCtx, client, query)
			if err != nil {
				return fmt.Errorf("chain %s blocks %d-%d: %w", chain.Name, ch.from, ch.to, err)
			}

			decoded := decodeLogsForContracts(groupCtx, logs, byAddress, chain.ID)

			mu.Lock()
			events = append(events, decoded...)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("indexer: fetching chunks for chain %s: %w", chain.Name, err)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].BlockNumber < events[j].BlockNumber })
	return events, nil
}

func decodeLogsForContracts(ctx context.Context, logs []gethtypes.Log, byAddress map[common.Address]persist.DBID, chainID persist.ChainID) []persist.Event {
	decoded := make([]persist.Event, 0, len(logs))
	for _, l := range logs {
		contractID, ok := byAddress[l.Address]
		if !ok {
			continue
		}

		ev, matched, err := DecodeLog(l)
		if err != nil {
			logger.For(ctx).WithError(err).Warnf("indexer: could not decode log in tx %s", l.TxHash.Hex())
			continue
		}
		if !matched {
			continue
		}

		ev.ContractID = contractID
		ev.ChainID = chainID
		decoded = append(decoded, ev)
	}
	return decoded
}
