package persist

import "context"

// Event is a single normalized transfer, decoded from one raw EVM log and
// reconciled into the event log for its contract. All three source log
// shapes (ERC-721 Transfer, ERC-1155 TransferSingle, ERC-1155 TransferBatch)
// decode into this one shape; IDs and Values always have equal, non-zero
// length.
type Event struct {
	ID         DBID        `json:"id"`
	ChainID    ChainID     `json:"chain_id"`
	ContractID DBID        `json:"contract_id"`
	Operator   EthereumAddress `json:"operator"`
	From       EthereumAddress `json:"from"`
	To         EthereumAddress `json:"to"`
	TokenType  TokenType   `json:"token_type"`
	IDs        []TokenID   `json:"ids"`
	Values     []Amount    `json:"values"`
	BlockNumber BlockNumber `json:"block_number"`
	TxHash     string      `json:"tx_hash"`
}

// Valid reports whether the event satisfies the invariant every decoded
// transfer must hold: the ids and values slices move in lockstep and
// neither is empty.
func (e Event) Valid() bool {
	return len(e.IDs) > 0 && len(e.IDs) == len(e.Values)
}

// EventRepository persists the reconciled transfer log for every tracked
// contract and answers the read paths the balance replayer needs.
type EventRepository interface {
	// ReplaceRange atomically deletes every event recorded for contractID
	// in [fromBlock, toBlock] and inserts events in its place, so a
	// shallow reorg is corrected by simply re-fetching and re-writing the
	// overlapping range on the next tick.
	ReplaceRange(ctx context.Context, contractID DBID, fromBlock, toBlock BlockNumber, events []Event) error

	// EventsForChain returns every event ever recorded for the given chain,
	// across all of its tracked contracts, for balance replay.
	EventsForChain(ctx context.Context, chain ChainID) ([]Event, error)

	// EventsForContract returns every event recorded for one contract.
	EventsForContract(ctx context.Context, contractID DBID) ([]Event, error)
}
