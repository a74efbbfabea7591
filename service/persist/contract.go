package persist

import (
	"context"
	"fmt"
)

// ContractType is the token standard a configured contract implements.
type ContractType string

const (
	ContractTypeERC721  ContractType = "ERC-721"
	ContractTypeERC1155 ContractType = "ERC-1155"
)

// Contract is a single tracked NFT contract on one chain, as declared in
// the chain config file.
type Contract struct {
	ID           DBID         `json:"id"`
	ChainID      ChainID      `json:"chain_id"`
	Address      EthereumAddress `json:"address"`
	Name         string       `json:"name"`
	Type         ContractType `json:"type"`
	StartBlock   BlockNumber  `json:"start_block"`
	LastSynced   BlockNumber  `json:"last_synced_block"`
}

// ContractRepository persists the set of tracked contracts and their
// per-contract sync watermark.
type ContractRepository interface {
	GetByChain(ctx context.Context, chain ChainID) ([]Contract, error)

	// GetByChainAndAddress looks up the single tracked contract at address
	// on chain, returning ErrContractNotFoundByAddress if it isn't tracked.
	GetByChainAndAddress(ctx context.Context, chain ChainID, address EthereumAddress) (Contract, error)

	// GetAll returns every tracked contract across every configured chain,
	// for operations (leaderboard scoring, full-collection lookups) that
	// span chains rather than operate on one at a time.
	GetAll(ctx context.Context) ([]Contract, error)

	Upsert(ctx context.Context, c Contract) (DBID, error)
	UpdateLastSynced(ctx context.Context, id DBID, block BlockNumber) error
}

// ErrContractNotFoundByAddress is returned when a lookup targets a contract
// address that was never registered in the chain config.
type ErrContractNotFoundByAddress struct {
	Chain   ChainID
	Address EthereumAddress
}

func (e ErrContractNotFoundByAddress) Error() string {
	return fmt.Sprintf("contract not found: chain=%d address=%s", e.Chain, e.Address)
}
