package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/afterlife-xyz/afterlife/service/persist"
)

// ContractRepository persists tracked contracts in Postgres.
type ContractRepository struct {
	pool *pgxpool.Pool
}

func NewContractRepository(pool *pgxpool.Pool) *ContractRepository {
	return &ContractRepository{pool: pool}
}

func (c *ContractRepository) GetByChain(ctx context.Context, chain persist.ChainID) ([]persist.Contract, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, chain_id, address, name, type, start_block, last_synced_block
		 FROM contracts WHERE chain_id = $1 ORDER BY address;`, chain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []persist.Contract
	for rows.Next() {
		var c persist.Contract
		if err := rows.Scan(&c.ID, &c.ChainID, &c.Address, &c.Name, &c.Type, &c.StartBlock, &c.LastSynced); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// GetByChainAndAddress looks up one contract by its chain and address.
func (c *ContractRepository) GetByChainAndAddress(ctx context.Context, chain persist.ChainID, address persist.EthereumAddress) (persist.Contract, error) {
	var out persist.Contract
	err := c.pool.QueryRow(ctx,
		`SELECT id, chain_id, address, name, type, start_block, last_synced_block
		 FROM contracts WHERE chain_id = $1 AND address = $2;`, chain, persist.Address(string(address)),
	).Scan(&out.ID, &out.ChainID, &out.Address, &out.Name, &out.Type, &out.StartBlock, &out.LastSynced)
	if err == pgx.ErrNoRows {
		return persist.Contract{}, persist.ErrContractNotFoundByAddress{Chain: chain, Address: address}
	}
	if err != nil {
		return persist.Contract{}, err
	}
	return out, nil
}

// GetAll returns every tracked contract across every configured chain.
func (c *ContractRepository) GetAll(ctx context.Context) ([]persist.Contract, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT id, chain_id, address, name, type, start_block, last_synced_block
		 FROM contracts ORDER BY chain_id, address;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []persist.Contract
	for rows.Next() {
		var c persist.Contract
		if err := rows.Scan(&c.ID, &c.ChainID, &c.Address, &c.Name, &c.Type, &c.StartBlock, &c.LastSynced); err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

// Upsert inserts c, or updates its name/type/start block if a contract
// already exists for (chain_id, address). The sync watermark is left
// untouched on conflict so re-running config sync never rewinds progress.
func (c *ContractRepository) Upsert(ctx context.Context, contract persist.Contract) (persist.DBID, error) {
	id := contract.ID
	if id == "" {
		id = persist.GenerateID()
	}

	var returnedID persist.DBID
	err := c.pool.QueryRow(ctx,
		`INSERT INTO contracts (id, chain_id, address, name, type, start_block, last_synced_block)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (chain_id, address) DO UPDATE
		   SET name = EXCLUDED.name, type = EXCLUDED.type, start_block = EXCLUDED.start_block
		 RETURNING id;`,
		id, contract.ChainID, contract.Address, contract.Name, contract.Type, contract.StartBlock,
	).Scan(&returnedID)
	if err != nil {
		return "", err
	}
	return returnedID, nil
}

func (c *ContractRepository) UpdateLastSynced(ctx context.Context, id persist.DBID, block persist.BlockNumber) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE contracts SET last_synced_block = $2 WHERE id = $1;`, id, block)
	return err
}
