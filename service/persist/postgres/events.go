package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/afterlife-xyz/afterlife/service/persist"
)

// EventRepository persists the reconciled transfer log.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// ReplaceRange deletes every event on record for contractID within
// [fromBlock, toBlock] and inserts events in its place, all inside one
// transaction, so a tick that re-fetches an overlapping range always ends
// with exactly the freshly-fetched events for that range, never a mix of
// old and new.
func (e *EventRepository) ReplaceRange(ctx context.Context, contractID persist.DBID, fromBlock, toBlock persist.BlockNumber, events []persist.Event) error {
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("postgres: beginning replace-range transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM events WHERE contract_id = $1 AND block_number BETWEEN $2 AND $3;`,
		contractID, fromBlock, toBlock,
	); err != nil {
		return fmt.Errorf("postgres: deleting event range: %w", err)
	}

	for _, ev := range events {
		if !ev.Valid() {
			return fmt.Errorf("postgres: refusing to insert invalid event (tx %s)", ev.TxHash)
		}

		idsJSON, err := json.Marshal(ev.IDs)
		if err != nil {
			return fmt.Errorf("postgres: marshaling event ids: %w", err)
		}
		valuesJSON, err := json.Marshal(ev.Values)
		if err != nil {
			return fmt.Errorf("postgres: marshaling event values: %w", err)
		}

		id := ev.ID
		if id == "" {
			id = persist.GenerateID()
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO events (id, chain_id, contract_id, operator, from_address, to_address, token_type, ids, values, block_number, tx_hash)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`,
			id, ev.ChainID, contractID, ev.Operator, ev.From, ev.To, ev.TokenType, idsJSON, valuesJSON, ev.BlockNumber, ev.TxHash,
		); err != nil {
			return fmt.Errorf("postgres: inserting event: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (e *EventRepository) EventsForChain(ctx context.Context, chain persist.ChainID) ([]persist.Event, error) {
	return e.query(ctx, `SELECT id, chain_id, contract_id, operator, from_address, to_address, token_type, ids, values, block_number, tx_hash
		 FROM events WHERE chain_id = $1 ORDER BY block_number;`, chain)
}

func (e *EventRepository) EventsForContract(ctx context.Context, contractID persist.DBID) ([]persist.Event, error) {
	return e.query(ctx, `SELECT id, chain_id, contract_id, operator, from_address, to_address, token_type, ids, values, block_number, tx_hash
		 FROM events WHERE contract_id = $1 ORDER BY block_number;`, contractID)
}

func (e *EventRepository) query(ctx context.Context, sql string, arg interface{}) ([]persist.Event, error) {
	rows, err := e.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []persist.Event
	for rows.Next() {
		var ev persist.Event
		var idsJSON, valuesJSON []byte
		if err := rows.Scan(&ev.ID, &ev.ChainID, &ev.ContractID, &ev.Operator, &ev.From, &ev.To, &ev.TokenType, &idsJSON, &valuesJSON, &ev.BlockNumber, &ev.TxHash); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(idsJSON, &ev.IDs); err != nil {
			return nil, fmt.Errorf("postgres: unmarshaling event ids: %w", err)
		}
		if err := json.Unmarshal(valuesJSON, &ev.Values); err != nil {
			return nil, fmt.Errorf("postgres: unmarshaling event values: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
