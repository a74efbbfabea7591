package persist

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadRarityTable reads the rarity file for one (chain, contract) pair. A
// missing file is not an error — callers get an empty table and proceed as
// if no token in the collection has a rarity score.
func LoadRarityTable(path string) (RarityTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RarityTable{}, nil
		}
		return nil, fmt.Errorf("persist: reading rarity file %s: %w", path, err)
	}

	var entries []RarityEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("persist: parsing rarity file %s: %w", path, err)
	}

	table := make(RarityTable, len(entries))
	for _, e := range entries {
		table[e.TokenID] = e
	}
	return table, nil
}

// TokenMetadata is the subset of a token's metadata file the query facade
// ever serves back — an explicit allow-list, not the raw file contents.
type TokenMetadata struct {
	Name        json.RawMessage `json:"name,omitempty"`
	Description json.RawMessage `json:"description,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// LoadTokenMetadata reads one token's metadata file. A missing file is not
// an error — callers skip the token rather than fail the whole request.
func LoadTokenMetadata(path string) (*TokenMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("persist: reading metadata file %s: %w", path, err)
	}

	var meta TokenMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("persist: parsing metadata file %s: %w", path, err)
	}
	return &meta, nil
}

// LoadUsersData reads the username -> addresses directory file. A missing
// file yields an empty directory rather than an error, since username
// resolution gracefully degrades to checksummed addresses.
func LoadUsersData(path string) (UsersData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return UsersData{}, nil
		}
		return nil, fmt.Errorf("persist: reading users file %s: %w", path, err)
	}

	var data UsersData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("persist: parsing users file %s: %w", path, err)
	}
	return data, nil
}
