package config

import (
	"fmt"
	"os"

	"github.com/afterlife-xyz/afterlife/service/persist"
	"gopkg.in/yaml.v2"
)

// ContractConfig is one tracked contract entry in the chain config file.
type ContractConfig struct {
	Name       string `yaml:"name"`
	Address    string `yaml:"address"`
	StartBlock uint64 `yaml:"startblock"`
	Type       string `yaml:"type"`
}

// ChainConfig is one chain entry in the chain config file: its identity,
// its RPC endpoint, the eth_getLogs chunk size to use against it, and the
// contracts tracked on it.
type ChainConfig struct {
	ID        int64            `yaml:"id"`
	Name      string           `yaml:"name"`
	RPCURL    string           `yaml:"rpc_url"`
	ChunkSize uint64           `yaml:"chunk_size"`
	Contracts []ContractConfig `yaml:"contracts"`
}

// IndexerConfig is the full chain/contract topology the indexer tracks,
// loaded from the YAML file named by AFTERLIFE_PATH_IDXCFG.
type IndexerConfig struct {
	Chains []ChainConfig `yaml:"chains"`
}

const indexerConfigPathEnv = "AFTERLIFE_PATH_IDXCFG"

// LoadIndexerConfig reads and parses the chain config file named by
// AFTERLIFE_PATH_IDXCFG.
func LoadIndexerConfig() (*IndexerConfig, error) {
	path := os.Getenv(indexerConfigPathEnv)
	if path == "" {
		return nil, fmt.Errorf("config: %s is not set", indexerConfigPathEnv)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg IndexerConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if len(cfg.Chains) == 0 {
		return nil, fmt.Errorf("config: %s declares no chains", path)
	}
	for _, c := range cfg.Chains {
		if c.RPCURL == "" {
			return nil, fmt.Errorf("config: chain %q has no rpc_url", c.Name)
		}
		if c.ChunkSize == 0 {
			return nil, fmt.Errorf("config: chain %q has no chunk_size", c.Name)
		}
	}

	return &cfg, nil
}

// Chain converts a parsed ChainConfig into the runtime persist.Chain value.
func (c ChainConfig) Chain() persist.Chain {
	return persist.Chain{
		ID:        persist.ChainID(c.ID),
		Name:      c.Name,
		RPCURL:    c.RPCURL,
		ChunkSize: c.ChunkSize,
	}
}

// EarliestStartBlock returns the lowest startblock declared among this
// chain's contracts, the block the fetcher should never look behind when a
// chain has never been synced before.
func (c ChainConfig) EarliestStartBlock() persist.BlockNumber {
	if len(c.Contracts) == 0 {
		return 0
	}
	min := c.Contracts[0].StartBlock
	for _, ct := range c.Contracts[1:] {
		if ct.StartBlock < min {
			min = ct.StartBlock
		}
	}
	return persist.BlockNumber(min)
}
