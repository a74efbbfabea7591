package persist

import (
	"database/sql/driver"
	"fmt"
)

// ChainID identifies one of the configured EVM chains. Unlike a fixed,
// closed enum it is whatever numeric id the chain config file assigns —
// new chains are added by editing config, never by changing this type.
type ChainID int64

func (c ChainID) Int64() int64 { return int64(c) }

// Value implements the database/sql driver Valuer interface for ChainID.
func (c ChainID) Value() (driver.Value, error) {
	return int64(c), nil
}

// Scan implements the database/sql Scanner interface for ChainID.
func (c *ChainID) Scan(i interface{}) error {
	if i == nil {
		*c = ChainID(0)
		return nil
	}
	v, ok := i.(int64)
	if !ok {
		return fmt.Errorf("persist: cannot scan %T into ChainID", i)
	}
	*c = ChainID(v)
	return nil
}

// Chain is one configured chain: a stable ChainID, a display name, an RPC
// endpoint, and the eth_getLogs range size the fetcher uses for this chain.
type Chain struct {
	ID        ChainID `yaml:"id" json:"id"`
	Name      string  `yaml:"name" json:"name"`
	RPCURL    string  `yaml:"rpc_url" json:"-"`
	ChunkSize uint64  `yaml:"chunk_size" json:"chunk_size"`
}

func (c Chain) String() string {
	return fmt.Sprintf("%s(%d)", c.Name, c.ID)
}
