package persist

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// BlockNumber is an Ethereum block number.
type BlockNumber uint64

func (b BlockNumber) Uint64() uint64 { return uint64(b) }

func (b BlockNumber) Value() (driver.Value, error) {
	return int64(b), nil
}

func (b *BlockNumber) Scan(i interface{}) error {
	if i == nil {
		*b = 0
		return nil
	}
	v, ok := i.(int64)
	if !ok {
		return fmt.Errorf("persist: cannot scan %T into BlockNumber", i)
	}
	*b = BlockNumber(v)
	return nil
}

// TokenType is the normalized transfer shape a raw log decoded into.
type TokenType string

const (
	TokenTypeERC721  TokenType = "ERC-721"
	TokenTypeERC1155 TokenType = "ERC-1155"
)

// TokenID is a token's identifier within its contract, kept as a decimal
// string so values beyond uint64 (the full uint256 range) round-trip
// without precision loss through JSON and Postgres.
type TokenID string

// BigInt returns the TokenID's big.Int value, or nil if it isn't a valid
// base-10 integer.
func (t TokenID) BigInt() *big.Int {
	i, ok := new(big.Int).SetString(string(t), 10)
	if !ok {
		return nil
	}
	return i
}

func (t TokenID) String() string { return string(t) }

// Amount is a transferred or held quantity, kept as a decimal string for
// the same overflow-safety reason as TokenID — ERC-1155 amounts are
// uint256 and routinely exceed uint64 for fungible-style tokens.
type Amount string

func AmountFromBigInt(i *big.Int) Amount {
	if i == nil {
		return "0"
	}
	return Amount(i.String())
}

func (a Amount) BigInt() *big.Int {
	i, ok := new(big.Int).SetString(string(a), 10)
	if !ok {
		return big.NewInt(0)
	}
	return i
}
