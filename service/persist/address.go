package persist

import (
	"database/sql/driver"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the all-zero Ethereum address used as the mint/burn
// sentinel "from"/"to" for non-custodial transfers.
const ZeroAddress EthereumAddress = "0x0000000000000000000000000000000000000000"

// DeadAddress is the conventional burn-sink address some collections
// send tokens to instead of the zero address.
const DeadAddress EthereumAddress = "0x000000000000000000000000000000000000dead"

// EthereumAddress is a lowercase-normalized Ethereum address. Comparisons
// and map keys always use the lowercase form; Checksum renders the EIP-55
// mixed-case form for display.
type EthereumAddress string

// Address normalizes a raw hex address to its canonical lowercase form.
func Address(s string) EthereumAddress {
	return EthereumAddress(strings.ToLower(s))
}

func (a EthereumAddress) String() string { return string(a) }

// IsZeroOrDead reports whether a is the mint/burn sentinel or the
// conventional dead-address burn sink.
func (a EthereumAddress) IsZeroOrDead() bool {
	return a == ZeroAddress || a == DeadAddress
}

// Checksum renders the EIP-55 mixed-case checksum form of the address.
func (a EthereumAddress) Checksum() string {
	return common.HexToAddress(string(a)).Hex()
}

// Value implements the database/sql driver Valuer interface for EthereumAddress.
func (a EthereumAddress) Value() (driver.Value, error) {
	return string(a), nil
}

// Scan implements the database/sql Scanner interface for EthereumAddress,
// normalizing to lowercase on the way in so all comparisons stay consistent
// regardless of how the value was written.
func (a *EthereumAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*a = Address(v)
	case []byte:
		*a = Address(string(v))
	}
	return nil
}
