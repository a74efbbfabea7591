package persist

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/segmentio/ksuid"
)

// DBID is an application-wide unique identifier.
type DBID string

// CreationTime represents the time a record was created
type CreationTime time.Time

// LastUpdatedTime represents the time a record was last updated
type LastUpdatedTime time.Time

// Repositories is the set of all available persistence repositories.
type Repositories struct {
	ContractRepository ContractRepository
	EventRepository    EventRepository
}

// GenerateID generates a application-wide unique ID
func GenerateID() DBID {
	id, err := ksuid.NewRandom()
	if err != nil {
		panic(err)
	}
	return DBID(id.String())
}

func (d DBID) String() string {
	return string(d)
}

// Scan implements the database/sql Scanner interface for the DBID type
func (d *DBID) Scan(i interface{}) error {
	if i == nil {
		*d = DBID("")
		return nil
	}
	if it, ok := i.([]uint8); ok {
		*d = DBID(it)
		return nil
	}
	*d = DBID(i.(string))
	return nil
}

// Value implements the database/sql driver Valuer interface for the DBID type
func (d DBID) Value() (driver.Value, error) {
	return d.String(), nil
}

// Time returns the time.Time representation of the CreationTime
func (c CreationTime) Time() time.Time {
	return time.Time(c)
}

// MarshalJSON returns the JSON representation of the CreationTime
func (c CreationTime) MarshalJSON() ([]byte, error) {
	return c.Time().MarshalJSON()
}

// UnmarshalJSON sets the CreationTime from the JSON representation
func (c *CreationTime) UnmarshalJSON(b []byte) error {
	t := time.Time{}
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	*c = CreationTime(t)
	return nil
}

// Scan implements the database/sql Scanner interface for the CreationTime type
func (c *CreationTime) Scan(i interface{}) error {
	if i == nil {
		*c = CreationTime{}
		return nil
	}
	*c = CreationTime(i.(time.Time))
	return nil
}

// Value implements the database/sql driver Valuer interface for the CreationTime type
func (c CreationTime) Value() (driver.Value, error) {
	if c.Time().IsZero() {
		return time.Now(), nil
	}
	return c.Time(), nil
}

// RemoveDuplicateAddresses ensures that an array of addresses has no repeat items
func RemoveDuplicateAddresses(a []EthereumAddress) []EthereumAddress {
	result := make([]EthereumAddress, 0, len(a))
	seen := map[EthereumAddress]bool{}
	for _, val := range a {
		if !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}
