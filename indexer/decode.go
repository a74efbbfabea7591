package indexer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/afterlife-xyz/afterlife/contracts"
	"github.com/afterlife-xyz/afterlife/service/persist"
)

// eventHash is the keccak256 topic0 hash identifying a log's event shape.
type eventHash string

const (
	erc721TransferEventHash        eventHash = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	erc1155TransferSingleEventHash eventHash = "0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62"
	erc1155TransferBatchEventHash  eventHash = "0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb"
)

var erc1155ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(contracts.IERC1155MetaData.ABI))
	if err != nil {
		panic(fmt.Errorf("indexer: could not parse ERC-1155 ABI: %w", err))
	}
	erc1155ABI = parsed
}

// DecodeLog normalizes one raw EVM log into an Event, dispatching on the
// log's topic0. Logs whose topic0 doesn't match any of the three known
// transfer shapes are not transfers this indexer cares about and decode to
// (Event{}, false, nil).
func DecodeLog(l types.Log) (persist.Event, bool, error) {
	if len(l.Topics) == 0 {
		return persist.Event{}, false, nil
	}

	switch eventHash(strings.ToLower(l.Topics[0].Hex())) {
	case erc721TransferEventHash:
		return decodeERC721(l)
	case erc1155TransferSingleEventHash:
		return decodeERC1155Single(l)
	case erc1155TransferBatchEventHash:
		return decodeERC1155Batch(l)
	default:
		return persist.Event{}, false, nil
	}
}

func decodeERC721(l types.Log) (persist.Event, bool, error) {
	if len(l.Topics) != 4 {
		return persist.Event{}, false, fmt.Errorf("indexer: erc721 transfer log has %d topics, want 4", len(l.Topics))
	}
	from := addressFromTopic(l.Topics[1])
	to := addressFromTopic(l.Topics[2])
	tokenID := new(big.Int).SetBytes(l.Topics[3].Bytes())

	return persist.Event{
		Operator:    from,
		From:        from,
		To:          to,
		TokenType:   persist.TokenTypeERC721,
		IDs:         []persist.TokenID{persist.TokenID(tokenID.String())},
		Values:      []persist.Amount{"1"},
		BlockNumber: persist.BlockNumber(l.BlockNumber),
		TxHash:      l.TxHash.Hex(),
	}, true, nil
}

func decodeERC1155Single(l types.Log) (persist.Event, bool, error) {
	if len(l.Topics) != 4 {
		return persist.Event{}, false, fmt.Errorf("indexer: erc1155 TransferSingle log has %d topics, want 4", len(l.Topics))
	}
	vals := map[string]interface{}{}
	if err := erc1155ABI.UnpackIntoMap(vals, "TransferSingle", l.Data); err != nil {
		return persist.Event{}, false, fmt.Errorf("indexer: unpacking TransferSingle data: %w", err)
	}
	id, ok := vals["id"].(*big.Int)
	if !ok {
		return persist.Event{}, false, fmt.Errorf("indexer: TransferSingle missing id")
	}
	value, ok := vals["value"].(*big.Int)
	if !ok {
		return persist.Event{}, false, fmt.Errorf("indexer: TransferSingle missing value")
	}

	return persist.Event{
		Operator:    addressFromTopic(l.Topics[1]),
		From:        addressFromTopic(l.Topics[2]),
		To:          addressFromTopic(l.Topics[3]),
		TokenType:   persist.TokenTypeERC1155,
		IDs:         []persist.TokenID{persist.TokenID(id.String())},
		Values:      []persist.Amount{persist.AmountFromBigInt(value)},
		BlockNumber: persist.BlockNumber(l.BlockNumber),
		TxHash:      l.TxHash.Hex(),
	}, true, nil
}

func decodeERC1155Batch(l types.Log) (persist.Event, bool, error) {
	if len(l.Topics) != 4 {
		return persist.Event{}, false, fmt.Errorf("indexer: erc1155 TransferBatch log has %d topics, want 4", len(l.Topics))
	}
	vals := map[string]interface{}{}
	if err := erc1155ABI.UnpackIntoMap(vals, "TransferBatch", l.Data); err != nil {
		return persist.Event{}, false, fmt.Errorf("indexer: unpacking TransferBatch data: %w", err)
	}
	ids, ok := vals["ids"].([]*big.Int)
	if !ok {
		return persist.Event{}, false, fmt.Errorf("indexer: TransferBatch missing ids")
	}
	values, ok := vals["values"].([]*big.Int)
	if !ok {
		return persist.Event{}, false, fmt.Errorf("indexer: TransferBatch missing values")
	}
	if len(ids) != len(values) || len(ids) == 0 {
		return persist.Event{}, false, fmt.Errorf("indexer: TransferBatch ids/values length mismatch: %d/%d", len(ids), len(values))
	}

	tokenIDs := make([]persist.TokenID, len(ids))
	amounts := make([]persist.Amount, len(values))
	for i := range ids {
		tokenIDs[i] = persist.TokenID(ids[i].String())
		amounts[i] = persist.AmountFromBigInt(values[i])
	}

	return persist.Event{
		Operator:    addressFromTopic(l.Topics[1]),
		From:        addressFromTopic(l.Topics[2]),
		To:          addressFromTopic(l.Topics[3]),
		TokenType:   persist.TokenTypeERC1155,
		IDs:         tokenIDs,
		Values:      amounts,
		BlockNumber: persist.BlockNumber(l.BlockNumber),
		TxHash:      l.TxHash.Hex(),
	}, true, nil
}

func addressFromTopic(t common.Hash) persist.EthereumAddress {
	return persist.Address(common.HexToAddress(t.Hex()).Hex())
}
