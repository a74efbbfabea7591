// Package query composes the balance replayer with rarity and metadata
// file reads into the handful of enriched read operations the HTTP
// surface serves. There is no original reference implementation for
// per-user aggregate scoring (UserLevel) beyond the points_to_level
// curve itself; everything else here mirrors queries.rs's SQL-backed
// handlers.
package query

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/afterlife-xyz/afterlife/service/balance"
	"github.com/afterlife-xyz/afterlife/service/leveling"
	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/util"
)

// TokenDetails is the explicit allow-list of fields ever served back about
// a token: description, attributes and name pass through from the
// metadata file verbatim; rarity_score and rarity_index are projected
// from the rarity file; balance is only present where the caller asked
// for one wallet's holdings.
type TokenDetails map[string]interface{}

// Facade answers the read operations behind the HTTP surface.
type Facade struct {
	contracts persist.ContractRepository
	events    persist.EventRepository

	chainIDByName map[string]persist.ChainID
	chainNameByID map[persist.ChainID]string

	raritiesPath string
	metadataPath string
	users        persist.UsersData
}

func NewFacade(contracts persist.ContractRepository, events persist.EventRepository, chains []persist.Chain, raritiesPath, metadataPath string, users persist.UsersData) *Facade {
	byName := make(map[string]persist.ChainID, len(chains))
	byID := make(map[persist.ChainID]string, len(chains))
	for _, c := range chains {
		byName[strings.ToLower(c.Name)] = c.ID
		byID[c.ID] = c.Name
	}
	return &Facade{
		contracts:     contracts,
		events:        events,
		chainIDByName: byName,
		chainNameByID: byID,
		raritiesPath:  raritiesPath,
		metadataPath:  metadataPath,
		users:         users,
	}
}

// CollectionForAddress returns wallet's holdings in one collection,
// enriched with rarity and metadata.
func (f *Facade) CollectionForAddress(ctx context.Context, chainName, contractAddress, wallet string) (map[persist.TokenID]TokenDetails, error) {
	_, contract, err := f.resolveContract(ctx, chainName, contractAddress)
	if err != nil {
		return nil, err
	}
	walletAddr, err := parseAddress(wallet)
	if err != nil {
		return nil, err
	}

	events, err := f.events.EventsForContract(ctx, contract.ID)
	if err != nil {
		return nil, fmt.Errorf("query: loading events for %s: %w", contract.Address, err)
	}

	balances := balance.BalancesFor(events, walletAddr)
	rarities, err := f.loadRarities(chainName, contract.Address)
	if err != nil {
		return nil, err
	}

	tokens := make(map[persist.TokenID]TokenDetails, len(balances))
	for tokenID, bal := range balances {
		meta, err := f.loadMetadata(chainName, contract.Address, tokenID)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			continue
		}
		b := bal
		if details := buildTokenDetails(meta, rarityEntryOrNil(rarities, tokenID), &b); details != nil {
			tokens[tokenID] = details
		}
	}
	return tokens, nil
}

// EntireCollection returns every token currently in existence for a
// collection, enriched with rarity and metadata but with no balance.
func (f *Facade) EntireCollection(ctx context.Context, chainName, contractAddress string) (map[persist.TokenID]TokenDetails, error) {
	_, contract, err := f.resolveContract(ctx, chainName, contractAddress)
	if err != nil {
		return nil, err
	}

	events, err := f.events.EventsForContract(ctx, contract.ID)
	if err != nil {
		return nil, fmt.Errorf("query: loading events for %s: %w", contract.Address, err)
	}

	ids := balance.ExistingTokens(events)
	rarities, err := f.loadRarities(chainName, contract.Address)
	if err != nil {
		return nil, err
	}

	tokens := make(map[persist.TokenID]TokenDetails, len(ids))
	for _, tokenID := range ids {
		meta, err := f.loadMetadata(chainName, contract.Address, tokenID)
		if err != nil {
			return nil, err
		}
		if meta == nil {
			continue
		}
		if details := buildTokenDetails(meta, rarityEntryOrNil(rarities, tokenID), nil); details != nil {
			tokens[tokenID] = details
		}
	}
	return tokens, nil
}

// TokenOwners returns every address with a positive balance of one token.
func (f *Facade) TokenOwners(ctx context.Context, chainName, contractAddress, tokenID string) ([]string, error) {
	_, contract, err := f.resolveContract(ctx, chainName, contractAddress)
	if err != nil {
		return nil, err
	}

	events, err := f.events.EventsForContract(ctx, contract.ID)
	if err != nil {
		return nil, fmt.Errorf("query: loading events for %s: %w", contract.Address, err)
	}

	owners := balance.OwnersOf(events, persist.TokenID(tokenID))
	out := make([]string, len(owners))
	for i, addr := range owners {
		out[i] = addr.Checksum()
	}
	return out, nil
}

// GetUsername resolves a wallet to its display name, falling back to the
// wallet's checksummed address if it claims no username.
func (f *Facade) GetUsername(wallet string) (string, error) {
	addr, err := parseAddress(wallet)
	if err != nil {
		return "", err
	}
	return ResolveDisplayName(f.users, addr), nil
}

// FullCollection returns wallet's holdings across every tracked chain and
// contract: {chain -> {contract -> {token_id -> balance}}}.
func (f *Facade) FullCollection(ctx context.Context, wallet string) (map[string]map[string]map[persist.TokenID]uint64, error) {
	walletAddr, err := parseAddress(wallet)
	if err != nil {
		return nil, err
	}

	events, err := f.allContractEvents(ctx)
	if err != nil {
		return nil, err
	}

	collections := balance.FullCollection(events, walletAddr)
	return f.renderChainCollections(collections), nil
}

// UserLevelResult is the payload for /user/level/{username}.
type UserLevelResult struct {
	Username            string             `json:"username"`
	AggregateScore      uint64             `json:"aggregate_score"`
	Level               int                `json:"level"`
	PerCollectionScores map[string]uint64  `json:"per_collection_scores"`
	TopNFTs             []ScoredNFT        `json:"top_nfts"`
	AllNFTs             []ScoredNFT        `json:"all_nfts"`
}

// ScoredNFT is one held token with its individual leaderboard-style score.
type ScoredNFT struct {
	Chain    string          `json:"chain"`
	Contract string          `json:"contract"`
	TokenID  persist.TokenID `json:"token_id"`
	Balance  uint64          `json:"balance"`
	Score    uint64          `json:"score"`
}

// UserLevel aggregates a username's held NFTs (across every address it
// claims) into a total score, a level on the points_to_level curve, a
// per-collection score breakdown, and the top-10 and complete NFT lists.
func (f *Facade) UserLevel(ctx context.Context, username string) (*UserLevelResult, error) {
	addresses := AddressesForUsername(f.users, username)

	contractEvents, err := f.allContractEvents(ctx)
	if err != nil {
		return nil, err
	}

	merged := balance.ChainCollections{}
	for _, addr := range addresses {
		mergeChainCollections(merged, balance.FullCollection(contractEvents, addr))
	}
	if len(merged) == 0 {
		return nil, util.NotFoundError{Err: fmt.Errorf("query: %q holds no tracked tokens", username)}
	}

	result := &UserLevelResult{
		Username:            username,
		PerCollectionScores: map[string]uint64{},
	}

	for chainID, collections := range merged {
		chainName := f.chainNameByID[chainID]
		for contractAddr, balances := range collections {
			rarities, err := f.loadRarities(chainName, contractAddr)
			if err != nil {
				return nil, err
			}

			var collectionScore uint64
			for tokenID, bal := range balances {
				entry, ok := rarities[tokenID]
				if !ok {
					continue
				}
				points := uint64(math.Round(entry.RarityScore * float64(bal) * 1000))
				collectionScore += points
				result.AllNFTs = append(result.AllNFTs, ScoredNFT{
					Chain:    chainName,
					Contract: contractAddr.Checksum(),
					TokenID:  tokenID,
					Balance:  bal,
					Score:    points,
				})
			}

			key := fmt.Sprintf("%s:%s", chainName, contractAddr.Checksum())
			result.PerCollectionScores[key] += collectionScore
			result.AggregateScore += collectionScore
		}
	}

	sort.SliceStable(result.AllNFTs, func(i, j int) bool { return result.AllNFTs[i].Score > result.AllNFTs[j].Score })
	top := result.AllNFTs
	if len(top) > 10 {
		top = top[:10]
	}
	result.TopNFTs = append([]ScoredNFT{}, top...)
	result.Level = leveling.PointsToLevel(result.AggregateScore)

	return result, nil
}

func (f *Facade) resolveContract(ctx context.Context, chainName, contractAddress string) (persist.ChainID, persist.Contract, error) {
	chainID, ok := f.chainIDByName[strings.ToLower(chainName)]
	if !ok {
		return 0, persist.Contract{}, util.ClientError{Err: fmt.Errorf("unknown chain %q", chainName)}
	}

	addr, err := parseAddress(contractAddress)
	if err != nil {
		return 0, persist.Contract{}, err
	}

	contract, err := f.contracts.GetByChainAndAddress(ctx, chainID, addr)
	if err != nil {
		if _, ok := err.(persist.ErrContractNotFoundByAddress); ok {
			return 0, persist.Contract{}, util.NotFoundError{Err: err}
		}
		return 0, persist.Contract{}, err
	}
	return chainID, contract, nil
}

func (f *Facade) allContractEvents(ctx context.Context) ([]balance.ContractEvent, error) {
	contracts, err := f.contracts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query: loading contracts: %w", err)
	}

	var all []balance.ContractEvent
	for _, c := range contracts {
		events, err := f.events.EventsForContract(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("query: loading events for %s: %w", c.Address, err)
		}
		for _, ev := range events {
			all = append(all, balance.ContractEvent{Address: c.Address, Event: ev})
		}
	}
	return all, nil
}

func (f *Facade) renderChainCollections(collections balance.ChainCollections) map[string]map[string]map[persist.TokenID]uint64 {
	out := make(map[string]map[string]map[persist.TokenID]uint64, len(collections))
	for chainID, byContract := range collections {
		chainName := f.chainNameByID[chainID]
		if chainName == "" {
			continue
		}
		rendered := make(map[string]map[persist.TokenID]uint64, len(byContract))
		for contractAddr, balances := range byContract {
			rendered[contractAddr.Checksum()] = balances
		}
		out[chainName] = rendered
	}
	return out
}

func (f *Facade) loadRarities(chainName string, contract persist.EthereumAddress) (persist.RarityTable, error) {
	path := filepath.Join(f.raritiesPath, fmt.Sprintf("%s_%s_rarity.json", chainName, contract.Checksum()))
	table, err := persist.LoadRarityTable(path)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return table, nil
}

func (f *Facade) loadMetadata(chainName string, contract persist.EthereumAddress, tokenID persist.TokenID) (*persist.TokenMetadata, error) {
	path := filepath.Join(f.metadataPath, chainName, contract.Checksum(), string(tokenID)+".json")
	meta, err := persist.LoadTokenMetadata(path)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return meta, nil
}

func rarityEntryOrNil(table persist.RarityTable, tokenID persist.TokenID) *persist.RarityEntry {
	entry, ok := table[tokenID]
	if !ok {
		return nil
	}
	return &entry
}

func buildTokenDetails(meta *persist.TokenMetadata, rarity *persist.RarityEntry, bal *uint64) TokenDetails {
	details := TokenDetails{}
	if len(meta.Description) > 0 {
		details["description"] = meta.Description
	}
	if len(meta.Attributes) > 0 {
		details["attributes"] = meta.Attributes
	}
	if rarity != nil {
		details["rarity_score"] = rarity.RarityScore * 1000
		details["rarity_index"] = rarity.RarityIndex
	}
	if len(meta.Name) > 0 {
		details["name"] = meta.Name
	}
	if bal != nil {
		details["balance"] = *bal
	}
	return details
}

func mergeChainCollections(dst, src balance.ChainCollections) {
	for chainID, byContract := range src {
		dstByContract, ok := dst[chainID]
		if !ok {
			dstByContract = balance.CollectionBalances{}
			dst[chainID] = dstByContract
		}
		for contractAddr, balances := range byContract {
			dstBalances, ok := dstByContract[contractAddr]
			if !ok {
				dstBalances = map[persist.TokenID]uint64{}
				dstByContract[contractAddr] = dstBalances
			}
			for tokenID, bal := range balances {
				dstBalances[tokenID] += bal
			}
		}
	}
}

func parseAddress(raw string) (persist.EthereumAddress, error) {
	if !common.IsHexAddress(raw) {
		return "", util.ClientError{Err: fmt.Errorf("invalid address %q", raw)}
	}
	return persist.Address(raw), nil
}
