package leaderboard

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/afterlife-xyz/afterlife/service/balance"
	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/service/metric"
	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/service/sentryutil"
)

const (
	refreshPeriod      = 60 * time.Second
	maxParallelScorers = 20
)

// Refresher recomputes the leaderboard snapshot from the full transfer log
// and the per-collection rarity files, and swaps it into a Cache.
type Refresher struct {
	cache     *Cache
	contracts persist.ContractRepository
	events    persist.EventRepository

	chainNameByID map[persist.ChainID]string
	raritiesPath  string
	users         persist.UsersData
	denylist      map[string]bool
}

func NewRefresher(cache *Cache, contracts persist.ContractRepository, events persist.EventRepository, chains []persist.Chain, raritiesPath string, users persist.UsersData, denylist []string) *Refresher {
	deny := make(map[string]bool, len(denylist))
	for _, name := range denylist {
		deny[name] = true
	}
	chainNameByID := make(map[persist.ChainID]string, len(chains))
	for _, c := range chains {
		chainNameByID[c.ID] = c.Name
	}
	return &Refresher{
		cache:         cache,
		contracts:     contracts,
		events:        events,
		chainNameByID: chainNameByID,
		raritiesPath:  raritiesPath,
		users:         users,
		denylist:      deny,
	}
}

// Run computes one snapshot immediately, then recomputes every
// refreshPeriod until ctx is cancelled. A failed or panicking tick is
// reported and skipped; the previous snapshot stays live.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(refreshPeriod)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	ctx = sentryutil.NewSentryHubContext(ctx)
	defer sentryutil.RecoverAndRaise(ctx)

	start := time.Now()
	scores, err := r.compute(ctx)
	if err != nil {
		sentryutil.ReportError(ctx, fmt.Errorf("leaderboard: computing snapshot: %w", err))
		return
	}

	r.cache.set(scores, time.Now())
	metric.NewLogMetricReporter().Record(ctx, metric.Measure{Name: "leaderboard_refresh_seconds", Value: time.Since(start).Seconds()})
	logger.For(ctx).Infof("leaderboard: refreshed snapshot for %d collectors in %s", len(scores), time.Since(start))
}

func (r *Refresher) compute(ctx context.Context) (map[string]uint64, error) {
	contracts, err := r.contracts.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contracts: %w", err)
	}

	rarities := make(map[persist.DBID]persist.RarityTable, len(contracts))
	for _, c := range contracts {
		table, err := persist.LoadRarityTable(rarityFilePath(r.raritiesPath, r.chainNameByID[c.ChainID], c))
		if err != nil {
			return nil, fmt.Errorf("loading rarity table for %s: %w", c.Address, err)
		}
		rarities[c.ID] = table
	}

	allEvents, err := r.loadAllEvents(ctx, contracts)
	if err != nil {
		return nil, err
	}

	byContractAddress := make(map[persist.EthereumAddress]persist.DBID, len(contracts))
	for _, c := range contracts {
		byContractAddress[c.Address] = c.ID
	}

	addressIndex := r.users.AddressIndex()
	collections := balance.AllUsersCollections(allEvents)

	scores := make(map[string]uint64, len(collections))
	for wallet, chains := range collections {
		displayName := displayNameFor(wallet, addressIndex)
		if r.denylist[displayName] {
			continue
		}

		points := r.scoreWallet(chains, byContractAddress, rarities)
		if points == 0 {
			continue
		}
		// Two wallets can resolve to the same display name if a user
		// registered more than one address; their points stack.
		scores[displayName] += points
	}

	return scores, nil
}

func (r *Refresher) scoreWallet(chains balance.ChainCollections, byContractAddress map[persist.EthereumAddress]persist.DBID, rarities map[persist.DBID]persist.RarityTable) uint64 {
	var score float64
	for _, collections := range chains {
		for contractAddr, balances := range collections {
			contractID, ok := byContractAddress[contractAddr]
			if !ok {
				continue
			}
			table := rarities[contractID]
			for tokenID, bal := range balances {
				entry, ok := table[tokenID]
				if !ok {
					continue
				}
				score += entry.RarityScore * float64(bal)
			}
		}
	}
	return uint64(math.Round(score * 1000))
}

func (r *Refresher) loadAllEvents(ctx context.Context, contracts []persist.Contract) ([]balance.ContractEvent, error) {
	var (
		mu        sync.Mutex
		allEvents []balance.ContractEvent
	)

	sem := semaphore.NewWeighted(maxParallelScorers)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, c := range contracts {
		c := c
		if err := sem.Acquire(groupCtx, 1); err != nil {
			return nil, err
		}
		group.Go(func() error {
			defer sem.Release(1)

			events, err := r.events.EventsForContract(groupCtx, c.ID)
			if err != nil {
				return fmt.Errorf("loading events for %s: %w", c.Address, err)
			}

			pairs := make([]balance.ContractEvent, len(events))
			for i, ev := range events {
				pairs[i] = balance.ContractEvent{Address: c.Address, Event: ev}
			}

			mu.Lock()
			allEvents = append(allEvents, pairs...)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return allEvents, nil
}

func displayNameFor(wallet persist.EthereumAddress, index map[persist.EthereumAddress]string) string {
	if name, ok := index[wallet]; ok {
		return name
	}
	return wallet.Checksum()
}

func rarityFilePath(root, chainName string, c persist.Contract) string {
	return filepath.Join(root, fmt.Sprintf("%s_%s_rarity.json", chainName, c.Address.Checksum()))
}
