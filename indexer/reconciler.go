package indexer

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/service/metric"
	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/service/rpc"
	"github.com/afterlife-xyz/afterlife/service/sentryutil"
)

const (
	contractPoolSize = 10

	// reorgLookback is the width of the chunk re-scanned from a contract's
	// last-synced watermark when the chain head is still close to it, so a
	// reorg within that window is corrected by ReplaceRange simply
	// overwriting the overlapping range. Far from the head, no look-back is
	// applied and a tick picks up exactly where the last one left off.
	reorgLookback = persist.BlockNumber(2000)

	// propagationLag keeps the indexer a few blocks behind the reported
	// chain head, since most RPC providers haven't fully propagated the
	// very latest blocks to every node in their cluster.
	propagationLag = persist.BlockNumber(2)

	minTickPeriod = 15 * time.Second
)

// Reconciler runs one fetch-and-rewrite tick per configured chain, on a
// loop, forever. Each chain ticks independently so a slow or unreachable
// chain never blocks the others.
type Reconciler struct {
	clients   *rpc.ClientSet
	fetcher   *EventFetcher
	contracts persist.ContractRepository
	events    persist.EventRepository
}

func NewReconciler(clients *rpc.ClientSet, contracts persist.ContractRepository, events persist.EventRepository) *Reconciler {
	return &Reconciler{
		clients:   clients,
		fetcher:   NewEventFetcher(clients),
		contracts: contracts,
		events:    events,
	}
}

// Run starts one goroutine per chain and blocks until ctx is canceled.
func (r *Reconciler) Run(ctx context.Context, chains []persist.Chain) {
	done := make(chan struct{}, len(chains))
	for _, chain := range chains {
		chain := chain
		go func() {
			r.runChain(ctx, chain)
			done <- struct{}{}
		}()
	}
	for range chains {
		<-done
	}
}

func (r *Reconciler) runChain(ctx context.Context, chain persist.Chain) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		r.tick(ctx, chain)
		elapsed := time.Since(start)

		metric.NewLogMetricReporter().Record(ctx, metric.Measure{Name: "indexer_tick_seconds", Value: elapsed.Seconds()},
			metric.LogOptions.WithTags(map[string]string{"chain": chain.Name}))

		if elapsed < minTickPeriod {
			select {
			case <-ctx.Done():
				return
			case <-time.After(minTickPeriod - elapsed):
			}
		}
	}
}

// tick fetches and reconciles one round of events for every contract
// tracked on chain. A single contract's failure is logged and skipped; it
// does not abort the other contracts' ticks.
func (r *Reconciler) tick(ctx context.Context, chain persist.Chain) {
	ctx = sentryutil.NewSentryHubContext(ctx)
	defer sentryutil.RecoverAndRaise(ctx)

	client, err := r.clients.Client(ctx, chain.RPCURL)
	if err != nil {
		logger.For(ctx).WithError(err).Errorf("indexer: chain %s unreachable this tick", chain.Name)
		return
	}

	head, err := rpc.RetryGetBlockNumber(ctx, client)
	if err != nil {
		logger.For(ctx).WithError(err).Errorf("indexer: could not read chain head for %s", chain.Name)
		return
	}

	target := persist.BlockNumber(0)
	if head > uint64(propagationLag) {
		target = persist.BlockNumber(head) - propagationLag
	}

	contracts, err := r.contracts.GetByChain(ctx, chain.ID)
	if err != nil {
		logger.For(ctx).WithError(err).Errorf("indexer: could not load tracked contracts for %s", chain.Name)
		return
	}
	if len(contracts) == 0 {
		return
	}

	wp := workerpool.New(contractPoolSize)
	for _, c := range contracts {
		c := c
		wp.Submit(func() {
			r.reconcileContract(ctx, chain, c, target)
		})
	}
	wp.StopWait()
}

func (r *Reconciler) reconcileContract(ctx context.Context, chain persist.Chain, c persist.Contract, target persist.BlockNumber) {
	from := fetchFromBlock(c, target)
	if target < from {
		return
	}

	events, err := r.fetcher.FetchRange(ctx, chain, []persist.Contract{c}, from, target)
	if err != nil {
		logger.For(ctx).WithError(err).Errorf("indexer: fetching events for contract %s on %s", c.Address, chain.Name)
		return
	}

	if err := r.events.ReplaceRange(ctx, c.ID, from, target, events); err != nil {
		logger.For(ctx).WithError(err).Errorf("indexer: replacing event range for contract %s on %s", c.Address, chain.Name)
		return
	}

	if err := r.contracts.UpdateLastSynced(ctx, c.ID, target); err != nil {
		logger.For(ctx).WithError(err).Errorf("indexer: updating last-synced block for contract %s on %s", c.Address, chain.Name)
		return
	}

	logger.For(ctx).Infof("indexer: contract %s on %s synced to block %d (%d events)", c.Address, chain.Name, target, len(events))
}

// fetchFromBlock picks the starting block for a contract's next tick: its
// start block on a first sync; otherwise, if head is still within
// reorgLookback of the watermark, reorgLookback blocks behind it to absorb a
// reorg near the head; otherwise the watermark itself, since anything older
// is already final and re-scanning it is wasted work. Never earlier than the
// contract's start block.
func fetchFromBlock(c persist.Contract, head persist.BlockNumber) persist.BlockNumber {
	if c.LastSynced <= c.StartBlock {
		return c.StartBlock
	}

	lookBack := c.LastSynced
	if head <= c.LastSynced+reorgLookback {
		if c.LastSynced > reorgLookback {
			lookBack = c.LastSynced - reorgLookback
		} else {
			lookBack = 0
		}
	}
	if lookBack < c.StartBlock {
		return c.StartBlock
	}
	return lookBack
}
