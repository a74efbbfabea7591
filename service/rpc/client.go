package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/afterlife-xyz/afterlife/util/retry"
)

// ClientSet caches one ethclient.Client per chain RPC URL so every
// component that needs to talk to a chain (the fetcher, the block-height
// poller) shares a single connection.
type ClientSet struct {
	mu      sync.Mutex
	clients map[string]*ethclient.Client
}

func NewClientSet() *ClientSet {
	return &ClientSet{clients: make(map[string]*ethclient.Client)}
}

// Client returns the cached client for rpcURL, dialing it on first use.
func (s *ClientSet) Client(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[rpcURL]; ok {
		return c, nil
	}

	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainUnreachable, err)
	}
	s.clients[rpcURL] = c
	return c, nil
}

// isRateLimitedError reports whether err looks like a transient RPC
// condition worth retrying (rate limiting, timeouts) as opposed to a
// permanent one (malformed request, unsupported method).
func isRateLimitedError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, substr := range []string{"429", "rate limit", "too many requests", "timeout", "connection reset", "temporarily unavailable"} {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// RetryGetBlockNumber fetches the chain head, retrying with exponential
// backoff while the error looks transient.
func RetryGetBlockNumber(ctx context.Context, client *ethclient.Client) (uint64, error) {
	var height uint64
	err := retry.RPCRetry(ctx, func() error {
		var err error
		height, err = client.BlockNumber(ctx)
		return err
	}, isRateLimitedError)
	return height, err
}

// RetryFilterLogs fetches logs matching query, retrying with exponential
// backoff while the error looks transient.
func RetryFilterLogs(ctx context.Context, client *ethclient.Client, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := retry.RPCRetry(ctx, func() error {
		var err error
		logs, err = client.FilterLogs(ctx, query)
		return err
	}, isRateLimitedError)
	return logs, err
}

// ErrChainUnreachable is returned when a chain's RPC endpoint could not be
// dialed at all (as opposed to an in-flight request failing).
var ErrChainUnreachable = errors.New("rpc: chain endpoint unreachable")
