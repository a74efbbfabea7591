// Package postgres implements the persist repositories against a single
// Postgres database, reached through a pgxpool connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/viper"

	"github.com/afterlife-xyz/afterlife/env"
	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/util/retry"
)

// DefaultConnectRetry retries an initial connection 3 times, since the
// database (often a sidecar proxy) can still be starting up when the
// indexer or API process does.
var DefaultConnectRetry = retry.Retry{MinWait: 2, MaxWait: 4, MaxRetries: 3}

type connectionParams struct {
	user     string
	password string
	dbname   string
	host     string
	port     int
	appname  string
	retry    *retry.Retry
}

func (c *connectionParams) toConnectionString() string {
	port := c.port
	if port == 0 {
		port = 5432
	}

	connStr := fmt.Sprintf("user=%s dbname=%s host=%s port=%d", c.user, c.dbname, c.host, port)
	if c.password != "" {
		connStr += fmt.Sprintf(" password=%s", c.password)
	}
	return connStr
}

func newConnectionParamsFromEnv(ctx context.Context) connectionParams {
	return connectionParams{
		user:     env.Get[string](ctx, "AFTERLIFE_DATABASE_USER"),
		password: env.Get[string](ctx, "AFTERLIFE_DATABASE_PASSWORD"),
		dbname:   env.Get[string](ctx, "AFTERLIFE_DATABASE_DBNAME"),
		host:     env.Get[string](ctx, "AFTERLIFE_DATABASE_HOST"),
		port:     viper.GetInt("AFTERLIFE_DATABASE_PORT"),
		retry:    &DefaultConnectRetry,
	}
}

// ConnectionOption overrides a field normally pulled from the environment,
// mainly for tests that point at a throwaway database.
type ConnectionOption func(params *connectionParams)

func WithDBName(dbname string) ConnectionOption {
	return func(params *connectionParams) { params.dbname = dbname }
}

func WithAppName(appName string) ConnectionOption {
	return func(params *connectionParams) { params.appname = appName }
}

func WithNoRetries() ConnectionOption {
	return func(params *connectionParams) { params.retry = nil }
}

// MustCreatePool connects to Postgres and panics on failure.
func MustCreatePool(ctx context.Context, opts ...ConnectionOption) *pgxpool.Pool {
	pool, err := NewPool(ctx, opts...)
	if err != nil {
		panic(err)
	}
	return pool
}

// NewPool opens a pgxpool.Pool, retrying the initial connection according
// to params.retry (3 retries, so up to 4 attempts, by default).
func NewPool(ctx context.Context, opts ...ConnectionOption) (*pgxpool.Pool, error) {
	params := newConnectionParamsFromEnv(ctx)
	for _, opt := range opts {
		opt(&params)
	}

	config, err := pgxpool.ParseConfig(params.toConnectionString())
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}
	if params.appname != "" {
		config.ConnConfig.RuntimeParams["application_name"] = params.appname
	}
	config.MaxConns = 20

	var pool *pgxpool.Pool
	connectF := func(ctx context.Context) error {
		var err error
		pool, err = pgxpool.ConnectConfig(ctx, config)
		return err
	}

	if params.retry != nil {
		if err := retry.RetryFunc(ctx, connectF, func(error) bool { return true }, *params.retry); err != nil {
			return nil, err
		}
	} else if err := connectF(ctx); err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	logger.For(ctx).Info("postgres: connection pool established")
	return pool, nil
}
