package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/afterlife-xyz/afterlife/api"
	"github.com/afterlife-xyz/afterlife/config"
	"github.com/afterlife-xyz/afterlife/service/leaderboard"
	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/service/persist/postgres"
	"github.com/afterlife-xyz/afterlife/service/query"
)

var quietLogs bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietLogs, "quiet", "q", false, "hide debug logs")
}

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve wallet, collection and leaderboard lookups over HTTP",
	Long:  `The read-only HTTP surface over the indexer's reconciled event log: collection and ownership lookups, username resolution, and a periodically refreshed leaderboard.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger.InitWithGCPDefaults()
		if quietLogs {
			logger.SetLoggerOptions(func(l *logrus.Logger) { l.SetLevel(logrus.InfoLevel) })
		}

		appCfg := config.LoadConfig()
		if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
			if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: appCfg.AppEnv}); err != nil {
				logger.For(nil).WithError(err).Error("could not init sentry")
			}
		}

		idxCfg, err := config.LoadIndexerConfig()
		if err != nil {
			logger.For(nil).WithError(err).Fatal("could not load chain config")
		}

		users, err := persist.LoadUsersData(appCfg.UsersFilePath)
		if err != nil {
			logger.For(nil).WithError(err).Fatal("could not load users file")
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		pool := postgres.MustCreatePool(ctx, postgres.WithAppName("api"))
		defer pool.Close()

		contractRepo := postgres.NewContractRepository(pool)
		eventRepo := postgres.NewEventRepository(pool)

		chains := make([]persist.Chain, 0, len(idxCfg.Chains))
		for _, chainCfg := range idxCfg.Chains {
			chains = append(chains, chainCfg.Chain())
		}

		facade := query.NewFacade(contractRepo, eventRepo, chains, appCfg.RaritiesPath, appCfg.MetadataPath, users)

		cache := leaderboard.NewCache()
		refresher := leaderboard.NewRefresher(cache, contractRepo, eventRepo, chains, appCfg.RaritiesPath, users, appCfg.LeaderboardDenylist)
		go refresher.Run(ctx)

		server := api.NewServer(appCfg.Port, facade, cache)
		if err := server.Run(ctx); err != nil {
			logger.For(ctx).WithError(err).Fatal("api server stopped")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
