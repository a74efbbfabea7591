package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/afterlife-xyz/afterlife/config"
	"github.com/afterlife-xyz/afterlife/indexer"
	"github.com/afterlife-xyz/afterlife/service/logger"
	"github.com/afterlife-xyz/afterlife/service/persist"
	"github.com/afterlife-xyz/afterlife/service/persist/postgres"
	"github.com/afterlife-xyz/afterlife/service/rpc"
)

var quietLogs bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietLogs, "quiet", "q", false, "hide debug logs")
}

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Track NFT ownership across every configured chain",
	Long:  `A multi-chain NFT ownership indexer: reconciles ERC-721 and ERC-1155 transfer logs into a Postgres event log.`,
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

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		pool := postgres.MustCreatePool(ctx, postgres.WithAppName("indexer"))
		defer pool.Close()

		migrationsDir := postgres.MigrationsDir(ctx)
		if err := postgres.RunMigrations(ctx, migrationsDir); err != nil {
			logger.For(ctx).WithError(err).Fatal("could not run migrations")
		}

		contractRepo := postgres.NewContractRepository(pool)
		eventRepo := postgres.NewEventRepository(pool)

		chains := make([]persist.Chain, 0, len(idxCfg.Chains))
		for _, chainCfg := range idxCfg.Chains {
			chain := chainCfg.Chain()
			chains = append(chains, chain)

			for _, contractCfg := range chainCfg.Contracts {
				contract := persist.Contract{
					ChainID:    chain.ID,
					Address:    persist.Address(contractCfg.Address),
					Name:       contractCfg.Name,
					Type:       persist.ContractType(contractCfg.Type),
					StartBlock: persist.BlockNumber(contractCfg.StartBlock),
				}
				if _, err := contractRepo.Upsert(ctx, contract); err != nil {
					logger.For(ctx).WithError(err).Fatalf("could not register contract %s on chain %s", contract.Address, chain.Name)
				}
			}
		}

		clients := rpc.NewClientSet()
		reconciler := indexer.NewReconciler(clients, contractRepo, eventRepo)

		logger.For(ctx).Infof("indexer starting, tracking %d chain(s)", len(chains))
		reconciler.Run(ctx, chains)
		logger.For(ctx).Info("indexer shutting down")
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
