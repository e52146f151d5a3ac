package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/democredit/internal/adapter/http/dto"
	postgresRepo "github.com/iho/democredit/internal/adapter/repository/postgres"
	"github.com/iho/democredit/internal/infrastructure/config"
	"github.com/iho/democredit/internal/infrastructure/logger"
	"github.com/iho/democredit/internal/infrastructure/postgres"
	"github.com/iho/democredit/internal/usecase"
)

func cliLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, cliLogger(cfg))
		},
	}, &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, cliLogger(cfg))
		},
	})

	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger integrity checks (reads the database directly)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that balances match entries and transfers net to zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				uc := usecase.NewLedgerUseCase(postgresRepo.NewLedgerRepository(pool))
				return checkConsistency(ctx, uc)
			})
		},
	}, &cobra.Command{
		Use:   "reconcile [accountNo]",
		Short: "Report balance drift for one account, or for the whole ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				uc := usecase.NewReconciliationUseCase(
					postgresRepo.NewAccountRepository(pool),
					postgresRepo.NewEntryRepository(pool),
					postgresRepo.NewLedgerRepository(pool),
				)
				return reconcile(ctx, uc, args)
			})
		},
	})

	return cmd
}

type consistencyChecker interface {
	CheckConsistency(ctx context.Context) (bool, error)
}

func checkConsistency(ctx context.Context, uc consistencyChecker) error {
	ok, err := uc.CheckConsistency(ctx)
	if errors.Is(err, usecase.ErrInconsistentLedger) {
		fmt.Println("Consistency check FAILED")
		return err
	}
	if err != nil {
		return fmt.Errorf("check consistency: %w", err)
	}

	fmt.Println("Consistency check PASSED")
	fmt.Printf("Consistent: %v\n", ok)
	return nil
}

type reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
	ReconcileAccount(ctx context.Context, accountNo string) (*usecase.ReconciliationResult, error)
}

func reconcile(ctx context.Context, uc reconciler, args []string) error {
	if len(args) == 1 {
		result, err := uc.ReconcileAccount(ctx, args[0])
		if err != nil {
			return err
		}
		printJSON(dto.DiscrepancyFromResult(result))
		return nil
	}

	report, err := uc.GenerateReconciliationReport(ctx)
	if err != nil {
		return err
	}
	printJSON(dto.ReconciliationFromReport(report))
	if !report.LedgerConsistent {
		return usecase.ErrInconsistentLedger
	}
	return nil
}

func withPool(ctx context.Context, fn func(context.Context, *pgxpool.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       2,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, pool)
}
