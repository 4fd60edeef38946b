package main

import (
	"context"
	"fmt"
	"os"

	"cif-onboarding/internal/adapters/persistence/repositories"
	"cif-onboarding/internal/config"
	"cif-onboarding/internal/core/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "onboardctl",
		Short:        "Operator tasks for the CIF onboarding database",
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(purgeCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads configuration from the environment and opens the database
func connect() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update every table",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			return config.Migrate(db)
		},
	}
}

func seedCmd() *cobra.Command {
	var optionsOnly bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert reference options and the first admin account",
		Long: `Upsert the reference option lists used by the onboarding forms.

Unless --options-only is given, an ADMIN account is also created from
SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD when it does not exist yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			ctx := cmd.Context()
			if optionsOnly {
				total, err := config.SeedMasterData(ctx, db)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d options\n", total)
				return nil
			}
			return config.NewSeeder(db, cfg.Seed).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&optionsOnly, "options-only", false, "seed reference options only")

	return cmd
}

func purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired refresh tokens and clear expired reset keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := connect()
			if err != nil {
				return err
			}
			defer config.CloseDatabase()

			svc := services.NewCronService(
				repositories.NewRefreshTokenRepository(db),
				repositories.NewAuthUserRepository(db),
				cfg.Cron.Schedule,
			)
			report, err := svc.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d refresh tokens, cleared %d reset keys\n",
				report.RefreshTokens, report.ResetKeys)
			return nil
		},
	}
}
