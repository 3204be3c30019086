package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/questmon/internal/config"
	"github.com/cory-johannsen/questmon/internal/storage/postgres"
)

func newGrantStarsCmd() *cobra.Command {
	var (
		configPath  string
		user        string
		amount      int
		description string
	)
	cmd := &cobra.Command{
		Use:   "grant-stars",
		Short: "Credit stars to a player directly in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", user, err)
			}
			if amount < 1 {
				return fmt.Errorf("--amount must be >= 1, got %d", amount)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Tower.Store != config.StorePostgres {
				return fmt.Errorf("grant-stars needs tower.store %q, config has %q", config.StorePostgres, cfg.Tower.Store)
			}

			ctx := cmd.Context()
			pool, err := postgres.NewPool(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer pool.Close()

			stars := postgres.NewStarRepository(pool.DB())
			if err := stars.Earn(ctx, userID, amount, description); err != nil {
				return err
			}
			balance, err := stars.Balance(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %d stars to %s, balance %d\n", amount, userID, balance)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "configs/dev.yaml", "path to configuration file")
	cmd.Flags().StringVar(&user, "user", "", "player user id (UUID)")
	cmd.Flags().IntVar(&amount, "amount", 0, "stars to credit")
	cmd.Flags().StringVar(&description, "description", "operator grant", "ledger description")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
