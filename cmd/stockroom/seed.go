package main

import (
	"errors"

	"github.com/spf13/cobra"

	"stockroom/internal/logger"
	pgstore "stockroom/internal/store/postgres"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the seed data set to collections that do not exist yet",
	Long: `Write the built-in seed records to every collection that has never
been saved. Existing collections are left untouched, so the command is
safe to run repeatedly.`,
	RunE: runSeed,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	Long:  `Apply the embedded goose migrations. Requires STORE_BACKEND=postgres.`,
	RunE:  runMigrate,
}

func runSeed(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("seed")
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	written, err := a.service.Seed(cmd.Context())
	if err != nil {
		return err
	}
	log.Info().
		Strs("collections", written).
		Int("count", len(written)).
		Msg("seed complete")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	log := logger.WithComponent("migrate")
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	backend, closers, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	a := &app{backend: backend, closers: closers}
	defer a.Close()

	pg, ok := backend.(*pgstore.Store)
	if !ok {
		return errors.New("migrate requires STORE_BACKEND=postgres")
	}
	if err := pg.Migrate(cmd.Context()); err != nil {
		return err
	}
	log.Info().Msg("migrations applied")
	return nil
}
