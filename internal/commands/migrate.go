package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"lifeledger/internal/backend"
	"lifeledger/internal/config"
	"lifeledger/internal/storage"
)

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a SQL backend applies pending migrations.
			return e.withBackend(cmd.Context(), func(cfg *config.Config, _ backend.Backend) error {
				d, dsn, ok := migrationTarget(cfg)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "backend %q has no schema\n", cfg.DataBackend)
					return nil
				}
				version, dirty, err := storage.MigrationVersion(d, dsn)
				if err != nil {
					return fmt.Errorf("reading schema version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d (dirty: %t)\n", d.Name, version, dirty)
				return nil
			})
		},
	}
}

func migrationTarget(cfg *config.Config) (storage.Dialect, string, bool) {
	switch backend.BackendType(cfg.DataBackend) {
	case backend.SQLiteBackend:
		return storage.SQLite, storage.SQLiteDSN(cfg.SQLiteDBPath), true
	case backend.PostgresBackend:
		return storage.Postgres, cfg.DatabaseURL, true
	default:
		return storage.Dialect{}, "", false
	}
}
