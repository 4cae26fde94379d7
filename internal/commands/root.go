// Package commands implements the ledgerctl administration CLI.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"lifeledger/internal/auth"
	"lifeledger/internal/backend"
	"lifeledger/internal/cli"
	"lifeledger/internal/config"
	"lifeledger/internal/log"
)

// env is what every subcommand needs. Tests swap the loaders for in-memory ones.
type env struct {
	loadConfig  func() (*config.Config, error)
	openBackend func(ctx context.Context, cfg *config.Config) (backend.Backend, func() error, error)
}

func defaultEnv() *env {
	return &env{
		loadConfig: func() (*config.Config, error) {
			cli.LoadEnvFile()
			return cli.LoadConfig()
		},
		openBackend: func(ctx context.Context, cfg *config.Config) (backend.Backend, func() error, error) {
			logger := cli.SetupLogger(cfg, log.ComponentCLI)
			result, err := cli.OpenBackend(ctx, logger, cfg, false)
			if err != nil {
				return nil, nil, err
			}
			return result.Backend, result.Close, nil
		},
	}
}

// withBackend loads config, opens the ledger and runs fn against it.
func (e *env) withBackend(ctx context.Context, fn func(cfg *config.Config, b backend.Backend) error) error {
	cfg, err := e.loadConfig()
	if err != nil {
		return err
	}
	b, closeFn, err := e.openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cfg, b)
}

func issuerFor(cfg *config.Config) *auth.Issuer {
	return auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultEnv())
}

func newRootCommand(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Administer a lifeledger database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(e),
		newUserCommand(e),
		newTokenCommand(e),
		newStatsCommand(e),
	)

	return rootCmd
}
