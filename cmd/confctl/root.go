package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pscheid92/scopeconf/internal/bootstrap"
	"github.com/pscheid92/scopeconf/internal/platform/config"
	"github.com/pscheid92/scopeconf/internal/platform/version"
)

type configLoader func() (*config.Config, error)

func newRootCmd(load configLoader) *cobra.Command {
	root := &cobra.Command{
		Use:           "confctl",
		Short:         "Inspect and edit scoped configuration values",
		Long:          `confctl reads the same environment as the server (DATABASE_URL, REDIS_URL, SCHEMA_PATH, ...) and operates on the shared store directly.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
	}

	root.AddCommand(
		newDefinitionsCmd(load),
		newGetCmd(load),
		newSetCmd(load),
		newDeleteCmd(load),
		newClearCacheCmd(load),
		newMigrateCmd(load),
		newOrphansCmd(load),
		newVersionCmd(),
	)
	return root
}

// withApp builds the store for the duration of a single command.
func withApp(ctx context.Context, load configLoader, migrate bool, fn func(*bootstrap.App) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}

	a, err := bootstrap.Build(ctx, cfg, bootstrap.Options{Migrate: migrate})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func addScopeFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "scope", "s", "", "scope code (default: global)")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}

var errNoDatabase = errors.New("DATABASE_URL is not set")
