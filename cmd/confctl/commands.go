package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pscheid92/scopeconf/internal/adapter/postgres"
	"github.com/pscheid92/scopeconf/internal/bootstrap"
	"github.com/pscheid92/scopeconf/internal/domain"
)

func newDefinitionsCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:     "definitions",
		Aliases: []string{"defs"},
		Short:   "List every configuration definition",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), load, false, func(a *bootstrap.App) error {
				return printDefinitions(cmd.OutOrStdout(), a.Service.Definitions())
			})
		},
	}
}

func printDefinitions(out io.Writer, defs []domain.Definition) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tTYPE\tSCOPED\tREQUIRED\tDEFAULT")
	for _, def := range defs {
		fallback := "-"
		if def.Default != nil {
			fallback = *def.Default
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n", def.Code, def.Type, def.Scoped, def.Required, fallback)
	}
	return w.Flush()
}

func newGetCmd(load configLoader) *cobra.Command {
	var (
		scope string
		own   bool
	)
	cmd := &cobra.Command{
		Use:   "get CODE",
		Short: "Print the effective value of a configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), load, false, func(a *bootstrap.App) error {
				var (
					value any
					err   error
				)
				if own {
					value, err = a.Service.GetScopeValue(cmd.Context(), args[0], scope)
				} else {
					value, err = a.Service.Get(cmd.Context(), args[0], scope)
				}
				if err != nil {
					return err
				}
				return printValue(cmd.OutOrStdout(), value)
			})
		},
	}
	addScopeFlag(cmd, &scope)
	cmd.Flags().BoolVar(&own, "own", false, "print only the value stored at the scope, without fallback")
	return cmd
}

func printValue(out io.Writer, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func newSetCmd(load configLoader) *cobra.Command {
	var (
		scope string
		null  bool
	)
	cmd := &cobra.Command{
		Use:   "set CODE [VALUE]",
		Short: "Store a value; passwords, secrets and files go through their dedicated flows",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			switch {
			case null:
				value = nil
			case len(args) == 2:
				value = args[1]
			default:
				return fmt.Errorf("VALUE is required unless --null is given")
			}

			return withApp(cmd.Context(), load, false, func(a *bootstrap.App) error {
				code := args[0]
				def, err := a.Service.Definition(code)
				if err != nil {
					return err
				}

				switch def.Type {
				case domain.TypePassword:
					err = a.Service.SetPassword(cmd.Context(), code, stringOrEmpty(value), scope)
				case domain.TypeEncrypted:
					err = a.Service.SetEncrypted(cmd.Context(), code, stringOrEmpty(value), scope)
				default:
					err = a.Service.Set(cmd.Context(), code, value, scope)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s updated at %s\n", code, scopeName(scope))
				return nil
			})
		},
	}
	addScopeFlag(cmd, &scope)
	cmd.Flags().BoolVar(&null, "null", false, "store an explicit null")
	return cmd
}

func stringOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}

func newDeleteCmd(load configLoader) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:     "delete CODE",
		Aliases: []string{"rm"},
		Short:   "Remove the value stored at a scope",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), load, false, func(a *bootstrap.App) error {
				if err := a.Service.Delete(cmd.Context(), args[0], scope); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s deleted at %s\n", args[0], scopeName(scope))
				return nil
			})
		},
	}
	addScopeFlag(cmd, &scope)
	return cmd
}

func newClearCacheCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the shared snapshot so every process reloads from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), load, false, func(a *bootstrap.App) error {
				if err := a.Service.ClearCache(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
				return nil
			})
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errNoDatabase
			}

			pool, err := postgres.Connect(cmd.Context(), cfg.DatabaseURL, nil)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := postgres.RunMigrationsWithLock(cmd.Context(), pool); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newOrphansCmd(load configLoader) *cobra.Command {
	var prune bool
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List stored values whose definition or scope no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), load, false, func(a *bootstrap.App) error {
				orphans, err := a.Reconciler.FindOrphans(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(orphans) == 0 {
					fmt.Fprintln(out, "no orphaned values")
					return nil
				}

				sort.Slice(orphans, func(i, j int) bool {
					if orphans[i].Value.Code != orphans[j].Value.Code {
						return orphans[i].Value.Code < orphans[j].Value.Code
					}
					return scopeName(deref(orphans[i].Value.Scope)) < scopeName(deref(orphans[j].Value.Scope))
				})

				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "CODE\tSCOPE\tREASON")
				for _, o := range orphans {
					fmt.Fprintf(w, "%s\t%s\t%s\n", o.Value.Code, scopeName(deref(o.Value.Scope)), o.Reason)
				}
				if err := w.Flush(); err != nil {
					return err
				}

				if !prune {
					return nil
				}
				removed, err := a.Reconciler.Prune(cmd.Context(), orphans)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "removed %d orphaned values\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&prune, "prune", false, "delete the orphaned values")
	return cmd
}

func scopeName(scope string) string {
	if domain.IsGlobalScope(scope) {
		return domain.GlobalScope
	}
	return scope
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
