package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/routecard/internal/app"
	"github.com/yungbote/routecard/internal/domain"
	"github.com/yungbote/routecard/internal/hierarchy"
	"github.com/yungbote/routecard/internal/importer"
	"github.com/yungbote/routecard/internal/pkg/ctxutil"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "routecard",
		Short:         "Product structure and route card store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "routecard.yaml", "path to the YAML configuration file")
	root.AddCommand(
		newMigrateCmd(),
		newImportCmd(),
		newTreeCmd(),
		newWhereUsedCmd(),
		newReconcileCmd(),
		newRouteCardCmd(),
		newCacheStatsCmd(),
	)
	return root
}

// withApp builds the application for one command run and closes it after.
// The run id is attached to the command context so store logs and spans
// of one invocation can be told apart.
func withApp(cmd *cobra.Command, fn func(a *app.App) error) error {
	ctx := ctxutil.WithRunData(cmd.Context(), &ctxutil.RunData{RunID: uuid.NewString(), Command: cmd.Name()})
	cmd.SetContext(ctx)
	a, err := app.New(ctx, app.Options{ConfigPath: configPath, Out: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if !a.Cfg.AutoMigrate {
					if err := a.Migrate(cmd.Context()); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import product, document and composition batches (YAML or JSON)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batches := make([]*importer.Batch, 0, len(args))
			for _, path := range args {
				b, err := importer.ReadFile(path)
				if err != nil {
					return err
				}
				batches = append(batches, b)
			}
			return withApp(cmd, func(a *app.App) error {
				for i, b := range batches {
					rep, err := a.Services.Importer.Import(cmd.Context(), b)
					if err != nil {
						return fmt.Errorf("%s: %w", args[i], err)
					}
					fmt.Fprintf(cmd.OutOrStdout(),
						"%s: run %s: %d products, %d documents, %d parents (+%d ~%d -%d edges), %d primary applications, "+
							"%d references, %d defaults, %d operations (%d lines, %d resources)\n",
						args[i], rep.RunID, rep.Products, rep.Documents, rep.Parents,
						rep.Inserted, rep.Updated, rep.Deleted, rep.Primaries,
						rep.References, rep.Defaults, rep.Operations, rep.Lines, rep.Resources)
				}
				return nil
			})
		},
	}
}

func newTreeCmd() *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "tree DENOTATION",
		Short: "Print the composition of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				p, err := a.Services.Builder.ProductByDenotation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if flat {
					branches, err := a.Services.Hierarchy.Materialize(cmd.Context(), p, hierarchy.Descendants)
					if err != nil {
						return err
					}
					printBranches(cmd.OutOrStdout(), branches)
					return nil
				}
				root, err := a.Services.Hierarchy.Tree(cmd.Context(), p)
				if err != nil {
					return err
				}
				printTree(cmd.OutOrStdout(), root)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "print level-tagged branches instead of a nested tree")
	return cmd
}

func newWhereUsedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where-used DENOTATION",
		Short: "List every assembly a product is used in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				p, err := a.Services.Builder.ProductByDenotation(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				branches, err := a.Services.Hierarchy.WhereUsed(cmd.Context(), p)
				if err != nil {
					return err
				}
				printBranches(cmd.OutOrStdout(), branches)
				return nil
			})
		},
	}
}

func newReconcileCmd() *cobra.Command {
	var (
		children []string
		section  string
	)
	cmd := &cobra.Command{
		Use:   "reconcile PARENT --child DENOTATION=QTY[:UNIT]...",
		Short: "Replace the children of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				ctx := cmd.Context()
				parent, err := a.Services.Builder.ProductByDenotation(ctx, args[0])
				if err != nil {
					return err
				}
				targets := make([]hierarchy.Target, 0, len(children))
				for _, spec := range children {
					denotation, qty, unit, err := parseChild(spec)
					if err != nil {
						return err
					}
					child, err := a.Services.Builder.ProductByDenotation(ctx, denotation)
					if err != nil {
						return err
					}
					targets = append(targets, hierarchy.Target{ProductID: child.ID(), Section: section, Quantity: qty, Unit: unit})
				}
				res, err := a.Services.Hierarchy.Reconcile(ctx, parent.ID(), targets)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d inserted, %d updated, %d kept, %d deleted\n",
					parent.Denotation(), res.Inserted, res.Updated, res.Kept, res.Deleted)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&children, "child", nil, "child as DENOTATION=QTY[:UNIT]; repeat for every child")
	cmd.Flags().StringVar(&section, "section", domain.SectionParts, "specification section of the children")
	return cmd
}

// parseChild splits "DENOTATION=QTY[:UNIT]".
func parseChild(spec string) (string, float64, string, error) {
	denotation, rest, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(denotation) == "" {
		return "", 0, "", fmt.Errorf("child %q: want DENOTATION=QTY[:UNIT]", spec)
	}
	qtyText, unit, _ := strings.Cut(rest, ":")
	qty, err := strconv.ParseFloat(strings.TrimSpace(qtyText), 64)
	if err != nil || qty < 0 {
		return "", 0, "", fmt.Errorf("child %q: bad quantity %q", spec, qtyText)
	}
	return strings.TrimSpace(denotation), qty, strings.TrimSpace(unit), nil
}

func newRouteCardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route-card DENOTATION",
		Short: "Print the route cards attached to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.App) error {
				ctx := cmd.Context()
				p, err := a.Services.Builder.ProductByDenotation(ctx, args[0])
				if err != nil {
					return err
				}
				docs, err := p.DocumentsByType(ctx, domain.ClassTechnology, "route_card", true)
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s has no route card\n", p.Denotation())
					return nil
				}
				for _, d := range docs {
					card, err := a.Services.Builder.RouteCard(ctx, p, d)
					if err != nil {
						return err
					}
					printRouteCard(ctx, cmd.OutOrStdout(), card)
				}
				return nil
			})
		},
	}
}

func newCacheStatsCmd() *cobra.Command {
	var load bool
	cmd := &cobra.Command{
		Use:   "cache-stats",
		Short: "Show how many rows of each kind are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(a *app.App) error {
				if load {
					if err := a.Gateway.ReloadAll(cmd.Context()); err != nil {
						return err
					}
				}
				printStats(cmd.OutOrStdout(), a.Repos.Stats(), a.Services.Builder.Live())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&load, "load", false, "load every kind into the cache first")
	return cmd
}
