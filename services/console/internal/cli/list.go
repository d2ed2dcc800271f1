package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/console/internal/render"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every observation, most recent first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st db.Store) error {
				rows, err := st.List(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list observations", err)
				}

				out := rootOpts.formatter(cmd)
				if out.JSON() {
					return out.Success(nonNil(rows))
				}
				render.Observations(out.Writer, rows)
				return nil
			})
		},
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Find observations whose village contains text (case-insensitive)",
		Example: `  healthctl search green
  healthctl search "green valley" --format json`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st db.Store) error {
				rows, err := st.SearchVillage(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to search observations", err)
				}

				out := rootOpts.formatter(cmd)
				if out.JSON() {
					return out.Success(nonNil(rows))
				}
				render.SearchResults(out.Writer, args[0], rows)
				return nil
			})
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals, mean case counts and the risk distribution",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st db.Store) error {
				stats, err := st.Statistics(ctx)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to compute statistics", err)
				}

				out := rootOpts.formatter(cmd)
				if out.JSON() {
					return out.Success(stats)
				}
				render.Statistics(out.Writer, stats)
				return nil
			})
		},
	}
}

// nonNil keeps empty results encoding as [] rather than being dropped.
func nonNil(rows []db.Observation) []db.Observation {
	if rows == nil {
		return []db.Observation{}
	}
	return rows
}
