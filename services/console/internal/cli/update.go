package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	Village  string
	Diarrhea int
	Fever    int
	Rainfall string
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an observation and recompute its risk tier",
		Long: `Change fields of an observation. Only flags given on the command line are
applied; the risk tier is recomputed from the merged record.`,
		Example: `  healthctl update 4 --diarrhea 12
  healthctl update 4 --village "Green Valley" --rainfall High`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Village, "village", "", "new village name")
	cmd.Flags().IntVar(&opts.Diarrhea, "diarrhea", 0, "new number of diarrhea cases")
	cmd.Flags().IntVar(&opts.Fever, "fever", 0, "new number of fever cases")
	cmd.Flags().StringVar(&opts.Rainfall, "rainfall", "", "new rainfall level (Low|Medium|High)")

	return cmd
}

func runUpdate(opts *UpdateOptions, cmd *cobra.Command, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	patch, err := opts.patch(cmd)
	if err != nil {
		return err
	}
	if patch.Empty() {
		return NewExitError(ExitCommandError, "nothing to update: pass at least one of --village, --diarrhea, --fever, --rainfall")
	}

	return opts.withStore(cmd, func(ctx context.Context, st db.Store) error {
		obs, err := st.Update(ctx, id, patch)
		if errors.Is(err, db.ErrNotFound) {
			return NewExitError(ExitFailure, fmt.Sprintf("No record found with ID %d", id))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to update record", err)
		}

		out := opts.formatter(cmd)
		if out.JSON() {
			return out.Success(obs)
		}
		fmt.Fprintf(out.Writer, "Record %d updated successfully!\n   New Risk Level: %s\n", obs.ID, obs.Risk)
		return nil
	})
}

// patch collects only the flags set on the command line.
func (o *UpdateOptions) patch(cmd *cobra.Command) (db.ObservationPatch, error) {
	var p db.ObservationPatch
	flags := cmd.Flags()

	if flags.Changed("village") {
		village := strings.TrimSpace(o.Village)
		if village == "" {
			return p, NewExitError(ExitCommandError, "village must not be blank")
		}
		p.Village = &village
	}
	if flags.Changed("diarrhea") {
		if o.Diarrhea < 0 {
			return p, NewExitError(ExitCommandError, "diarrhea must not be negative")
		}
		p.Diarrhea = &o.Diarrhea
	}
	if flags.Changed("fever") {
		if o.Fever < 0 {
			return p, NewExitError(ExitCommandError, "fever must not be negative")
		}
		p.Fever = &o.Fever
	}
	if flags.Changed("rainfall") {
		rainfall, err := risk.ParseRainfall(o.Rainfall)
		if err != nil {
			return p, WrapExitError(ExitCommandError, "invalid rainfall", err)
		}
		p.Rainfall = &rainfall
	}
	return p, nil
}
