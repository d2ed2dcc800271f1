package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Village  string
	Diarrhea int
	Fever    int
	Rainfall string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an observation; the risk tier and date are computed",
		Example: `  healthctl add --village Greenfield --diarrhea 12 --fever 5 --rainfall High`,
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Village, "village", "", "village name (required)")
	_ = cmd.MarkFlagRequired("village")
	cmd.Flags().IntVar(&opts.Diarrhea, "diarrhea", 0, "number of diarrhea cases")
	cmd.Flags().IntVar(&opts.Fever, "fever", 0, "number of fever cases")
	cmd.Flags().StringVar(&opts.Rainfall, "rainfall", string(risk.RainfallLow), "rainfall level (Low|Medium|High)")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	in, err := opts.toNewObservation()
	if err != nil {
		return err
	}

	return opts.withStore(cmd, func(ctx context.Context, st db.Store) error {
		obs, err := st.Create(ctx, in)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to add record", err)
		}

		out := opts.formatter(cmd)
		if out.JSON() {
			return out.Success(obs)
		}
		fmt.Fprintf(out.Writer, "Record %d added successfully!\n   Risk Level: %s\n", obs.ID, obs.Risk)
		return nil
	})
}

func (o *AddOptions) toNewObservation() (db.NewObservation, error) {
	village := strings.TrimSpace(o.Village)
	if village == "" {
		return db.NewObservation{}, NewExitError(ExitCommandError, "village is required")
	}
	if o.Diarrhea < 0 || o.Fever < 0 {
		return db.NewObservation{}, NewExitError(ExitCommandError, "case counts must not be negative")
	}
	rainfall, err := risk.ParseRainfall(o.Rainfall)
	if err != nil {
		return db.NewObservation{}, WrapExitError(ExitCommandError, "invalid rainfall", err)
	}
	return db.NewObservation{Village: village, Diarrhea: o.Diarrhea, Fever: o.Fever, Rainfall: rainfall}, nil
}
