package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
)

// deleteAllPhrase must be typed verbatim to wipe the store.
const deleteAllPhrase = "DELETE ALL"

// DeleteOptions holds flags for the delete command.
type DeleteOptions struct {
	*RootOptions
	Yes bool
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one observation",
		Long: `Delete one observation. Without --yes the command asks for confirmation
and only proceeds on "yes".`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, cmd, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func runDelete(opts *DeleteOptions, cmd *cobra.Command, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	if !opts.Yes {
		answer, err := newPrompter(cmd).ask(fmt.Sprintf("Are you sure you want to delete record %d? (yes/no): ", id))
		if err != nil || strings.ToLower(answer) != "yes" {
			return NewExitError(ExitFailure, "Deletion cancelled.")
		}
	}

	return opts.withStore(cmd, func(ctx context.Context, st db.Store) error {
		deleted, err := st.Delete(ctx, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to delete record", err)
		}
		if !deleted {
			return NewExitError(ExitFailure, fmt.Sprintf("No record found with ID %d", id))
		}

		out := opts.formatter(cmd)
		if out.JSON() {
			return out.Success(map[string]any{"id": id, "deleted": true})
		}
		fmt.Fprintf(out.Writer, "Record %d deleted successfully!\n", id)
		return nil
	})
}

// DeleteAllOptions holds flags for the delete-all command.
type DeleteAllOptions struct {
	*RootOptions
	Confirm string
}

// NewDeleteAllCommand creates the delete-all command.
func NewDeleteAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DeleteAllOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete-all",
		Short: "Delete every observation",
		Long: `Delete every observation. The phrase "DELETE ALL" must be typed at the
prompt or passed with --confirm.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeleteAll(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Confirm, "confirm", "", `confirmation phrase ("DELETE ALL")`)

	return cmd
}

func runDeleteAll(opts *DeleteAllOptions, cmd *cobra.Command) error {
	phrase := opts.Confirm
	if !cmd.Flags().Changed("confirm") {
		answer, err := newPrompter(cmd).ask("WARNING: This will delete ALL records! Type 'DELETE ALL' to confirm: ")
		if err != nil {
			return NewExitError(ExitFailure, "Deletion cancelled.")
		}
		phrase = answer
	}
	if phrase != deleteAllPhrase {
		return NewExitError(ExitFailure, "Deletion cancelled.")
	}

	return opts.withStore(cmd, func(ctx context.Context, st db.Store) error {
		n, err := st.DeleteAll(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to delete records", err)
		}

		out := opts.formatter(cmd)
		if out.JSON() {
			return out.Success(map[string]any{"deleted": n})
		}
		fmt.Fprintf(out.Writer, "All data deleted! (%d records removed)\n", n)
		return nil
	})
}
