package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
	"github.com/02loveslollipop/village-health-surveillance/services/console/internal/render"
)

// NewMenuCommand creates the interactive menu command.
func NewMenuCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu over all store operations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, func(ctx context.Context, st db.Store) error {
				m := &menu{store: st, prompt: newPrompter(cmd), out: cmd.OutOrStdout()}
				return m.run(ctx)
			})
		},
	}
}

// errInvalidInput aborts the current menu action without leaving the menu.
var errInvalidInput = errors.New("invalid input")

type menu struct {
	store  db.Store
	prompt *prompter
	out    io.Writer
}

// run loops until the user exits or input ends. Failures of a single action
// are reported and the menu continues.
func (m *menu) run(ctx context.Context) error {
	for {
		fmt.Fprintln(m.out)
		render.Menu(m.out)
		choice, err := m.prompt.ask("Enter your choice (1-8): ")
		if err != nil {
			return endOfInput(err)
		}

		var actionErr error
		switch choice {
		case "1":
			actionErr = m.viewAll(ctx)
		case "2":
			actionErr = m.add(ctx)
		case "3":
			actionErr = m.update(ctx)
		case "4":
			actionErr = m.delete(ctx)
		case "5":
			actionErr = m.deleteAll(ctx)
		case "6":
			actionErr = m.search(ctx)
		case "7":
			actionErr = m.statistics(ctx)
		case "8":
			fmt.Fprintln(m.out, "\nGoodbye!")
			return nil
		default:
			fmt.Fprintln(m.out, "\nInvalid choice! Please enter 1-8.")
		}

		switch {
		case errors.Is(actionErr, io.EOF):
			return nil
		case errors.Is(actionErr, errInvalidInput):
			fmt.Fprintln(m.out, "\nInvalid input!")
		case actionErr != nil:
			fmt.Fprintf(m.out, "\nError: %v\n", actionErr)
		}

		if _, err := m.prompt.ask("\nPress Enter to continue..."); err != nil {
			return endOfInput(err)
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return WrapExitError(ExitCommandError, "failed to read input", err)
}

func (m *menu) viewAll(ctx context.Context) error {
	rows, err := m.store.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out)
	render.Observations(m.out, rows)
	return nil
}

func (m *menu) add(ctx context.Context) error {
	fmt.Fprintln(m.out)
	render.Heading(m.out, "ADD NEW RECORD")

	village, err := m.prompt.ask("Village Name: ")
	if err != nil {
		return err
	}
	if village == "" {
		return errInvalidInput
	}
	diarrhea, err := m.askCount("Number of Diarrhea Cases: ")
	if err != nil {
		return err
	}
	fever, err := m.askCount("Number of Fever Cases: ")
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Rainfall Level: 1) Low  2) Medium  3) High")
	choice, err := m.prompt.ask("Choose (1-3): ")
	if err != nil {
		return err
	}

	obs, err := m.store.Create(ctx, db.NewObservation{
		Village:  village,
		Diarrhea: diarrhea,
		Fever:    fever,
		Rainfall: risk.RainfallFromChoice(choice, risk.RainfallLow),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\nRecord %d added successfully!\n   Risk Level: %s\n", obs.ID, obs.Risk)
	return nil
}

func (m *menu) update(ctx context.Context) error {
	if err := m.viewAll(ctx); err != nil {
		return err
	}
	id, err := m.askID("\nEnter ID of record to update: ")
	if err != nil {
		return err
	}

	current, err := m.store.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		fmt.Fprintf(m.out, "\nNo record found with ID %d\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(m.out, "\nCurrent Record:")
	render.Record(m.out, current)
	fmt.Fprintln(m.out, "\nEnter new values (press Enter to keep current value):")

	var patch db.ObservationPatch
	village, err := m.prompt.ask(fmt.Sprintf("Village [%s]: ", current.Village))
	if err != nil {
		return err
	}
	if village != "" {
		patch.Village = &village
	}
	if patch.Diarrhea, err = m.askOptionalCount(fmt.Sprintf("Diarrhea Cases [%d]: ", current.Diarrhea)); err != nil {
		return err
	}
	if patch.Fever, err = m.askOptionalCount(fmt.Sprintf("Fever Cases [%d]: ", current.Fever)); err != nil {
		return err
	}
	choice, err := m.prompt.ask(fmt.Sprintf("Rainfall (1=Low, 2=Medium, 3=High) [%s]: ", current.Rainfall))
	if err != nil {
		return err
	}
	if rainfall := risk.RainfallFromChoice(choice, current.Rainfall); rainfall != current.Rainfall {
		patch.Rainfall = &rainfall
	}

	updated, err := m.store.Update(ctx, id, patch)
	if errors.Is(err, db.ErrNotFound) {
		fmt.Fprintf(m.out, "\nNo record found with ID %d\n", id)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\nRecord updated successfully!\n   New Risk Level: %s\n", updated.Risk)
	return nil
}

func (m *menu) delete(ctx context.Context) error {
	if err := m.viewAll(ctx); err != nil {
		return err
	}
	id, err := m.askID("\nEnter ID of record to delete: ")
	if err != nil {
		return err
	}

	answer, err := m.prompt.ask(fmt.Sprintf("Are you sure you want to delete record %d? (yes/no): ", id))
	if err != nil {
		return err
	}
	if strings.ToLower(answer) != "yes" {
		fmt.Fprintln(m.out, "\nDeletion cancelled.")
		return nil
	}

	deleted, err := m.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintf(m.out, "\nNo record found with ID %d\n", id)
		return nil
	}
	fmt.Fprintf(m.out, "\nRecord %d deleted successfully!\n", id)
	return nil
}

func (m *menu) deleteAll(ctx context.Context) error {
	answer, err := m.prompt.ask("\nWARNING: This will delete ALL records! Type 'DELETE ALL' to confirm: ")
	if err != nil {
		return err
	}
	if answer != deleteAllPhrase {
		fmt.Fprintln(m.out, "\nDeletion cancelled.")
		return nil
	}

	n, err := m.store.DeleteAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\nAll data deleted! (%d records removed)\n", n)
	return nil
}

func (m *menu) search(ctx context.Context) error {
	text, err := m.prompt.ask("\nEnter village name to search: ")
	if err != nil {
		return err
	}
	rows, err := m.store.SearchVillage(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out)
	render.SearchResults(m.out, text, rows)
	return nil
}

func (m *menu) statistics(ctx context.Context) error {
	stats, err := m.store.Statistics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out)
	render.Statistics(m.out, stats)
	return nil
}

func (m *menu) askID(label string) (int64, error) {
	answer, err := m.prompt.ask(label)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(answer, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidInput
	}
	return id, nil
}

// askCount reads a non-negative whole number.
func (m *menu) askCount(label string) (int, error) {
	answer, err := m.prompt.ask(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 0 {
		return 0, errInvalidInput
	}
	return n, nil
}

// askOptionalCount is askCount where a blank answer means "keep".
func (m *menu) askOptionalCount(label string) (*int, error) {
	answer, err := m.prompt.ask(label)
	if err != nil || answer == "" {
		return nil, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 0 {
		return nil, errInvalidInput
	}
	return &n, nil
}
