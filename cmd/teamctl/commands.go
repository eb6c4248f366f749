package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"binoqule/internal/team/models"
)

// teamService is the part of the team service the CLI drives.
type teamService interface {
	List(ctx context.Context) (*models.Roster, error)
	Move(ctx context.Context, cmd models.MoveCommand) (*models.Roster, error)
	Reorder(ctx context.Context, ids []string) (*models.Roster, error)
	Repair(ctx context.Context) (*models.Roster, error)
}

type serviceOpener func(ctx context.Context) (teamService, func(), error)

func newRootCmd(open serviceOpener) *cobra.Command {
	var asJSON bool

	root := &cobra.Command{
		Use:   "teamctl",
		Short: "Inspect and repair the team member order",
		Long: `teamctl reads BINOQULE_* environment variables to reach the team store.

Available subcommands:
  list    - Show the team in stored order
  move    - Swap a member with its neighbour
  reorder - Rewrite the order to the given ids
  repair  - Renumber stored positions to 0..N-1`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "print the team as JSON")

	// withService opens the service for one command and prints the roster it returns.
	withService := func(fn func(ctx context.Context, svc teamService) (*models.Roster, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cleanup, err := open(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			roster, err := fn(ctx, svc)
			if err != nil {
				return err
			}
			return printRoster(cmd.OutOrStdout(), roster, asJSON)
		}
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show the team in stored order",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc teamService) (*models.Roster, error) {
			return svc.List(ctx)
		}),
	}

	var expectedID string
	moveCmd := &cobra.Command{
		Use:   "move up|down <index>",
		Short: "Swap the member at index with its neighbour",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			direction, err := models.ParseDirection(args[0])
			if err != nil {
				return err
			}
			index, err := strconv.Atoi(args[1])
			if err != nil || index < 0 {
				return fmt.Errorf("index must be a non-negative integer, got %q", args[1])
			}
			return withService(func(ctx context.Context, svc teamService) (*models.Roster, error) {
				return svc.Move(ctx, models.MoveCommand{Index: index, Direction: direction, ExpectedID: expectedID})
			})(cmd, args)
		},
	}
	moveCmd.Flags().StringVar(&expectedID, "expect", "", "refuse the move unless this member id is at index")

	reorderCmd := &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Rewrite the order so the given ids hold positions 0..N-1",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc teamService) (*models.Roster, error) {
				return svc.Reorder(ctx, args)
			})(cmd, args)
		},
	}

	repairCmd := &cobra.Command{
		Use:   "repair",
		Short: "Renumber stored positions to 0..N-1 keeping their order",
		Args:  cobra.NoArgs,
		RunE: withService(func(ctx context.Context, svc teamService) (*models.Roster, error) {
			return svc.Repair(ctx)
		}),
	}

	root.AddCommand(listCmd, moveCmd, reorderCmd, repairCmd)
	return root
}

func printRoster(w io.Writer, roster *models.Roster, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(roster)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tID\tNAME\tROLE")
	for _, m := range roster.Members {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Position, m.ID, m.Name, m.Role)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if !roster.Consistent {
		fmt.Fprintln(w, "warning: positions are not 0..N-1, run `teamctl repair`")
	}
	return nil
}
