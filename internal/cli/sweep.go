package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/maintd/internal/wire"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run escalation sweeps by hand",
}

var sweepRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Escalate every overdue request once",
	Long: `Run a single sweep. --at evaluates ages as of the given RFC3339 time
instead of now, which is useful for replaying a missed window.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := sweepTime(cmd)
		if err != nil {
			return err
		}
		return wire.EscalationAdapter().Sweep(NewContext(), at)
	},
}

var sweepEscalateCmd = &cobra.Command{
	Use:   "escalate [request-id]",
	Short: "Escalate one request immediately, ignoring its age",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.EscalationAdapter().Escalate(NewContext(), args[0], wire.Clock().Now())
	},
}

var sweepLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the report of the most recent sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.EscalationAdapter().Last(NewContext())
	},
}

func sweepTime(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("at")
	if raw == "" {
		return wire.Clock().Now(), nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", raw, err)
	}
	return at.UTC(), nil
}

func init() {
	sweepRunCmd.Flags().String("at", "", "Evaluate as of this RFC3339 time (default now)")

	sweepCmd.AddCommand(sweepRunCmd)
	sweepCmd.AddCommand(sweepEscalateCmd)
	sweepCmd.AddCommand(sweepLastCmd)
}

// SweepCmd returns the sweep command
func SweepCmd() *cobra.Command {
	return sweepCmd
}
