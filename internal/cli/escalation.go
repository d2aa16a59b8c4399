package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/maintd/internal/wire"
)

var escalationCmd = &cobra.Command{
	Use:   "escalation",
	Short: "Inspect the escalation audit trail",
}

var escalationLogCmd = &cobra.Command{
	Use:   "log [request-id]",
	Short: "List escalation log entries, oldest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		requestID := ""
		if len(args) == 1 {
			requestID = args[0]
		}
		return wire.EscalationAdapter().Log(NewContext(), requestID, limit)
	},
}

func init() {
	escalationLogCmd.Flags().IntP("limit", "n", 50, "Maximum entries to show (0 for all)")

	escalationCmd.AddCommand(escalationLogCmd)
}

// EscalationCmd returns the escalation command
func EscalationCmd() *cobra.Command {
	return escalationCmd
}
