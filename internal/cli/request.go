package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/maintd/internal/core/request"
	"github.com/example/maintd/internal/ports/primary"
	"github.com/example/maintd/internal/wire"
)

var requestCmd = &cobra.Command{
	Use:     "request",
	Aliases: []string{"req"},
	Short:   "Manage maintenance requests",
}

var requestCreateCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Submit a new request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		priority, _ := cmd.Flags().GetString("priority")
		location, _ := cmd.Flags().GetString("location")

		return wire.RequestAdapter().Create(NewContext(), primary.CreateRequestRequest{
			Title:       args[0],
			Description: description,
			Category:    category,
			Priority:    priority,
			Location:    location,
		})
	},
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		category, _ := cmd.Flags().GetString("category")
		priority, _ := cmd.Flags().GetString("priority")
		createdBy, _ := cmd.Flags().GetString("created-by")

		return wire.RequestAdapter().List(NewContext(), primary.RequestFilters{
			Status:    status,
			Category:  category,
			Priority:  priority,
			CreatedBy: createdBy,
		})
	},
}

var requestShowCmd = &cobra.Command{
	Use:   "show [request-id]",
	Short: "Show request details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.RequestAdapter().Show(NewContext(), args[0])
	},
}

var requestUpdateCmd = &cobra.Command{
	Use:   "update [request-id]",
	Short: "Change a request's status or assignee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		assignee, _ := cmd.Flags().GetString("assign")
		if status == "" && assignee == "" {
			return fmt.Errorf("nothing to update: pass --status and/or --assign")
		}
		return wire.RequestAdapter().Update(NewContext(), args[0], status, assignee)
	},
}

var requestResolveCmd = &cobra.Command{
	Use:   "resolve [request-id]",
	Short: "Mark a request resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.RequestAdapter().Update(NewContext(), args[0], request.StatusResolved, "")
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request counts by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return wire.RequestAdapter().Stats(NewContext())
	},
}

func init() {
	// request create flags
	requestCreateCmd.Flags().StringP("description", "d", "", "Request description")
	requestCreateCmd.Flags().StringP("category", "c", "", "Category (IT|Facilities|Infrastructure|Equipment|Other)")
	requestCreateCmd.Flags().StringP("priority", "p", "", "Priority (Low|Medium|High|Critical, default Medium)")
	requestCreateCmd.Flags().StringP("location", "l", "", "Where the problem is")
	requestCreateCmd.MarkFlagRequired("category")

	// request list flags
	requestListCmd.Flags().StringP("status", "s", "", "Filter by status")
	requestListCmd.Flags().StringP("category", "c", "", "Filter by category")
	requestListCmd.Flags().StringP("priority", "p", "", "Filter by priority")
	requestListCmd.Flags().String("created-by", "", "Filter by submitter")

	// request update flags
	requestUpdateCmd.Flags().StringP("status", "s", "", "New status (Pending|In Progress|Resolved)")
	requestUpdateCmd.Flags().String("assign", "", "Assign to this technician")

	requestCmd.AddCommand(requestCreateCmd)
	requestCmd.AddCommand(requestListCmd)
	requestCmd.AddCommand(requestShowCmd)
	requestCmd.AddCommand(requestUpdateCmd)
	requestCmd.AddCommand(requestResolveCmd)
}

// RequestCmd returns the request command
func RequestCmd() *cobra.Command {
	return requestCmd
}

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	return statsCmd
}
