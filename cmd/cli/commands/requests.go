package commands

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/services"
	"github.com/jakechorley/wfh-portal/pkg/export"
)

// RequestsCmd creates the requests command
func RequestsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List your team's WFH requests by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}

			status, _ := cmd.Flags().GetString("status")
			exportPath, _ := cmd.Flags().GetString("export")

			statuses := model.RequestStatuses
			if status != "" {
				s := model.RequestStatus(status)
				if !slices.Contains(model.RequestStatuses, s) {
					return fmt.Errorf("status must be pending, approved or rejected, got %q", status)
				}
				statuses = []model.RequestStatus{s}
			}

			result, err := services.ListSubordinateRequests(app.Ctx, app.RequestsClient(), app.Logger, user.StaffID)
			if err != nil {
				return err
			}

			app.Logger.Debug("Requests fetched",
				zap.Int("pending", result.Count(model.StatusPending)),
				zap.Int("approved", result.Count(model.StatusApproved)),
				zap.Int("rejected", result.Count(model.StatusRejected)))

			renderRequests(app.out(), result, statuses)

			if exportPath != "" {
				if err := export.NewExporter(app.Logger).Requests(result, exportPath); err != nil {
					return err
				}
				fmt.Fprintf(app.out(), "✓ Exported to %s\n\n", exportPath)
			}
			return nil
		},
	}

	cmd.Flags().String("status", "", "Only show one status: pending, approved or rejected")
	cmd.Flags().String("export", "", "Also write every status to an .xlsx file")

	return cmd
}

func parseRequestID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("request_id must be a positive integer, got: %s", arg)
	}
	return id, nil
}

// RequestDetailCmd creates the requestDetail command
func RequestDetailCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requestDetail <request_id>",
		Short: "Show one of your team's WFH requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}
			requestID, err := parseRequestID(args[0])
			if err != nil {
				return err
			}

			detail, err := services.GetRequestDetail(app.Ctx, app.RequestsClient(), app.Logger, user.StaffID, requestID)
			if err != nil {
				return err
			}

			renderRequestDetail(app.out(), detail)
			return nil
		},
	}
}

// ReviewCmd creates the approve and reject commands
func ReviewCmd(app *AppContext, decision model.RequestStatus) *cobra.Command {
	verb, short := "approve", "Approve a pending WFH request from your team"
	if decision == model.StatusRejected {
		verb, short = "reject", "Reject a pending WFH request from your team"
	}

	cmd := &cobra.Command{
		Use:   verb + " <request_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}
			requestID, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			remarks, _ := cmd.Flags().GetString("remarks")

			result, err := services.ReviewRequest(app.Ctx, app.RequestsClient(), app.Logger, user.StaffID, requestID, decision, remarks)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out(), "\n✓ %s\n\n", result.Message)
			return nil
		},
	}

	cmd.Flags().String("remarks", "", "Remarks for the employee")

	return cmd
}
