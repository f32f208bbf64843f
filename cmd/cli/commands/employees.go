package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/wfh-portal/pkg/core/services"
)

// AssignManagerCmd creates the assignManager command
func AssignManagerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assignManager <staff_id> <manager_id>",
		Short: "Move an employee to a new reporting manager",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}

			staffID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("staff_id must be a number: %w", err)
			}
			managerID, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("manager_id must be a number: %w", err)
			}

			result, err := services.AssignManager(app.Ctx, app.EmployeeClient(), app.Logger, user, staffID, managerID)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out(), "\n✓ %s\n\n", result.Message)
			return nil
		},
	}
}

// TransferRequestsCmd creates the transferRequests command
func TransferRequestsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transferRequests",
		Short: "List reporting manager changes involving you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}

			transfers, err := services.ListTransferRequests(app.Ctx, app.EmployeeClient(), app.Logger, user.StaffID)
			if err != nil {
				return err
			}

			renderTransfers(app.out(), transfers)
			return nil
		},
	}
}
