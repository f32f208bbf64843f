package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/services"
	"github.com/jakechorley/wfh-portal/pkg/export"
)

// TeamScheduleCmd creates the teamSchedule command
func TeamScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teamSchedule",
		Short: "Show how many of your team are in the office each day of a month",
		Long: `Show the in-office head count of your team for each day and slot of a month.
Directors see the team of one of their managers: --manager picks it, otherwise the first is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}

			now := time.Now()
			month, _ := cmd.Flags().GetInt("month")
			year, _ := cmd.Flags().GetInt("year")
			managerID, _ := cmd.Flags().GetInt("manager")
			exportPath, _ := cmd.Flags().GetString("export")
			if month == 0 {
				month = int(now.Month())
			}
			if year == 0 {
				year = now.Year()
			}

			app.Logger.Debug("teamSchedule command",
				zap.Int("month", month),
				zap.Int("year", year),
				zap.Int("manager", managerID))

			result, err := services.ViewTeamSchedule(app.Ctx, app.ScheduleClient(), user, app.Logger, month, year, managerID)
			if err != nil {
				return err
			}

			if len(result.Managers) > 0 {
				fmt.Fprintln(app.out(), "\nManagers reporting to you:")
				for _, m := range result.Managers {
					marker := " "
					if m.StaffID == result.ManagerID {
						marker = "*"
					}
					fmt.Fprintf(app.out(), "  %s %d %s (%s)\n", marker, m.StaffID, m.Name, m.Department)
				}
			}

			renderSchedule(app.out(), result, ansiPalette)

			if exportPath != "" {
				if err := export.NewExporter(app.Logger).TeamSchedule(result, exportPath); err != nil {
					return err
				}
				fmt.Fprintf(app.out(), "\n✓ Exported to %s\n", exportPath)
			}
			fmt.Fprintln(app.out())
			return nil
		},
	}

	cmd.Flags().Int("month", 0, "Month 1-12 (default current month)")
	cmd.Flags().Int("year", 0, "Year (default current year)")
	cmd.Flags().Int("manager", 0, "Manager whose team to view (directors only)")
	cmd.Flags().String("export", "", "Also write the schedule to an .xlsx file")

	return cmd
}

// ScheduleDetailCmd creates the scheduleDetail command
func ScheduleDetailCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduleDetail <date>",
		Short: "Show where each team member works on a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}

			day, err := dateset.ParseDay(args[0])
			if err != nil {
				return err
			}

			managerID, _ := cmd.Flags().GetInt("manager")
			if managerID == 0 {
				managerID = user.StaffID
			}

			detail, err := services.ScheduleDetail(app.Ctx, app.ScheduleClient(), app.Logger, dateset.FormatDay(day), managerID)
			if err != nil {
				return err
			}

			renderScheduleDetail(app.out(), detail)
			fmt.Fprintln(app.out())
			return nil
		},
	}

	cmd.Flags().Int("manager", 0, "Manager whose team to view (default yourself)")

	return cmd
}
