package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/core/dateset"
	"github.com/jakechorley/wfh-portal/pkg/core/form"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/core/services"
	"github.com/jakechorley/wfh-portal/pkg/core/validation"
)

// newForm builds an application form for the logged in user
func newForm(app *AppContext) (*form.Form, error) {
	user, err := app.User()
	if err != nil {
		return nil, err
	}

	schema, err := validation.NewSchema(validation.Capabilities{FileAccess: app.Cfg.CanAccessFiles()})
	if err != nil {
		return nil, fmt.Errorf("failed to create validation schema: %w", err)
	}

	return form.New(schema, app.RequestsClient(), user.StaffID, app.Logger), nil
}

// ApplyCmd creates the apply command
func ApplyCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply to work from home on one or more dates",
		Long: `Apply to work from home. Pass the request with flags, or use --interactive
to fill in the form step by step with a calendar view.

Each --date toggles that day, so giving a date twice deselects it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := newForm(app)
			if err != nil {
				return err
			}

			interactive, _ := cmd.Flags().GetBool("interactive")
			if interactive {
				return newFormSession(f, app.Cfg, app.out()).Run(app.Ctx, app.Input())
			}

			wfhType, _ := cmd.Flags().GetString("type")
			reason, _ := cmd.Flags().GetString("reason")
			dates, _ := cmd.Flags().GetStringSlice("date")
			pattern, _ := cmd.Flags().GetString("pattern")
			rule, _ := cmd.Flags().GetString("rrule")
			start, _ := cmd.Flags().GetString("start")
			files, _ := cmd.Flags().GetStringArray("file")

			applyArgs := services.ApplyWFHArgs{
				Type:    model.WFHType(wfhType),
				Reason:  reason,
				Dates:   dates,
				Pattern: pattern,
				RRule:   rule,
				Files:   files,
			}
			if start != "" {
				applyArgs.PatternStart, err = dateset.ParseDay(start)
				if err != nil {
					return err
				}
			}

			result, err := services.ApplyWFH(app.Ctx, f, app.Cfg, app.Logger, applyArgs)
			var validationErr *form.ValidationError
			if errors.As(err, &validationErr) {
				fmt.Fprintln(app.out(), "\nThe request was not sent:")
				renderDraft(app.out(), f.Draft(), validationErr.Fields)
				fmt.Fprintln(app.out())
				return fmt.Errorf("invalid request: %s", validationErr.Fields.Error())
			}
			if err != nil {
				return err
			}

			app.Logger.Debug("Apply finished", zap.Int("dates", len(result.Draft.Dates)), zap.String("status", result.Status.Value))

			renderStatus(app.out(), result.Status)
			if result.Status.Kind != form.KindSuccess {
				return fmt.Errorf("request not accepted: %s", result.Status.Label())
			}
			fmt.Fprintln(app.out())
			renderDraft(app.out(), result.Draft, nil)
			fmt.Fprintln(app.out())
			return nil
		},
	}

	cmd.Flags().BoolP("interactive", "i", false, "Fill in the form interactively")
	cmd.Flags().StringP("type", "t", "", "Request type: AM, PM or full")
	cmd.Flags().StringP("reason", "r", "", "Reason for working from home")
	cmd.Flags().StringSliceP("date", "d", nil, "Date to toggle (YYYY-MM-DD), repeatable")
	cmd.Flags().String("pattern", "", "Named date pattern from the config file")
	cmd.Flags().String("rrule", "", "Recurrence rule selecting dates, e.g. FREQ=WEEKLY;BYDAY=FR;COUNT=4")
	cmd.Flags().String("start", "", "First date the pattern may select (YYYY-MM-DD, default today)")
	cmd.Flags().StringArrayP("file", "f", nil, "File to attach, repeatable")

	return cmd
}
