package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/pkg/clients/authclient"
)

// LoginCmd creates the login command
func LoginCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store a session for this environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				var err error
				password, err = app.Prompt("Password: ")
				if err != nil {
					return err
				}
			}

			session, err := app.AuthClient().Authenticate(app.Ctx, email, password)
			if errors.Is(err, authclient.ErrInvalidCredentials) {
				return fmt.Errorf("login failed: invalid email or password")
			}
			if err != nil {
				return err
			}

			if err := app.Sessions.Save(app.Env, session); err != nil {
				return err
			}
			app.Session = session
			app.Logger.Debug("Logged in", zap.Int("staff_id", session.User.StaffID))

			fmt.Fprintf(app.out(), "\n✓ Logged in as %s (%d, %s)\n", session.User.Name, session.User.StaffID, session.User.Position)
			fmt.Fprintf(app.out(), "Session expires %s\n\n", session.Token.Expiry.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	return cmd
}

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sessions.Delete(app.Env); err != nil {
				return err
			}
			app.Session = nil
			fmt.Fprintln(app.out(), "✓ Logged out")
			return nil
		},
	}
}

// WhoamiCmd creates the whoami command
func WhoamiCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := app.User()
			if err != nil {
				return err
			}

			fmt.Fprintf(app.out(), "\n%s (%d)\n", user.Name, user.StaffID)
			fmt.Fprintf(app.out(), "Email:      %s\n", user.Email)
			fmt.Fprintf(app.out(), "Position:   %s\n", user.Position)
			fmt.Fprintf(app.out(), "Department: %s\n", user.Department)
			if user.ReportingManager != 0 {
				fmt.Fprintf(app.out(), "Manager:    %d\n", user.ReportingManager)
			}
			fmt.Fprintln(app.out())
			return nil
		},
	}
}
