package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/wfh-portal/cmd/cli/commands"
	"github.com/jakechorley/wfh-portal/internal/config"
	"github.com/jakechorley/wfh-portal/pkg/clients/authclient"
	"github.com/jakechorley/wfh-portal/pkg/core/model"
	"github.com/jakechorley/wfh-portal/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wfh",
		Short: "WFH Portal CLI - Request and review work-from-home days",
		Long:  `A CLI tool for applying to work from home, viewing team availability, and reviewing your team's requests.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: dev, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.LoginCmd(app))
	rootCmd.AddCommand(commands.LogoutCmd(app))
	rootCmd.AddCommand(commands.WhoamiCmd(app))
	rootCmd.AddCommand(commands.ApplyCmd(app))
	rootCmd.AddCommand(commands.TeamScheduleCmd(app))
	rootCmd.AddCommand(commands.ScheduleDetailCmd(app))
	rootCmd.AddCommand(commands.RequestsCmd(app))
	rootCmd.AddCommand(commands.RequestDetailCmd(app))
	rootCmd.AddCommand(commands.ReviewCmd(app, model.StatusApproved))
	rootCmd.AddCommand(commands.ReviewCmd(app, model.StatusRejected))
	rootCmd.AddCommand(commands.AssignManagerCmd(app))
	rootCmd.AddCommand(commands.TransferRequestsCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and the stored session
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Starting application", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded",
		zap.String("requests_endpoint", app.Cfg.Endpoints.Requests),
		zap.Bool("file_access", app.Cfg.CanAccessFiles()))

	app.Sessions, err = authclient.NewSessionStore(app.Cfg.SessionDir)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	if err := app.LoadSession(); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if app.Session != nil {
		app.Logger.Debug("Session restored", zap.Int("staff_id", app.Session.User.StaffID))
	}

	return nil
}
