// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/yomira-studio/internal/app"
	"github.com/taibuivan/yomira-studio/internal/platform/config"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/logging"
	"github.com/taibuivan/yomira-studio/internal/platform/migration"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/users/account"
)

// actorID attributes CLI writes in the audit log.
const actorID = "system:studioctl"

// passwordEnv is read when --password-stdin is not given.
const passwordEnv = "STUDIOCTL_PASSWORD"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "studioctl",
		Short:        "Yomira Studio operator tool",
		SilenceUsage: true,
	}

	root.AddCommand(
		newVersionCommand(),
		newMigrateCommand(),
		newRepairCommand(),
		newSessionsCommand(),
		newUsersCommand(),
	)
	return root
}

// # Environment

// environment is the wired process state shared by the commands.
type environment struct {
	cfg      *config.Config
	log      *slog.Logger
	closeLog io.Closer
	infra    *app.Infra
	services *app.Services
}

// loadConfig reads the configuration and builds a logger on stderr, keeping
// stdout for command output.
func loadConfig() (*config.Config, *slog.Logger, io.Closer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log, closer := logging.New(logging.Options{
		Debug:      cfg.Debug,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Stdout:     os.Stderr,
	})
	return cfg, log.With(slog.String("component", "studioctl")), closer, nil
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, log, closer, err := loadConfig()
	if err != nil {
		return nil, err
	}

	infra, err := app.Connect(ctx, cfg, log)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	services, err := app.Wire(cfg, infra, log)
	if err != nil {
		_ = infra.Close()
		_ = closer.Close()
		return nil, err
	}

	return &environment{cfg: cfg, log: log, closeLog: closer, infra: infra, services: services}, nil
}

func (env *environment) Close() {
	if err := env.infra.Close(); err != nil {
		env.log.Error("storage_close_failed", slog.Any("error", err))
	}
	_ = env.closeLog.Close()
}

// withEnvironment adapts a command body that needs the wired services.
func withEnvironment(run func(cmd *cobra.Command, args []string, env *environment) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		return run(cmd, args, env)
	}
}

// # Commands

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the studio version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", constants.AppName, constants.AppVersion)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	var path string

	// withMigrations resolves the directory and logger shared by both forms.
	withMigrations := func(run func(cmd *cobra.Command, dsn, dir string, log *slog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, log, closer, err := loadConfig()
			if err != nil {
				return err
			}
			defer closer.Close()

			dir := path
			if dir == "" {
				dir = cfg.MigrationPath
			}
			return run(cmd, cfg.DatabaseURL, dir, log)
		}
	}

	command := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrations(func(_ *cobra.Command, dsn, dir string, log *slog.Logger) error {
			return migration.RunUp(dsn, dir, log)
		}),
	}
	command.PersistentFlags().StringVar(&path, "path", "", "Migrations directory (defaults to MIGRATION_PATH)")

	command.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrations(func(cmd *cobra.Command, dsn, dir string, log *slog.Logger) error {
			state, err := migration.Inspect(dsn, dir, log)
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), state)
		}),
	})
	return command
}

func newRepairCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Reconcile chapter publication state with assignment history",
		Args:  cobra.NoArgs,
		RunE: withEnvironment(func(cmd *cobra.Command, _ []string, env *environment) error {
			report, err := env.services.Mangas.SyncAssignmentsWithPublishedChapters(cmd.Context())
			if err != nil {
				return err
			}

			table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(table, "CHAPTERS PUBLISHED\tCHAPTERS IN WORK\tMANGAS RECOUNTED")
			fmt.Fprintf(table, "%d\t%d\t%d\n", report.ChaptersPublished, report.ChaptersInWork, report.MangasRecounted)
			return table.Flush()
		}),
	}
}

func newSessionsCommand() *cobra.Command {
	sessions := &cobra.Command{
		Use:   "sessions",
		Short: "Refresh session maintenance",
	}

	sessions.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired refresh sessions",
		Args:  cobra.NoArgs,
		RunE: withEnvironment(func(cmd *cobra.Command, _ []string, env *environment) error {
			return env.services.Auth.CleanupSessions(cmd.Context())
		}),
	})
	return sessions
}

func newUsersCommand() *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage studio accounts",
	}

	users.AddCommand(newUsersCreateCommand(), newUsersSetRoleCommand(), newUsersSetStatusCommand())
	return users
}

func newUsersCreateCommand() *cobra.Command {
	var (
		input         account.CreateInput
		role          string
		passwordStdin bool
	)

	command := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long: "Create an account. The password is read from stdin with --password-stdin,\n" +
			"otherwise from the " + passwordEnv + " environment variable.",
		Args: cobra.NoArgs,
		RunE: withEnvironment(func(cmd *cobra.Command, _ []string, env *environment) error {
			password, err := resolvePassword(cmd.InOrStdin(), passwordStdin, os.Getenv(passwordEnv))
			if err != nil {
				return err
			}
			input.Password = password
			input.Role = sec.UserRole(role)

			user, err := env.services.Accounts.Create(cmd.Context(), actorID, input)
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), user)
		}),
	}

	flags := command.Flags()
	flags.StringVar(&input.Username, "username", "", "Login name")
	flags.StringVar(&input.Email, "email", "", "Email address")
	flags.StringVar(&input.DisplayName, "display-name", "", "Name shown to the team")
	flags.StringVar(&role, "role", string(sec.LowestRole), "One of "+strings.Join(sec.RoleStrings(), ", "))
	flags.BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	_ = command.MarkFlagRequired("username")
	_ = command.MarkFlagRequired("email")

	return command
}

func newUsersSetRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Change the role of an account",
		Args:  cobra.ExactArgs(2),
		RunE: withEnvironment(func(cmd *cobra.Command, args []string, env *environment) error {
			user, err := env.services.Accounts.ChangeRole(cmd.Context(), actorID, args[0], sec.UserRole(args[1]))
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), user)
		}),
	}
}

func newUsersSetStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set-status <user-id> <active|inactive>",
		Short:     "Activate or deactivate an account",
		Args:      cobra.MatchAll(cobra.ExactArgs(2), validStatusArg),
		ValidArgs: []string{"active", "inactive"},
		RunE: withEnvironment(func(cmd *cobra.Command, args []string, env *environment) error {
			user, err := env.services.Accounts.SetStatus(cmd.Context(), actorID, args[0], args[1] == "active")
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), user)
		}),
	}
}

// # Helpers

func validStatusArg(_ *cobra.Command, args []string) error {
	if args[1] != "active" && args[1] != "inactive" {
		return fmt.Errorf("status must be active or inactive, got %q", args[1])
	}
	return nil
}

// resolvePassword reads the first line of stdin when fromStdin is set, and
// falls back to fromEnv otherwise.
func resolvePassword(stdin io.Reader, fromStdin bool, fromEnv string) (string, error) {
	password := fromEnv
	if fromStdin {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if password == "" {
		return "", fmt.Errorf("password required: use --password-stdin or set %s", passwordEnv)
	}
	return password, nil
}

func printState(out io.Writer, state migration.State) error {
	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "VERSION\tDIRTY")
	fmt.Fprintf(table, "%d\t%t\n", state.Version, state.Dirty)
	return table.Flush()
}

func printUsers(out io.Writer, users ...*account.User) error {
	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tUSERNAME\tROLE\tACTIVE")
	for _, user := range users {
		fmt.Fprintf(table, "%s\t%s\t%s\t%t\n", user.ID, user.Username, user.Role, user.IsActive)
	}
	return table.Flush()
}
