package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"intervals/backend/internal/config"
	"intervals/backend/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
)

type options struct {
	dbPath        string
	migrationsDir string
	email         string
	password      string
	logFile       string
}

// SetVersion sets the version information
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "intervals",
		Short:         "Interval training timer",
		Long:          "intervals runs work/rest interval timers from the terminal and keeps a history of finished sessions.",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.dbPath, "db", cfg.DBPath, "path to the SQLite database")
	flags.StringVar(&opts.migrationsDir, "migrations", "", "migrations directory (defaults to the embedded schema)")
	flags.StringVar(&opts.email, "email", os.Getenv("INTERVALS_EMAIL"), "account email")
	flags.StringVar(&opts.password, "password", os.Getenv("INTERVALS_PASSWORD"), "account password")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")

	rootCmd.AddCommand(
		newRegisterCmd(opts),
		newPresetsCmd(opts),
		newHistoryCmd(opts),
		newRunCmd(opts),
	)
	return rootCmd
}

// setupLogging sends logs to --log-file, or to stderr at warn level.
func setupLogging(cmd *cobra.Command, opts *options) error {
	if opts.logFile == "" {
		logging.Setup(cmd.ErrOrStderr(), "warn", "text")
		return nil
	}

	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	cobra.OnFinalize(func() { _ = f.Close() })
	logging.Setup(io.Writer(f), "debug", "text")
	return nil
}
