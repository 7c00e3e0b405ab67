package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booktrack/config"
	"booktrack/library"
)

// app carries what every command needs. The manager is opened once per
// process, before the first command runs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	mgr    *library.LibraryManager
	out    io.Writer
	prompt *prompter
}

func (a *app) close() {
	if a.mgr != nil {
		if err := a.mgr.Close(); err != nil {
			a.logger.Warn("close session store", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRootCmd(a *app) *cobra.Command {
	var (
		apiURL         string
		dbPath         string
		sessionBackend string
		logLevel       string
	)

	root := &cobra.Command{
		Use:           "booktrack",
		Short:         "Track your personal book collection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if flags.Changed("db") {
				cfg.DBPath = dbPath
			}
			if flags.Changed("session-backend") {
				cfg.SessionBackend = sessionBackend
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := config.NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			mgr, err := library.NewLibraryManager(cfg, logger)
			if err != nil {
				return err
			}
			a.cfg, a.logger, a.mgr = cfg, logger, mgr
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&apiURL, "api-url", "", "API base URL (env BOOKTRACK_API_URL)")
	pf.StringVar(&dbPath, "db", "", "SQLite session file (env BOOKTRACK_DB)")
	pf.StringVar(&sessionBackend, "session-backend", "", "session store: sqlite, redis or memory (env BOOKTRACK_SESSION_BACKEND)")
	pf.StringVar(&logLevel, "log-level", "", "log level (env BOOKTRACK_LOG_LEVEL)")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newProfileCmd(a),
		newBooksCmd(a),
		newShellCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{out: os.Stdout, prompt: newPrompter(os.Stdin, os.Stdout)}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}
