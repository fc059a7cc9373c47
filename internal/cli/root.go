// Package cli is the tradejournal command line.
package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradejournal/config"
	"tradejournal/internal/adapters/logger"
	"tradejournal/internal/adapters/memory"
	"tradejournal/internal/adapters/sqlite"
	"tradejournal/internal/app"
	"tradejournal/internal/ports"
	"tradejournal/internal/trace"
)

// Version is stamped at build time with -ldflags "-X tradejournal/internal/cli.Version=...".
var Version = "dev"

type rootOptions struct {
	configPath string
	profile    string
	storage    string
	dbPath     string
	logLevel   string

	// Test hooks. A non-nil kv replaces the configured storage.
	kv    ports.KeyValueStore
	now   func() time.Time
	newID func() string
}

// session is everything a command needs, opened from config.
type session struct {
	cfg     *config.Config
	logger  ports.Logger
	svc     *app.JournalService
	closers []func(context.Context) error
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd(&rootOptions{}).Execute()
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradejournal",
		Short: "A trading journal with performance analytics",
		Long: `Tradejournal records perpetual-futures trades and derives
performance analytics from them: win rate, profit factor, Sharpe,
drawdown, fee drag and risk alerts.

Trades are stored per profile in SQLite (or in memory). The serve
command exposes the journal over HTTP and pushes live dashboards
over a websocket.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML or JSON config file applied over the environment")
	pf.StringVarP(&opts.profile, "profile", "p", "", "profile to open (default: the remembered one)")
	pf.StringVar(&opts.storage, "storage", "", "storage backend: sqlite or memory")
	pf.StringVar(&opts.dbPath, "db", "", "path to the SQLite database")
	pf.StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")

	rootCmd.AddCommand(
		newAddCmd(opts),
		newEditCmd(opts),
		newRemoveCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newProfileCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// openSession loads config, then wires logging, tracing, storage and the journal service.
func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	ctx := cmd.Context()

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.storage != "" {
		cfg.Storage = strings.ToLower(opts.storage)
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = logger.ParseLevel(opts.logLevel)
	}
	if opts.profile != "" {
		cfg.Profile = opts.profile
	}

	s := &session{cfg: cfg}
	s.logger = logger.NewWriterLogger(cmd.ErrOrStderr(), cfg.LogLevel, log.LstdFlags)

	if err := trace.Init(trace.Options{Enabled: cfg.TracingEnabled, Version: Version, Writer: cmd.ErrOrStderr()}); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.closers = append(s.closers, trace.Shutdown)

	kv := opts.kv
	if kv == nil {
		switch cfg.Storage {
		case config.StorageMemory:
			kv = memory.NewStore()
		default:
			repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: s.logger})
			if err != nil {
				s.close(ctx)
				return nil, err
			}
			s.closers = append(s.closers, func(context.Context) error { return repo.Close() })
			kv = repo
		}
	}

	s.svc, err = app.NewJournalService(ctx, s.logger, kv, app.Options{
		Profile:  cfg.Profile,
		PageSize: cfg.PageSize,
		Now:      opts.now,
		NewID:    opts.newID,
	})
	if err != nil {
		s.close(ctx)
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { s.svc.Close(); return nil })

	if w := s.svc.Dashboard().Warning; w != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
	return s, nil
}

// close releases resources in reverse order of acquisition.
func (s *session) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil && s.logger != nil {
			s.logger.Error(ctx, err, "Error during shutdown")
		}
	}
	s.closers = nil
}

// withSession opens a session around fn.
func withSession(opts *rootOptions, fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd, opts)
		if err != nil {
			return err
		}
		defer s.close(cmd.Context())
		return fn(cmd, args, s)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tradejournal version %s\n", Version)
		},
	}
}
