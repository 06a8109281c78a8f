package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tablekit/internal/paths"
	"github.com/mesh-intelligence/tablekit/internal/record"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// exitError carries the exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as a failure of the environment rather than of the
// user's input.
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// rootFlags holds the global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	verbose   bool
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags  rootFlags
	cfg    types.Config
	logger *slog.Logger
	db     *sql.DB
	reg    *record.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}
	root := &cobra.Command{
		Use:   "tablekit",
		Short: "Relation-aware record access for SQL tables",
		Long: `tablekit fetches, inserts, updates and deletes table rows through record
engines. Relations declared in the schema file can be included with --with
to cascade the same verb to related tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory for the default SQLite database")
	pf.String(cfgKeyDriver, "", "database driver: sqlite, mysql or postgres")
	pf.String(cfgKeyDSN, "", "database connection string")
	pf.String(cfgKeySchema, "", "schema file declaring tables and relations")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log every statement to stderr")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newInsertCmd(a))
	root.AddCommand(newUpdateCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newDescribeCmd(a))
	return root
}

// setup loads the configuration and the logger. The database is opened
// lazily by the commands that need it.
func (a *app) setup(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	for _, key := range []string{cfgKeyDriver, cfgKeyDSN, cfgKeySchema} {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return sysError(fmt.Errorf("bind flag %s: %w", key, err))
		}
	}

	cfg, err := decodeConfig(v, configDir)
	if err != nil {
		return err
	}
	if cfg.Driver == types.DriverSQLite && cfg.DSN == "" {
		dataDir, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
		if err != nil {
			return sysError(fmt.Errorf("resolve data dir: %w", err))
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return sysError(fmt.Errorf("create data dir: %w", err))
		}
		cfg.DSN = paths.DefaultDSN(dataDir)
	}
	a.cfg = cfg

	level := slog.LevelWarn
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("log_level %q: %w", cfg.LogLevel, err)
		}
	}
	if a.flags.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
