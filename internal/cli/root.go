package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/jsondb"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string // database file
	LinkKey string // overrides the stored link key when set

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the jsondb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "jsondb",
		Short:         "jsondb - JSON documents on SQLite",
		Long:          "Store a JSON document as rows in SQLite and query it with path expressions.",
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to the database file")
	cmd.PersistentFlags().StringVar(&opts.LinkKey, "link-key", "", "dict key that declares a link (default \""+jsondb.DefaultLinkKey+"\")")

	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewRowsCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Logger returns the logger installed by the root command, or the default
// logger when a subcommand runs on its own.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

func (o *RootOptions) dbOptions() []jsondb.Option {
	opts := []jsondb.Option{jsondb.WithLogger(o.Logger())}
	if o.LinkKey != "" {
		opts = append(opts, jsondb.WithLinkKey(o.LinkKey))
	}
	return opts
}

// openDB loads the document stored at --db. A missing flag, file or
// document is a command error.
func openDB(ctx context.Context, opts *RootOptions) (*jsondb.DB, error) {
	if opts.DB == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if _, err := os.Stat(opts.DB); err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.DB))
	}
	db, err := jsondb.Load(ctx, opts.DB, opts.dbOptions()...)
	if err != nil {
		if errors.Is(err, jsondb.ErrNotFound) {
			return nil, WrapExitError(ExitCommandError, "no document in database", err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return db, nil
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
