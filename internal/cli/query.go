package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jsondb"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	One bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <path>",
		Short: "Evaluate a path expression",
		Long: `Evaluate a path expression against the stored document and print each
match as canonical JSON, one per line.

With --one only the first match is printed, and a query that matches
nothing exits with status 1.`,
		Example: `  jsondb query --db store.db '$.store.book[?(@.price>10)].title'
  jsondb query --db store.db --one '$.store.book[-1]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.One, "one", false, "print only the first match")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	db, err := openDB(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer db.Close()

	result := db.Query(path)
	if opts.One {
		v, found, err := result.Value(ctx)
		if err != nil {
			return queryFailure(formatter, err)
		}
		if !found {
			return formatter.Fail(ExitFailure, "no match", fmt.Errorf("%s: %w", path, jsondb.ErrNotFound))
		}
		return formatter.Value(v)
	}

	values, err := result.Values(ctx)
	if err != nil {
		return queryFailure(formatter, err)
	}
	formatter.VerboseLog("%d match(es) for %s", len(values), path)

	if opts.Format == "json" {
		return formatter.Success(values)
	}
	for _, v := range values {
		if err := formatter.Value(v); err != nil {
			return err
		}
	}
	return nil
}

// queryFailure reports a malformed path as a command error and anything
// else as a failure.
func queryFailure(formatter *OutputFormatter, err error) error {
	if errors.Is(err, jsondb.ErrSyntax) {
		return formatter.Fail(ExitCommandError, "invalid path", err)
	}
	return formatter.Fail(ExitFailure, "query failed", err)
}
