package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jsondb"
	"github.com/roach88/jsondb/internal/loader"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Keep bool
}

// LoadResult describes a freshly stored document.
type LoadResult struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Root   string `json:"root"`
}

func (r LoadResult) String() string {
	return fmt.Sprintf("✓ Loaded %s document into %s (root: %s)", r.Format, r.Path, r.Root)
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Store a JSON, YAML or CUE document",
		Long: `Decode a document and store it in the database named by --db.

The format is chosen by extension: .json, .yaml/.yml or .cue. CUE files
must evaluate to a concrete value. An existing document is replaced unless
--keep is given, in which case loading into a non-empty database fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "fail instead of replacing an existing document")

	return cmd
}

func runLoad(opts *LoadOptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.DB == "" {
		return NewExitError(ExitCommandError, "--db is required")
	}

	format, err := loader.FormatOf(file)
	if err != nil {
		return formatter.Fail(ExitCommandError, "load failed", err)
	}

	dbOpts := append(opts.dbOptions(), jsondb.WithPath(opts.DB), jsondb.WithOverwrite(!opts.Keep))
	db, err := jsondb.FromFile(cmd.Context(), file, dbOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, "load failed", err)
	}
	defer db.Close()

	root, err := db.Root(cmd.Context())
	if err != nil {
		return formatter.Fail(ExitFailure, "load failed", err)
	}
	formatter.VerboseLog("Loaded %s with link key %q", file, db.LinkKey())

	return formatter.Success(LoadResult{
		Path:   opts.DB,
		Format: format.String(),
		Root:   root.Type().String(),
	})
}
