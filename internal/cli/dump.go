package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Output string
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the stored document",
		Long: `Materialize the whole document with links resolved.

Without --output the document is printed as canonical JSON. With --output
it is written to the file as indented JSON.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write indented JSON to this file")

	return cmd
}

func runDump(opts *DumpOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	db, err := openDB(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.Output != "" {
		if err := db.Dump(ctx, opts.Output); err != nil {
			return formatter.Fail(ExitFailure, "dump failed", err)
		}
		return formatter.Success(fmt.Sprintf("✓ Wrote %s", opts.Output))
	}

	v, err := db.Data(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, "dump failed", err)
	}
	return formatter.Value(v)
}
