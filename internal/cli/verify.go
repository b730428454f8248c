package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// VerifyResult holds verification results.
type VerifyResult struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the stored tree for damage",
		Long: `Check that every container's cached count matches its rows, that dicts
hold only key rows, that every key has exactly one value and that no row
hangs off a missing or scalar parent.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}

	return cmd
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	db, err := openDB(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	verr := db.Verify(ctx)
	result := VerifyResult{Valid: verr == nil, Problems: problems(verr)}

	if opts.Format == "json" {
		return outputVerifyJSON(formatter, result)
	}
	return outputVerifyText(formatter.Writer, result)
}

// problems splits a joined verification error into its parts.
func problems(err error) []string {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range joined.Unwrap() {
		out = append(out, e.Error())
	}
	return out
}

func outputVerifyJSON(formatter *OutputFormatter, result VerifyResult) error {
	if result.Valid {
		return formatter.Success(result)
	}
	if err := formatter.Error(CodeVerifyFailed, fmt.Sprintf("%d problem(s) found", len(result.Problems)), result.Problems); err != nil {
		return err
	}
	return reportedExit(ExitFailure, "verification failed")
}

func outputVerifyText(w io.Writer, result VerifyResult) error {
	if result.Valid {
		fmt.Fprintln(w, "✓ Document is consistent")
		return nil
	}
	fmt.Fprintf(w, "✗ %d problem(s) found:\n", len(result.Problems))
	for _, p := range result.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
	return reportedExit(ExitFailure, "verification failed")
}
