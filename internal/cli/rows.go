package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/jsondb/internal/ir"
)

// RowView is the JSON form of a stored row.
type RowView struct {
	ID     int64  `json:"id"`
	Parent int64  `json:"parent"`
	Type   string `json:"type"`
	Value  any    `json:"value"`
	Link   string `json:"link,omitempty"`
}

// NewRowsCommand creates the rows command.
func NewRowsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows [path]",
		Short: "Show the rows behind the document",
		Long: `Print the stored rows in id order. With a path, print only the rows
the path matches, without following links.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runRows(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runRows(opts *RootOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts, cmd)

	db, err := openDB(ctx, opts)
	if err != nil {
		return err
	}
	defer db.Close()

	var rows []ir.Row
	if path == "" {
		if opts.Format != "json" {
			if err := db.DumpRows(ctx, cmd.OutOrStdout()); err != nil {
				return formatter.Fail(ExitFailure, "rows failed", err)
			}
			return nil
		}
		rows, err = db.AllRows(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, "rows failed", err)
		}
	} else {
		rows, err = db.Query(path).Rows(ctx)
		if err != nil {
			return queryFailure(formatter, err)
		}
	}

	views := make([]RowView, len(rows))
	for i, r := range rows {
		views[i] = rowView(r)
	}
	if opts.Format == "json" {
		return formatter.Success(views)
	}
	for _, v := range views {
		line := map[string]any{"id": v.ID, "parent": v.Parent, "type": v.Type, "value": v.Value}
		if v.Link != "" {
			line["link"] = v.Link
		}
		if err := formatter.Value(line); err != nil {
			return err
		}
	}
	return nil
}

func rowView(r ir.Row) RowView {
	return RowView{ID: r.ID, Parent: r.Parent, Type: r.Type.String(), Value: r.Value, Link: r.Link}
}
