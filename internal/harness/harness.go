package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/jsondb"
	"github.com/roach88/jsondb/internal/ir"
	"github.com/roach88/jsondb/internal/loader"
)

// Error kinds a step may expect, in match order.
var errorKinds = []struct {
	name string
	err  error
}{
	{"syntax", jsondb.ErrSyntax},
	{"unsupported_type", jsondb.ErrUnsupportedType},
	{"illegal_structure", jsondb.ErrIllegalStructure},
	{"unsupported_operation", jsondb.ErrUnsupportedOperation},
	{"index", jsondb.ErrIndex},
	{"not_found", jsondb.ErrNotFound},
	{"link_cycle", jsondb.ErrLinkCycle},
	{"division_by_zero", jsondb.ErrDivisionByZero},
}

var kindErrors = func() map[string]error {
	m := make(map[string]error, len(errorKinds))
	for _, k := range errorKinds {
		m[k.name] = k.err
	}
	return m
}()

// ErrorKind names the category of err, or "error" if it has none.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "error"
}

// Harness executes the steps of one scenario.
type Harness struct {
	db     *jsondb.DB
	seq    int64
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the starting document and create the database
// 2. Execute steps, checking each expect clause
// 3. Evaluate assertions against the final state
// 4. Return result with pass/fail, trace, final document and errors
//
// Step and assertion failures are reported in the Result; the error return
// is for scenarios that cannot run at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	data := scenario.Data
	if scenario.Document != "" {
		v, err := loader.LoadFile(scenario.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		data = v
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	opts := []jsondb.Option{jsondb.WithLogger(logger)}
	if scenario.LinkKey != "" {
		opts = append(opts, jsondb.WithLinkKey(scenario.LinkKey))
	}
	db, err := jsondb.Create(ctx, data, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	defer db.Close()

	h := &Harness{db: db, logger: logger}
	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	for _, msg := range EvaluateAssertions(ctx, db, scenario.Assertions) {
		result.AddError(msg)
	}

	doc, err := db.Data(ctx)
	if err != nil {
		result.AddError(fmt.Sprintf("materialize final document: %v", err))
	}
	result.Document = doc
	return result, nil
}

// executeStep runs one step, traces it and checks its expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	h.seq++
	event := TraceEvent{Seq: h.seq, Op: step.Op, Path: step.Path, Link: step.Link}

	var err error
	if step.Op == OpQuery {
		event.Values, err = h.db.Query(step.Path).Values(ctx)
	} else {
		err = h.mutate(ctx, step)
	}
	if err != nil {
		event.Values = nil
		event.Error = ErrorKind(err)
	}
	result.AddTrace(event)

	h.logger.Info("step executed", "step", i, "op", step.Op, "path", step.Path, "error", err)

	for _, msg := range checkExpect(step, event, err) {
		result.AddError(fmt.Sprintf("steps[%d] %s %s: %s", i, step.Op, step.Path, msg))
	}
}

func (h *Harness) mutate(ctx context.Context, step Step) error {
	path := step.Path
	if path == "" {
		path = "$"
	}
	target, err := h.target(ctx, path)
	if err != nil {
		return err
	}
	switch step.Op {
	case OpFeed:
		_, err = h.db.Feed(ctx, step.Value, target.ID())
	case OpReplace:
		_, err = target.Replace(ctx, step.Value)
	case OpDelete:
		err = target.Remove(ctx)
	case OpLink:
		err = target.SetLink(ctx, step.Link)
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}
	return err
}

// target finds the single row a mutation applies to. "$" is the root.
func (h *Harness) target(ctx context.Context, path string) (jsondb.Node, error) {
	if path == "$" {
		return h.db.Root(ctx)
	}
	nodes, err := h.db.Query(path).Nodes(ctx)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("target %s matched %d rows, want 1: %w", path, len(nodes), jsondb.ErrNotFound)
	}
	return nodes[0], nil
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(step Step, event TraceEvent, err error) []string {
	exp := step.Expect
	if exp == nil || exp.Error == "" {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
	}
	if exp == nil {
		return nil
	}
	if exp.Error != "" {
		switch {
		case err == nil:
			return []string{fmt.Sprintf("expected %s error, step succeeded", exp.Error)}
		case !errors.Is(err, kindErrors[exp.Error]):
			return []string{fmt.Sprintf("expected %s error, got %s: %v", exp.Error, event.Error, err)}
		}
		return nil
	}

	var msgs []string
	if exp.Count != nil && len(event.Values) != *exp.Count {
		msgs = append(msgs, fmt.Sprintf("expected %d results, got %d", *exp.Count, len(event.Values)))
	}
	if exp.Values != nil {
		want, nerr := ir.Normalize(exp.Values)
		switch {
		case nerr != nil:
			msgs = append(msgs, fmt.Sprintf("expected values: %v", nerr))
		case !ir.Equal(want, event.Values):
			msgs = append(msgs, fmt.Sprintf("expected values %v, got %v", want, event.Values))
		}
	}
	return msgs
}
