package engine

import (
	"slices"

	"github.com/roach88/jsondb/internal/ir"
)

// LinkGuard tracks the rows whose links are being resolved so that link
// chains always terminate.
//
// Cycles occur when a link resolves, directly or through other links, to a
// row that is still being resolved:
//
//	{"a": {"@__link__": "$.b"}, "b": {"@__link__": "$.a"}}
//	resolve a → query $.b → b is a link → resolve b → query $.a
//	→ a is a link → resolve a again... ← CYCLE DETECTED
//
// Materialising a link target keeps the link on the chain, so a link that
// points at one of its own ancestors is caught the same way.
//
// Depth is bounded separately by a depthQuota: a long acyclic chain still
// stops at the limit.
//
// A LinkGuard belongs to one top-level query or materialisation and is not
// safe for concurrent use.
type LinkGuard struct {
	chain   []int64
	onChain map[int64]bool
	quota   *depthQuota
}

// NewLinkGuard creates a guard allowing at most maxDepth nested links.
// maxDepth <= 0 uses DefaultMaxLinkDepth.
func NewLinkGuard(maxDepth int) *LinkGuard {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxLinkDepth
	}
	return &LinkGuard{
		onChain: make(map[int64]bool),
		quota:   newDepthQuota(maxDepth),
	}
}

// WouldCycle reports whether row is already being resolved.
func (g *LinkGuard) WouldCycle(id int64) bool {
	return g.onChain[id]
}

// Enter pushes row onto the chain. It fails with a LINK_CYCLE error if the
// row is already on the chain and LINK_DEPTH_EXCEEDED if the chain is full.
// Every successful Enter must be paired with Leave.
func (g *LinkGuard) Enter(row ir.Row) error {
	if g.WouldCycle(row.ID) {
		return NewCycleError(row, g.Chain())
	}
	if err := g.quota.Check(len(g.chain)); err != nil {
		return NewDepthError(row, g.Chain(), g.quota.Limit())
	}
	g.chain = append(g.chain, row.ID)
	g.onChain[row.ID] = true
	return nil
}

// Leave pops id from the chain. Leaving a row that is not the innermost
// entry is a no-op.
func (g *LinkGuard) Leave(id int64) {
	n := len(g.chain)
	if n == 0 || g.chain[n-1] != id {
		return
	}
	g.chain = g.chain[:n-1]
	delete(g.onChain, id)
}

// Depth returns the number of links currently under resolution.
func (g *LinkGuard) Depth() int {
	return len(g.chain)
}

// Chain returns a copy of the rows under resolution, outermost first.
func (g *LinkGuard) Chain() []int64 {
	return slices.Clone(g.chain)
}
