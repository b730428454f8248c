package engine

import "fmt"

// DefaultMaxLinkDepth is the default number of links that may be under
// resolution at once.
const DefaultMaxLinkDepth = 32

// depthQuota bounds how deep a link chain may grow.
//
// Together with the cycle check in LinkGuard it guarantees that link
// resolution terminates: cycles are caught when a row repeats, long acyclic
// chains when they reach the limit.
type depthQuota struct {
	limit int
}

func newDepthQuota(limit int) *depthQuota {
	return &depthQuota{limit: limit}
}

// Check validates that one more link may be entered at the given depth.
func (q *depthQuota) Check(depth int) error {
	if depth >= q.limit {
		return fmt.Errorf("link depth %d >= limit %d", depth, q.limit)
	}
	return nil
}

// Limit returns the maximum depth.
func (q *depthQuota) Limit() int {
	return q.limit
}
