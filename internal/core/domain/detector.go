package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// CyclePolicy decides what a CircularDependencyDetector does when it meets a cycle.
type CyclePolicy int

const (
	// PolicyError aborts the traversal with ErrCircularDependency.
	PolicyError CyclePolicy = iota
	// PolicyWarn records the cycle, reports it and skips the closing edge.
	PolicyWarn
	// PolicyBreak records the cycle and the closing edge, and skips that edge silently.
	PolicyBreak
)

func (p CyclePolicy) String() string {
	switch p {
	case PolicyError:
		return "error"
	case PolicyWarn:
		return "warn"
	case PolicyBreak:
		return "break"
	default:
		return "unknown"
	}
}

// ParseCyclePolicy parses "error", "warn" or "break", case-insensitively.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return PolicyError, nil
	case "warn":
		return PolicyWarn, nil
	case "break":
		return PolicyBreak, nil
	default:
		return PolicyError, zerr.With(zerr.Wrap(ErrInvalidPolicy, "unknown policy"), "policy", s)
	}
}

// DetectorOption configures a CircularDependencyDetector.
type DetectorOption func(*CircularDependencyDetector)

// WithReporter sets the sink that receives cycles under PolicyWarn.
func WithReporter(fn func(Cycle)) DetectorOption {
	return func(d *CircularDependencyDetector) {
		d.reporter = fn
	}
}

// CircularDependencyDetector tracks the current path of a recursive dependency walk.
// Each package is unvisited, on the current path, or fully visited.
// A detector is not safe for concurrent use; use one per traversal.
type CircularDependencyDetector struct {
	policy   CyclePolicy
	reporter func(Cycle)

	path    []string
	onPath  map[string]int
	visited map[string]struct{}

	cycles []Cycle
	broken []Edge
}

// NewCircularDependencyDetector creates a detector with a fixed policy.
func NewCircularDependencyDetector(policy CyclePolicy, opts ...DetectorOption) *CircularDependencyDetector {
	d := &CircularDependencyDetector{
		policy:  policy,
		onPath:  make(map[string]int),
		visited: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enter is called before descending into name. It returns true when the caller should descend.
// It returns false for packages that are already fully visited, and for cycle-closing edges
// under the warn and break policies. Under the error policy a cycle is returned as an error.
func (d *CircularDependencyDetector) Enter(name string) (bool, error) {
	n := NormalizeName(name)

	if idx, ok := d.onPath[n]; ok {
		cycle := Cycle{
			Path:        slices.Clone(d.path[idx:]),
			ClosingEdge: Edge{From: d.path[len(d.path)-1], To: n},
		}
		d.cycles = append(d.cycles, cycle)

		switch d.policy {
		case PolicyWarn:
			if d.reporter != nil {
				d.reporter(cycle)
			}
			return false, nil
		case PolicyBreak:
			d.broken = append(d.broken, cycle.ClosingEdge)
			return false, nil
		default:
			return false, zerr.With(
				zerr.Wrap(ErrCircularDependency, "circular dependency detected"),
				"cycle", cycle.Description(),
			)
		}
	}

	if _, ok := d.visited[n]; ok {
		return false, nil
	}

	d.onPath[n] = len(d.path)
	d.path = append(d.path, n)
	return true, nil
}

// Leave pops the path back to and including name, and marks name fully visited.
func (d *CircularDependencyDetector) Leave(name string) {
	n := NormalizeName(name)
	if idx, ok := d.onPath[n]; ok {
		for _, p := range d.path[idx:] {
			delete(d.onPath, p)
		}
		d.path = d.path[:idx]
	}
	d.visited[n] = struct{}{}
}

// Policy returns the detector's policy.
func (d *CircularDependencyDetector) Policy() CyclePolicy {
	return d.policy
}

// CurrentPath returns a copy of the packages currently being descended.
func (d *CircularDependencyDetector) CurrentPath() []string {
	return slices.Clone(d.path)
}

// Depth returns the length of the current path.
func (d *CircularDependencyDetector) Depth() int {
	return len(d.path)
}

// Cycles returns the cycles met so far.
func (d *CircularDependencyDetector) Cycles() []Cycle {
	return slices.Clone(d.cycles)
}

// BrokenEdges returns the edges skipped under PolicyBreak.
func (d *CircularDependencyDetector) BrokenEdges() []Edge {
	return slices.Clone(d.broken)
}

// HasCycles reports whether any cycle was met.
func (d *CircularDependencyDetector) HasCycles() bool {
	return len(d.cycles) > 0
}
