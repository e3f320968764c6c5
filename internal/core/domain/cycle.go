package domain

import "strings"

// Edge is a directed dependency edge: From depends on To.
type Edge struct {
	From string
	To   string
}

func (e Edge) String() string {
	return e.From + " -> " + e.To
}

// Cycle is an ordered sequence of packages forming a loop, plus the edge that closes it.
type Cycle struct {
	Path        []string
	ClosingEdge Edge
}

// Description renders the cycle as "a -> b -> c -> a".
func (c Cycle) Description() string {
	if len(c.Path) == 0 {
		return ""
	}
	return strings.Join(c.Path, " -> ") + " -> " + c.ClosingEdge.To
}
