// Package planner walks a manifest into a lockfile plan, detecting cycles along the way.
package planner

import (
	"context"
	"slices"
	"strconv"

	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultMaxDepth bounds the length of a dependency chain.
const DefaultMaxDepth = 256

// Options control a single planning pass.
type Options struct {
	Policy   domain.CyclePolicy
	MaxDepth int
}

// Plan is the result of walking a manifest.
type Plan struct {
	// Lockfile holds the resolved packages sorted by name, with an empty clock.
	Lockfile domain.LockfileData

	// InstallOrder lists packages with dependencies first. It is empty if the
	// recorded edges still contain a cycle (warn policy).
	InstallOrder []string

	// Acyclic reports whether the recorded edges form a DAG.
	Acyclic bool

	// Cycles are the cycles met during the walk.
	Cycles []domain.Cycle

	// BrokenEdges are the edges removed under the break policy.
	BrokenEdges []domain.Edge

	// Components are the strongly connected components with more than one member,
	// computed over every declared edge.
	Components [][]string

	// Workspace holds the workspace-local packages of the manifest.
	Workspace map[string]domain.Version
}

// Planner turns manifests into lockfile plans.
type Planner struct {
	logger ports.Logger
}

// New creates a new Planner.
func New(logger ports.Logger) *Planner {
	return &Planner{logger: logger}
}

type frame struct {
	decl   domain.Declaration
	deps   []string
	i      int
	kept   []domain.PackageName
	broken bool
}

func newFrame(decl domain.Declaration) *frame {
	deps := make([]string, len(decl.Dependencies))
	for i, d := range decl.Dependencies {
		deps[i] = d.String()
	}
	slices.Sort(deps)
	deps = slices.Compact(deps)
	return &frame{decl: decl, deps: deps, kept: make([]domain.PackageName, 0, len(deps))}
}

// Plan walks the manifest from its roots in a depth-first order using an explicit stack.
// If the manifest declares no roots, every declared package is a root.
func (p *Planner) Plan(ctx context.Context, m *domain.Manifest, opts Options) (*Plan, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	det := domain.NewCircularDependencyDetector(opts.Policy, domain.WithReporter(func(c domain.Cycle) {
		p.logger.Warn("circular dependency: " + c.Description())
	}))

	enter := func(name, dependent string) (bool, error) {
		if m.IsWorkspace(name) {
			return false, nil
		}
		if _, ok := m.Declaration(name); !ok {
			err := zerr.With(zerr.Wrap(domain.ErrMissingDependency, "package is not declared"), "package", name)
			if dependent != "" {
				err = zerr.With(err, "dependent", dependent)
			}
			return false, err
		}
		descend, err := det.Enter(name)
		if err != nil {
			return false, err
		}
		if descend && det.Depth() > maxDepth {
			err := zerr.With(zerr.Wrap(domain.ErrMaxDepthExceeded, "dependency chain too deep"), "package", name)
			return false, zerr.With(err, "max_depth", maxDepth)
		}
		return descend, nil
	}

	resolved := make(map[string]domain.PackageResolution)

	for _, root := range roots(m) {
		descend, err := enter(root, "")
		if err != nil {
			return nil, err
		}
		if !descend {
			continue
		}

		decl, _ := m.Declaration(root)
		stack := []*frame{newFrame(decl)}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			top := stack[len(stack)-1]
			name := top.decl.Name.String()
			if top.i >= len(top.deps) {
				res := top.decl.Resolution(top.kept)
				res.BrokenEdges = top.broken
				resolved[name] = res
				det.Leave(name)
				stack = stack[:len(stack)-1]
				continue
			}

			dep := top.deps[top.i]
			top.i++

			broken := len(det.BrokenEdges())
			descend, err := enter(dep, name)
			if err != nil {
				return nil, err
			}
			if len(det.BrokenEdges()) > broken {
				top.broken = true
				continue
			}

			top.kept = append(top.kept, domain.NewPackageName(dep))
			if descend {
				next, _ := m.Declaration(dep)
				stack = append(stack, newFrame(next))
			}
		}
	}

	return p.assemble(m, det, resolved), nil
}

func (p *Planner) assemble(m *domain.Manifest, det *domain.CircularDependencyDetector, resolved map[string]domain.PackageResolution) *Plan {
	packages := make([]domain.PackageResolution, 0, len(resolved)+len(m.Workspace))
	g := domain.NewDependencyGraph()
	for name, res := range resolved {
		packages = append(packages, res)
		g.AddNode(name)
		for _, dep := range res.Dependencies {
			g.AddEdge(name, dep.String())
		}
	}
	for name, v := range m.Workspace {
		packages = append(packages, domain.PackageResolution{
			Name:         domain.NewPackageName(name),
			Version:      v,
			Dependencies: []domain.PackageName{},
			Workspace:    true,
		})
		g.AddNode(name)
	}

	plan := &Plan{
		Lockfile:    domain.NewLockfileData(packages...),
		Cycles:      det.Cycles(),
		BrokenEdges: det.BrokenEdges(),
		Components:  cyclicComponents(m.Graph()),
		Workspace:   m.Workspace,
	}
	plan.InstallOrder, plan.Acyclic = g.InstallOrder()

	if len(plan.BrokenEdges) > 0 {
		p.logger.Info("broke " + pluralEdges(len(plan.BrokenEdges)) + " to resolve cycles")
	}
	return plan
}

// Analysis is a batch view of every declared edge in a manifest.
type Analysis struct {
	Nodes      int
	Edges      int
	Cycles     []domain.Cycle
	Components [][]string
	Order      []string
	Acyclic    bool
}

// Analyze runs the static graph algorithms over the whole manifest.
func (p *Planner) Analyze(m *domain.Manifest) Analysis {
	g := m.Graph()
	a := Analysis{
		Nodes:      g.Len(),
		Edges:      g.EdgeCount(),
		Cycles:     g.FindAllCycles(),
		Components: cyclicComponents(g),
	}
	a.Order, a.Acyclic = g.InstallOrder()
	return a
}

// Affected returns the packages that transitively depend on name.
func (p *Planner) Affected(m *domain.Manifest, name string) []string {
	return m.Graph().TransitiveDependents(name)
}

func roots(m *domain.Manifest) []string {
	if len(m.Roots) == 0 {
		return m.PackageNames()
	}
	out := make([]string, 0, len(m.Roots))
	for _, r := range m.Roots {
		out = append(out, r.String())
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func cyclicComponents(g *domain.DependencyGraph) [][]string {
	var out [][]string
	for _, c := range g.StronglyConnectedComponents() {
		if len(c) > 1 {
			out = append(out, c)
		}
	}
	return out
}

func pluralEdges(n int) string {
	if n == 1 {
		return "1 edge"
	}
	return strconv.Itoa(n) + " edges"
}
