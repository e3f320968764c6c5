package domain

import "slices"

// Declaration is a raw package declaration: a decided version plus its direct dependencies.
// This is the input representation before resolution (e.g., from pinlock.yaml).
type Declaration struct {
	Name         PackageName
	Version      Version
	Integrity    [IntegritySize]byte
	TarballURL   string
	Dependencies []PackageName
}

// Resolution converts the declaration into a resolution with the given dependency list.
func (d Declaration) Resolution(deps []PackageName) PackageResolution {
	return PackageResolution{
		Name:         d.Name,
		Version:      d.Version,
		Integrity:    d.Integrity,
		TarballURL:   d.TarballURL,
		Dependencies: deps,
	}
}

// Manifest is the set of declarations a resolution pass starts from.
type Manifest struct {
	// Path is the file the manifest was loaded from, if any.
	Path string

	// Roots are the direct dependencies of the project.
	Roots []PackageName

	// Packages maps normalized names to their declarations.
	Packages map[string]Declaration

	// Workspace holds packages resolved from local sources.
	Workspace map[string]Version
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Packages:  make(map[string]Declaration),
		Workspace: make(map[string]Version),
	}
}

// Declaration looks up a declared package.
func (m *Manifest) Declaration(name string) (Declaration, bool) {
	d, ok := m.Packages[NormalizeName(name)]
	return d, ok
}

// IsWorkspace reports whether name is a workspace-local package.
func (m *Manifest) IsWorkspace(name string) bool {
	_, ok := m.Workspace[NormalizeName(name)]
	return ok
}

// Graph builds a dependency graph from every declared edge.
func (m *Manifest) Graph() *DependencyGraph {
	g := NewDependencyGraph()
	for _, name := range m.PackageNames() {
		g.AddNode(name)
		for _, dep := range m.Packages[name].Dependencies {
			g.AddEdge(name, dep.String())
		}
	}
	for name := range m.Workspace {
		g.AddNode(name)
	}
	return g
}

// PackageNames returns the declared package names, sorted.
func (m *Manifest) PackageNames() []string {
	names := make([]string, 0, len(m.Packages))
	for n := range m.Packages {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
