// Package render formats lockfile data for the terminal.
// Styling is applied only when the destination is a terminal and NO_COLOR is unset.
package render

import (
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/lockfmt"
	"golang.org/x/term"
)

// TimeLayout is how timestamps are printed.
const TimeLayout = "2006-01-02T15:04:05Z07:00"

// Renderer writes human-readable reports to a writer.
type Renderer struct {
	w      io.Writer
	styled bool
	st     styles
}

// New creates a Renderer for w, styling output if w is a terminal.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w, styled: isTerminal(w), st: newStyles()}
}

// NewPlain creates a Renderer that never styles its output.
func NewPlain(w io.Writer) *Renderer {
	return &Renderer{w: w, st: newStyles()}
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // File descriptors fit in int
}

func (r *Renderer) paint(s lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) flush(b *strings.Builder) error {
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Freeze prints one "name==version" line per package.
func (r *Renderer) Freeze(pkgs []domain.PackageResolution) error {
	var b strings.Builder
	for _, p := range pkgs {
		b.WriteString(p.Name.String())
		b.WriteString("==")
		b.WriteString(p.Version.String())
		if notes := flagNotes(p); notes != "" {
			b.WriteString("  ")
			b.WriteString(r.paint(r.st.dim, "# "+notes))
		}
		b.WriteByte('\n')
	}
	return r.flush(&b)
}

func flagNotes(p domain.PackageResolution) string {
	var notes []string
	if p.Workspace {
		notes = append(notes, "workspace")
	}
	if p.BrokenEdges {
		notes = append(notes, "cycle broken")
	}
	return strings.Join(notes, ", ")
}

// Table prints packages as aligned columns.
func (r *Renderer) Table(pkgs []domain.PackageResolution) error {
	rows := make([][]string, 0, len(pkgs))
	for _, p := range pkgs {
		rows = append(rows, []string{
			p.Name.String(),
			p.Version.String(),
			orDash(strings.Join(p.DependencyNames(), ",")),
			orDash(flagNotes(p)),
		})
	}

	var b strings.Builder
	r.table(&b, []string{"NAME", "VERSION", "DEPENDENCIES", "FLAGS"}, rows)
	b.WriteString(r.paint(r.st.dim, strconv.Itoa(len(pkgs))+" "+plural(len(pkgs), "package", "packages")))
	b.WriteByte('\n')
	return r.flush(&b)
}

// table pads every column but the last to its widest cell.
func (r *Renderer) table(b *strings.Builder, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style *lipgloss.Style) {
		for i, cell := range cells {
			text := cell
			if i < len(cells)-1 {
				text += strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2)
			}
			if style != nil {
				text = r.paint(*style, text)
			}
			b.WriteString(text)
		}
		b.WriteByte('\n')
	}

	line(header, &r.st.header)
	for _, row := range rows {
		line(row, nil)
	}
}

// Resolution prints a single resolved package.
func (r *Renderer) Resolution(p domain.PackageResolution) error {
	var b strings.Builder
	b.WriteString(r.paint(r.st.header, p.Name.String()))
	b.WriteString(" ")
	b.WriteString(p.Version.String())
	b.WriteByte('\n')
	field(&b, "url", orDash(p.TarballURL))
	field(&b, "integrity", Integrity(p.Integrity))
	field(&b, "dependencies", orDash(strings.Join(p.DependencyNames(), ", ")))
	if notes := flagNotes(p); notes != "" {
		field(&b, "flags", notes)
	}
	return r.flush(&b)
}

// Missing prints a package name that could not be resolved.
func (r *Renderer) Missing(name string) error {
	var b strings.Builder
	b.WriteString(r.paint(r.st.bad, Cross+" "+name+": not locked"))
	b.WriteByte('\n')
	return r.flush(&b)
}

// CheckReport is the outcome of a static graph check.
type CheckReport struct {
	Nodes      int
	Edges      int
	Cycles     []domain.Cycle
	Components [][]string
	Order      []string
	Acyclic    bool
}

// Check prints a graph check report.
func (r *Renderer) Check(c CheckReport) error {
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.Nodes) + " " + plural(c.Nodes, "package", "packages") + ", ")
	b.WriteString(strconv.Itoa(c.Edges) + " " + plural(c.Edges, "edge", "edges") + "\n")

	if len(c.Cycles) == 0 {
		b.WriteString(r.paint(r.st.ok, Check+" no cycles"))
		b.WriteByte('\n')
	} else {
		b.WriteString(r.paint(r.st.bad, Cross+" "+strconv.Itoa(len(c.Cycles))+" "+plural(len(c.Cycles), "cycle", "cycles")))
		b.WriteByte('\n')
		for _, cycle := range c.Cycles {
			b.WriteString("  " + cycle.Description() + "\n")
		}
	}

	if len(c.Components) > 0 {
		b.WriteString("components:\n")
		for _, comp := range c.Components {
			b.WriteString("  " + strings.Join(comp, ", ") + "\n")
		}
	}

	if c.Acyclic {
		b.WriteString("install order: " + orDash(strings.Join(c.Order, ", ")) + "\n")
	} else {
		b.WriteString(r.paint(r.st.warn, "install order: none (cycles present)"))
		b.WriteByte('\n')
	}
	return r.flush(&b)
}

// Verify prints an integrity report for a lockfile.
func (r *Renderer) Verify(path string, rep lockfmt.Report) error {
	var b strings.Builder
	b.WriteString(r.paint(r.st.header, path))
	b.WriteByte('\n')
	field(&b, "size", strconv.Itoa(rep.Size)+" bytes")

	if rep.Size >= lockfmt.HeaderSize {
		field(&b, "magic", okOr(rep.MagicValid, "invalid"))
		field(&b, "version", strconv.FormatUint(uint64(rep.Major), 10)+"."+strconv.FormatUint(uint64(rep.Minor), 10))
		field(&b, "packages", strconv.FormatUint(uint64(rep.PackageCount), 10))
		field(&b, "clock", rep.Clock.String())
		field(&b, "hash", okOr(rep.HashMatches(), "mismatch"))
		field(&b, "conflicts", strconv.Itoa(rep.ConflictCount))
	}

	if rep.OK() {
		b.WriteString(r.paint(r.st.ok, Check+" valid"))
	} else {
		b.WriteString(r.paint(r.st.bad, Cross+" "+rep.Err.Error()))
	}
	b.WriteByte('\n')
	return r.flush(&b)
}

// Conflicts prints unresolved merge conflicts.
func (r *Renderer) Conflicts(conflicts []domain.Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	var b strings.Builder
	for _, c := range conflicts {
		b.WriteString(r.paint(r.st.warn, Warning+" conflict "+c.Description()))
		b.WriteByte('\n')
	}
	return r.flush(&b)
}

// Names prints one name per line.
func (r *Renderer) Names(names []string) error {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return r.flush(&b)
}

// History prints stored snapshots.
func (r *Renderer) History(snaps []domain.Snapshot) error {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ShortDigest(),
			strconv.Itoa(s.Packages),
			orDash(s.Clock),
			s.Timestamp.Format(TimeLayout),
			s.Lockfile,
		})
	}
	var b strings.Builder
	r.table(&b, []string{"DIGEST", "PACKAGES", "CLOCK", "CREATED", "LOCKFILE"}, rows)
	return r.flush(&b)
}

// Audit prints journaled runs.
func (r *Renderer) Audit(runs []domain.AuditRun) error {
	var b strings.Builder
	for _, run := range runs {
		status := r.paint(r.st.ok, Check)
		if run.Finished.IsZero() {
			status = r.paint(r.st.bad, Cross)
		}
		b.WriteString(status + " " + run.Started.Format(TimeLayout) + "  " + run.Command + "  " + run.Lockfile)
		b.WriteString("  " + strconv.Itoa(run.Packages) + " " + plural(run.Packages, "package", "packages"))
		b.WriteString("  " + r.paint(r.st.dim, shortID(run.ID)) + "\n")
		for _, e := range run.BrokenEdges {
			b.WriteString("    broke " + e.String() + "\n")
		}
		for _, c := range run.Conflicts {
			b.WriteString("    conflict " + c + "\n")
		}
	}
	return r.flush(&b)
}

// Digests prints integrity digests in the style of sha256sum.
func (r *Renderer) Digests(digests []domain.FileDigest) error {
	var b strings.Builder
	for _, d := range digests {
		b.WriteString(Integrity(d.Integrity) + "  " + d.Path + "\n")
	}
	return r.flush(&b)
}

// Integrity renders a digest as hex, or "-" when it is unset.
func Integrity(sum [domain.IntegritySize]byte) string {
	if sum == ([domain.IntegritySize]byte{}) {
		return "-"
	}
	return hex.EncodeToString(sum[:])
}

func field(b *strings.Builder, name, value string) {
	b.WriteString("  ")
	b.WriteString(name)
	b.WriteString(":")
	b.WriteString(strings.Repeat(" ", max(1, 14-len(name))))
	b.WriteString(value)
	b.WriteByte('\n')
}

func okOr(ok bool, bad string) string {
	if ok {
		return "ok"
	}
	return bad
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
