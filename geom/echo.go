package geom

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Section selects a part of the deck for echo.
type Section uint

// Deck sections, in echo order.
const (
	SectionBodies Section = 1 << iota
	SectionRegions
	SectionLattices
	SectionMaterials
	SectionTransforms
	SectionBins
	SectionScorings

	SectionAll = SectionBodies | SectionRegions | SectionLattices |
		SectionMaterials | SectionTransforms | SectionBins | SectionScorings
)

var sectionKeyword = []struct {
	prefix string
	sec    Section
}{
	{"BOD", SectionBodies},
	{"REG", SectionRegions},
	{"LAT", SectionLattices},
	{"MAT", SectionMaterials},
	{"TRANSF", SectionTransforms},
	{"BIN", SectionBins},
	{"SCO", SectionScorings},
}

// ParseSection maps a section keyword (matched by prefix, case-insensitive)
// to its section. "ALL" selects the whole deck.
func ParseSection(s string) (Section, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if key == All {
		return SectionAll, nil
	}

	for _, k := range sectionKeyword {
		if key != "" && strings.HasPrefix(key, k.prefix) {
			return k.sec, nil
		}
	}

	return 0, ErrUsage.Wrapf("unknown deck section %q", s)
}

const (
	separator = "* "
	combName  = "COMBNAME"
)

// writeSection renders one section wrapped by separator comments.
func (g *Geometry) writeSection(b *strings.Builder, sec Section) {
	b.WriteString(separator + "\n")

	switch sec {
	case SectionBodies:
		for _, body := range g.Bodies {
			writeComment(b, body.Comment)

			if body.Transform != nil {
				fmt.Fprintf(b, "$start_transform %s\n", body.Transform.Label())
			}

			b.WriteString(body.String())
			b.WriteByte('\n')

			if body.Transform != nil {
				b.WriteString("$end_transform\n")
			}
		}

	case SectionRegions:
		for _, r := range g.Regions {
			writeComment(b, r.head())
			b.WriteString(r.String())
			b.WriteByte('\n')
		}

	case SectionLattices:
		for _, r := range g.Regions {
			if r.IsLattice() {
				b.WriteString(r.lattice())
				b.WriteByte('\n')
			}
		}

	case SectionMaterials:
		for _, r := range g.Regions {
			b.WriteString(r.assignma())
			b.WriteByte('\n')
		}

	case SectionTransforms:
		b.WriteString(kwFree + " \n")

		for _, t := range g.Transforms {
			t.echoSteps(b)
		}

		b.WriteString(kwFixed + " \n")

	case SectionBins:
		for _, u := range g.Bins {
			u.echo(b)
		}

	case SectionScorings:
		for _, s := range g.Scorings {
			s.echo(b)
		}
	}

	b.WriteString(separator + "\n")
}

func (g *Geometry) hasLattice() bool {
	for _, r := range g.Regions {
		if r.IsLattice() {
			return true
		}
	}

	return false
}

// present reports whether sec has anything to echo. Bodies, regions, and
// materials are always echoed.
func (g *Geometry) present(sec Section) bool {
	switch sec {
	case SectionLattices:
		return g.hasLattice()
	case SectionTransforms:
		return len(g.Transforms) > 0
	case SectionBins:
		return len(g.Bins) > 0
	case SectionScorings:
		return len(g.Scorings) > 0
	}

	return true
}

func (g *Geometry) writeTitle(b *strings.Builder) {
	fmt.Fprintf(b, "% 5d% 5d%10s%s\n", 0, 0, "", g.Title)
}

// writeGeometry renders the title through the lattice cards.
func (g *Geometry) writeGeometry(b *strings.Builder) {
	g.writeTitle(b)
	g.writeSection(b, SectionBodies)
	fmt.Fprintf(b, "%-10s\n", kwEnd)
	g.writeSection(b, SectionRegions)
	fmt.Fprintf(b, "%-10s\n", kwEnd)

	if g.present(SectionLattices) {
		g.writeSection(b, SectionLattices)
	}
}

// String renders the whole deck.
func (g *Geometry) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-10s%60s%-10s\n", kwGeoBegin, "", combName)
	g.writeGeometry(&b)
	fmt.Fprintf(&b, "%-10s\n", kwGeoEnd)

	for _, sec := range []Section{
		SectionTransforms, SectionMaterials, SectionBins, SectionScorings,
	} {
		if g.present(sec) {
			g.writeSection(&b, sec)
		}
	}

	return b.String()
}

// Echo writes the whole deck to w after checking its links.
func (g *Geometry) Echo(w io.Writer) error {
	if err := g.Validate(); err != nil {
		return err
	}

	if _, err := io.WriteString(w, g.String()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// EchoSections writes the selected sections to w, each wrapped by
// separator comments.
func (g *Geometry) EchoSections(w io.Writer, secs Section) error {
	if err := g.Validate(); err != nil {
		return err
	}

	var b strings.Builder

	for _, k := range sectionKeyword {
		if secs&k.sec != 0 && g.present(k.sec) {
			g.writeSection(&b, k.sec)
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// Split file suffixes.
const (
	SuffixBodies    = "_bodies.inp"
	SuffixRegions   = "_regions.inp"
	SuffixLattices  = "_lattices.inp"
	SuffixMaterials = "_assignmats.inp"
	SuffixRotDefis  = "_rotdefis.inp"
	SuffixScorings  = "_scorings.inp"
)

// EchoFile writes the deck to path. A path without an .inp or .geo
// extension gets .inp. With split, or for a .geo path, the deck is spread
// over sibling files meant for #include: a .geo file holds the title
// through the lattice cards, and the other sections go to files named
// after path with the Suffix* endings. It returns the files written.
func (g *Geometry) EchoFile(ctx context.Context, path string, split bool) ([]string, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	ext := filepath.Ext(path)
	if ext != ".inp" && ext != ".geo" {
		path, ext = path+".inp", ".inp"
	}

	files := map[string]*strings.Builder{}
	order := []string{}

	out := func(name string) *strings.Builder {
		if b, ok := files[name]; ok {
			return b
		}

		b := &strings.Builder{}
		files[name] = b
		order = append(order, name)

		return b
	}

	sibling := func(suffix string) string {
		return strings.TrimSuffix(path, ext) + suffix
	}

	switch {
	case ext == ".geo":
		g.writeGeometry(out(path))

	case split:
		g.writeSection(out(sibling(SuffixBodies)), SectionBodies)
		g.writeSection(out(sibling(SuffixRegions)), SectionRegions)

		if g.present(SectionLattices) {
			g.writeSection(out(sibling(SuffixLattices)), SectionLattices)
		}

	default:
		out(path).WriteString(g.String())
	}

	if ext == ".geo" || split {
		g.writeSection(out(sibling(SuffixMaterials)), SectionMaterials)

		if g.present(SectionTransforms) {
			g.writeSection(out(sibling(SuffixRotDefis)), SectionTransforms)
		}

		for _, sec := range []Section{SectionBins, SectionScorings} {
			if g.present(sec) {
				g.writeSection(out(sibling(SuffixScorings)), sec)
			}
		}
	}

	for _, name := range order {
		if err := os.WriteFile(name, []byte(files[name].String()), 0o644); err != nil {
			return order, ErrWriteOutput.Wrap(err).With(slog.String("path", name))
		}

		g.logger.DebugContext(ctx, "deck file written", slog.String("path", name))
	}

	g.logger.InfoContext(ctx, "deck written",
		append(g.Counts(), slog.String("path", path), slog.Int("files", len(order)))...)

	return order, nil
}
