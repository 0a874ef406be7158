package geom

import (
	"fmt"
	"strings"

	"github.com/ardnew/geodeck/rot"
)

// Containment is the transient tag used by the region mapper.
type Containment int

// Containment tags.
const (
	ContNone      Containment = 0
	ContContainer Containment = 1
	ContContained Containment = -1
)

func (c Containment) String() string {
	switch c {
	case ContContainer:
		return "container"
	case ContContained:
		return "contained"
	default:
		return "none"
	}
}

// Region defaults.
const (
	DefaultNeighbors = 5
	DefaultMaterial  = "BLACKHOLE"
)

// TermKind distinguishes the tokens of a zone expression.
type TermKind byte

// Term kinds.
const (
	TermBody  TermKind = iota // signed body reference
	TermOpen                  // signed opening parenthesis
	TermClose                 // closing parenthesis
	TermUnion                 // '|' nested inside parentheses
)

// Term is one token of a zone expression.
type Term struct {
	Kind TermKind
	Op   byte   // '+', '-', or 0
	Name string // body name as read
	Body *Body  // resolved body, nil when unknown
}

// BodyName returns the current name of the referenced body.
func (t Term) BodyName() string {
	if t.Body != nil {
		return t.Body.Name
	}

	return t.Name
}

func (t Term) String() string {
	var op string
	if t.Op != 0 {
		op = string(t.Op)
	}

	switch t.Kind {
	case TermOpen:
		return op + "("
	case TermClose:
		return ")"
	case TermUnion:
		return "|"
	default:
		return op + t.BodyName()
	}
}

// Zone is one union term of a region: an intersection of signed bodies.
type Zone struct {
	Terms   []Term
	Comment string // comment lines printed ahead of the zone
}

func (z Zone) String() string {
	parts := make([]string, len(z.Terms))
	for i, t := range z.Terms {
		parts[i] = t.String()
	}

	return strings.Join(parts, " ")
}

// Bodies returns the names of the bodies referenced by the zone.
func (z Zone) Bodies() []string {
	var names []string

	for _, t := range z.Terms {
		if t.Kind == TermBody {
			names = append(names, t.BodyName())
		}
	}

	return names
}

// Region is a named boolean combination of bodies filled with one material.
type Region struct {
	Name      string
	Neighbors int
	Zones     []Zone
	Material  string
	Comment   string

	LatticeName      string
	LatticeTransform *Transformation

	Cont   Containment
	Center rot.Vec
	MaxLen float64
}

// NewRegion returns a region with default neighbor hint and material.
func NewRegion(name string, zones ...Zone) *Region {
	return &Region{
		Name:      name,
		Neighbors: DefaultNeighbors,
		Zones:     zones,
		Material:  DefaultMaterial,
	}
}

// Label returns the region name.
func (r *Region) Label() string { return r.Name }

// IsLattice reports whether the region is a lattice cell.
func (r *Region) IsLattice() bool { return r.LatticeName != "" }

// Flag sets the containment tag and its geometric data.
func (r *Region) Flag(c Containment, center rot.Vec, maxLen float64) {
	r.Cont, r.Center, r.MaxLen = c, center, maxLen
}

// Unflag resets the containment tag.
func (r *Region) Unflag() { r.Flag(ContNone, rot.Vec{}, 0) }

// AddZone appends a zone parsed from expr.
func (r *Region) AddZone(expr string) error {
	zones, err := parseZones([]string{expr})
	if err != nil {
		return err
	}

	r.Zones = append(r.Zones, zones...)

	return nil
}

// Bodies returns the distinct body names referenced by the region in
// first-seen order.
func (r *Region) Bodies() []string {
	var (
		names []string
		seen  = map[string]bool{}
	)

	for _, z := range r.Zones {
		for _, n := range z.Bodies() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}

	return names
}

// Absorb folds o into r: every non-empty zone of r is intersected with
// every non-empty zone of o, the neighbor hints add up, and the containment
// tag is reset. When r has no zones it takes those of o.
func (r *Region) Absorb(o *Region, copyComment bool) {
	r.Comment = joinComment(r.Comment,
		fmt.Sprintf("* --> merged with region %s <--", o.Name))

	if copyComment {
		r.Comment = joinComment(r.Comment, o.Comment)
	}

	mine, theirs := nonEmpty(r.Zones), nonEmpty(o.Zones)

	var merged []Zone

	switch {
	case len(mine) == 0:
		for j, z := range theirs {
			merged = append(merged, Zone{
				Terms: append([]Term(nil), z.Terms...),
				Comment: joinComment(z.Comment, fmt.Sprintf(
					"* taking zone %s:%d into %s", o.Name, j+1, r.Name)),
			})
		}

	default:
		for i, a := range mine {
			for j, b := range theirs {
				terms := make([]Term, 0, len(a.Terms)+len(b.Terms))
				terms = append(append(terms, a.Terms...), b.Terms...)

				merged = append(merged, Zone{
					Terms: terms,
					Comment: fmt.Sprintf("* merging zone %s:%d into %s:%d",
						o.Name, j+1, r.Name, i+1),
				})
			}
		}
	}

	if len(merged) > 0 {
		r.Zones = merged
	}

	r.Neighbors += o.Neighbors
	r.Unflag()
}

func nonEmpty(zones []Zone) []Zone {
	out := make([]Zone, 0, len(zones))

	for _, z := range zones {
		if len(z.Terms) > 0 {
			out = append(out, z)
		}
	}

	return out
}

// regionIndent aligns continuation zones under the first one.
const (
	regionIndent = 16
	regionWidth  = 130
)

// String renders the region record without its leading comment.
func (r *Region) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-8s   %4d ", r.Name, r.Neighbors)

	union := len(r.Zones) > 1

	for i, z := range r.Zones {
		if i > 0 {
			b.WriteByte('\n')
			writeComment(&b, z.Comment)
			b.WriteString(strings.Repeat(" ", regionIndent))
		}

		col := regionIndent

		if union {
			b.WriteString("| ")
			col += 2
		}

		for k, t := range z.Terms {
			s := t.String()
			if k > 0 {
				if col+1+len(s) > regionWidth {
					b.WriteByte('\n')
					b.WriteString(strings.Repeat(" ", regionIndent+2))
					col = regionIndent + 2
				} else {
					b.WriteByte(' ')
					col++
				}
			}

			b.WriteString(s)
			col += len(s)
		}
	}

	return b.String()
}

// head returns the comments printed ahead of the region record.
func (r *Region) head() string {
	if len(r.Zones) > 0 {
		return joinComment(r.Comment, r.Zones[0].Comment)
	}

	return r.Comment
}

// clone returns a deep copy. Body and transform handles are remapped by
// the caller.
func (r *Region) clone() *Region {
	c := *r
	c.Zones = make([]Zone, len(r.Zones))

	for i, z := range r.Zones {
		c.Zones[i] = Zone{Terms: append([]Term(nil), z.Terms...), Comment: z.Comment}
	}

	return &c
}

// parseRegion reads a region record: the header line, then continuation
// lines, with comment lines interleaved.
func parseRegion(lines []string) (*Region, error) {
	var (
		r    = NewRegion("")
		body []string
	)

	for _, line := range lines {
		if r.Name == "" && !isComment(line) {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, fmt.Errorf(
					"region record needs a name and a neighbor count, got %d fields",
					len(fields))
			}

			n, err := parseNumber(fields[1])
			if err != nil {
				return nil, fmt.Errorf("region %s neighbor count: %w", fields[0], err)
			}

			r.Name, r.Neighbors = fields[0], nearInt(n)
			rest := strings.TrimSpace(line)
			rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
			rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[1]))
			body = append(body, rest)

			continue
		}

		body = append(body, line)
	}

	if r.Name == "" {
		return nil, fmt.Errorf("region record has no header line")
	}

	zones, err := parseZones(body)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", r.Name, err)
	}

	r.Zones = zones

	return r, nil
}

// parseZones tokenizes a zone expression spread over lines. Comment lines
// attach to the zone holding the next token.
func parseZones(lines []string) ([]Zone, error) {
	var (
		zones   []Zone
		cur     Zone
		depth   int
		comment string
	)

	add := func(t Term) {
		if comment != "" {
			cur.Comment = joinComment(cur.Comment, comment)
			comment = ""
		}

		cur.Terms = append(cur.Terms, t)
	}

	flush := func() {
		if len(cur.Terms) > 0 {
			zones = append(zones, cur)
		}

		cur = Zone{}
	}

	for _, line := range lines {
		if isComment(line) {
			comment = joinComment(comment, strings.TrimRight(line, " \t"))

			continue
		}

		for i := 0; i < len(line); {
			c := line[i]

			switch {
			case c == ' ' || c == '\t':
				i++

			case c == '|' && depth == 0:
				flush()

				i++

			case c == '|':
				add(Term{Kind: TermUnion})
				i++

			case c == '(':
				add(Term{Kind: TermOpen})
				depth++
				i++

			case c == ')':
				if depth == 0 {
					return nil, fmt.Errorf("unbalanced ')' in zone expression")
				}

				add(Term{Kind: TermClose})
				depth--
				i++

			case c == '+' || c == '-':
				j := i + 1
				for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
					j++
				}

				if j < len(line) && line[j] == '(' {
					add(Term{Kind: TermOpen, Op: c})
					depth++
					i = j + 1

					continue
				}

				name, n := scanName(line[j:])
				if name == "" {
					return nil, fmt.Errorf("operator %q without a body name", c)
				}

				add(Term{Kind: TermBody, Op: c, Name: name})
				i = j + n

			default:
				name, n := scanName(line[i:])
				add(Term{Kind: TermBody, Name: name})
				i += n
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unbalanced '(' in zone expression")
	}

	flush()

	if comment != "" && len(zones) > 0 {
		last := &zones[len(zones)-1]
		last.Comment = joinComment(last.Comment, comment)
	}

	return zones, nil
}

func scanName(s string) (string, int) {
	n := strings.IndexAny(s, " \t|()+-")
	if n < 0 {
		n = len(s)
	}

	if n == 0 {
		n = 1 // unknown single character, kept as a name
	}

	return s[:n], n
}

// assignma renders the material assignment of r.
func (r *Region) assignma() string {
	return fmt.Sprintf("%-10s%10s%10s", kwAssignma, r.Material, r.Name)
}

// lattice renders the LATTICE card of r.
func (r *Region) lattice() string {
	tr := ""
	if r.LatticeTransform != nil {
		tr = r.LatticeTransform.Label()
	}

	return fmt.Sprintf("%-10s%10s%10s%10s", kwLattice, r.LatticeName, r.Name, tr)
}
