package geom

import (
	"bufio"
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/ardnew/geodeck/log"
)

// Option configures parsing and geometry construction.
type Option func(*options)

type options struct {
	logger      log.Logger
	defines     Defines
	into        *Geometry
	source      string
	regionsOnly bool
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.defines == nil {
		o.defines = NewDefines()
	}

	return o
}

// WithLogger sets the logger. The zero logger discards everything.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDefines sets the preprocessor flags.
func WithDefines(d Defines) Option {
	return func(o *options) { o.defines = d }
}

// RegionsOnly parses a deck fragment holding region records only.
func RegionsOnly() Option {
	return func(o *options) { o.regionsOnly = true }
}

// Into accumulates the parsed entities into g instead of a new geometry.
func Into(g *Geometry) Option {
	return func(o *options) { o.into = g }
}

// WithSource names the input in errors and log records.
func WithSource(name string) Option {
	return func(o *options) { o.source = name }
}

type state int

const (
	stateOutside state = iota
	stateTitle
	stateBodies
	stateRegions
	stateLattice
)

func (s state) String() string {
	switch s {
	case stateOutside:
		return "outside"
	case stateTitle:
		return "title"
	case stateBodies:
		return "bodies"
	case stateRegions:
		return "regions"
	case stateLattice:
		return "lattice"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// parser is the section state machine fed one active line at a time.
type parser struct {
	g     *Geometry
	state state
	free  bool

	comment []string // buffered comment lines

	// open region record
	region     []string
	regionLine int

	// open scoring card
	scoring     []string
	scoringKind ScoringKind
	scoringAt   int
	scoringNote []string // comments read inside the card
	companions  []string // AUXSCORE lines
	rotprbin    string   // transform named by ROTPRBIN

	// transforms referenced before their ROT-DEFI cards
	pending map[string]*Transformation
}

// Parse reads a deck from a sequence of physical lines.
func Parse(ctx context.Context, lines iter.Seq[string], opts ...Option) (*Geometry, error) {
	o := makeOptions(opts...)

	g := o.into
	if g == nil {
		g = &Geometry{logger: o.logger}
	}

	p := &parser{g: g, pending: map[string]*Transformation{}}
	if o.regionsOnly {
		p.state = stateRegions
	}

	located := func(err error) error {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Source == "" {
			pe.Source = o.source
		}

		return err
	}

	for line, err := range Preprocess(lines, o.defines) {
		if err != nil {
			return nil, located(err)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := p.feed(line); err != nil {
			return nil, located(err)
		}
	}

	if err := p.finish(o.regionsOnly); err != nil {
		return nil, located(err)
	}

	for name := range p.pending {
		o.logger.WarnContext(ctx, "transformation never defined",
			slog.String("transform", name), slog.String("source", o.source))
	}

	o.logger.DebugContext(ctx, "deck parsed",
		append(g.Counts(), slog.String("source", o.source))...)

	return g, nil
}

// ParseString reads a deck held in memory.
func ParseString(ctx context.Context, s string, opts ...Option) (*Geometry, error) {
	return Parse(ctx, strings.Lines(s), opts...)
}

// ParseReader reads a deck from r through a read-ahead buffer.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Geometry, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	var scanErr error

	lines := func(yield func(string) bool) {
		sc := bufio.NewScanner(ra)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

		for sc.Scan() {
			if !yield(sc.Text()) {
				return
			}
		}

		scanErr = sc.Err()
	}

	g, err := Parse(ctx, lines, opts...)
	if err != nil {
		return nil, err
	}

	if scanErr != nil {
		return nil, ErrReadInput.Wrap(scanErr)
	}

	return g, nil
}

// ParseFile reads the deck stored at path.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	return ParseReader(ctx, f, append([]Option{WithSource(path)}, opts...)...)
}

func (p *parser) takeComment() string {
	c := strings.Join(p.comment, "\n")
	p.comment = p.comment[:0]

	return c
}

func (p *parser) feed(l Line) error {
	// bare separators are regenerated on echo
	if p.state != stateTitle && isSeparator(l.Text) {
		return nil
	}

	switch p.state {
	case stateOutside:
		return p.outside(l)

	case stateTitle:
		p.g.Title = strings.TrimSpace(columnTail(l.Text, 20))
		p.comment = p.comment[:0]
		p.state = stateBodies

	case stateBodies:
		return p.bodies(l)

	case stateRegions:
		return p.regions(l)

	case stateLattice:
		return p.lattice(l)
	}

	return nil
}

func (p *parser) outside(l Line) error {
	text := l.Text

	if kind, ok := scoringKindOf(text); ok {
		return p.scoringLine(l, kind)
	}

	if isComment(text) {
		if len(p.scoring) > 0 {
			p.scoringNote = append(p.scoringNote, text)
		} else {
			p.comment = append(p.comment, text)
		}

		return nil
	}

	if strings.HasPrefix(text, kwRotprbin) || strings.HasPrefix(text, kwAuxscore) {
		if len(p.scoring) > 0 {
			return parseErrorf(l.Num, text, "%s inside an open %s card",
				strings.TrimSpace(column(text, 0, fieldWidth)), p.scoringKind)
		}

		return p.companion(l)
	}

	if len(p.scoring) > 0 {
		return parseErrorf(p.scoringAt, p.scoring[0],
			"%s card not closed before line %d", p.scoringKind, l.Num)
	}

	switch {
	case strings.HasPrefix(text, kwGeoBegin):
		p.reset()
		p.state = stateTitle

	case strings.HasPrefix(text, kwAssignma):
		return p.assignma(l)

	case strings.HasPrefix(text, kwRotDefi):
		return p.rotDefi(l)

	case strings.HasPrefix(text, kwFree):
		p.free = true
		p.comment = p.comment[:0]

	case strings.HasPrefix(text, kwFixed):
		p.free = false
		p.comment = p.comment[:0]

	default:
		p.reset()
	}

	return nil
}

// reset drops the comments and companion lines waiting for a card.
func (p *parser) reset() {
	p.comment = p.comment[:0]
	p.companions = nil
	p.rotprbin = ""
}

func (p *parser) companion(l Line) error {
	if strings.HasPrefix(l.Text, kwAuxscore) {
		p.companions = append(p.companions, p.comment...)
		p.companions = append(p.companions, l.Text)
		p.comment = p.comment[:0]

		return nil
	}

	name := strings.TrimSpace(column(l.Text, 2*fieldWidth, 3*fieldWidth))
	if name == "" {
		return parseErrorf(l.Num, l.Text, "ROTPRBIN without a transformation")
	}

	p.rotprbin = name

	return nil
}

func (p *parser) scoringLine(l Line, kind ScoringKind) error {
	if len(p.scoring) > 0 && kind != p.scoringKind {
		return parseErrorf(l.Num, l.Text, "%s line inside an open %s card",
			kind, p.scoringKind)
	}

	if len(p.scoring) == 0 {
		p.scoringKind, p.scoringAt = kind, l.Num
	}

	p.scoring = append(p.scoring, l.Text)

	if !strings.HasSuffix(strings.TrimSpace(column(l.Text, sdumStart, lineWidth)), kwContinue) {
		if len(p.scoring) > 1 {
			return parseErrorf(l.Num, l.Text,
				"%s card continues without the %q marker", kind, kwContinue)
		}

		return nil
	}

	if len(p.scoring) != 2 {
		return parseErrorf(l.Num, l.Text, "%s card expects 2 lines, got %d",
			kind, len(p.scoring))
	}

	s, err := parseScoring(kind, [2]string{p.scoring[0], p.scoring[1]})
	if err != nil {
		return &ParseError{Line: p.scoringAt, Text: p.scoring[0], Err: ErrStructure.Wrap(err)}
	}

	c := s.base()
	c.comment = joinComment(strings.Join(p.comment, "\n"), strings.Join(p.scoringNote, "\n"))
	c.companions = p.companions

	if u, ok := s.(*Usrbin); ok && p.rotprbin != "" {
		u.Transform = p.transform(p.rotprbin)
	}

	p.g.AddScoring(s)

	p.scoring, p.scoringNote = nil, nil
	p.reset()

	return nil
}

func (p *parser) assignma(l Line) error {
	fields := strings.FieldsFunc(l.Text, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) < 3 {
		return parseErrorf(l.Num, l.Text,
			"ASSIGNMA expects a material and a region, got %d fields", len(fields))
	}

	var (
		last string
		step = 1
	)

	if len(fields) > 3 {
		last = fields[3]
	}

	if len(fields) > 4 {
		v, err := parseNumber(fields[4])
		if err != nil {
			return parseErrorf(l.Num, l.Text, "ASSIGNMA step: %v", err)
		}

		step = nearInt(v)
	}

	// a numeric upper bound of 0 means "first region only"
	if v, err := parseNumber(last); err == nil && v == 0 {
		last = ""
	}

	p.comment = p.comment[:0]

	if err := p.g.AssignMaterial(fields[1], fields[2], last, step); err != nil {
		return &ParseError{Line: l.Num, Text: l.Text, Err: err}
	}

	return nil
}

func (p *parser) rotDefi(l Line) error {
	rd, err := parseRotDefi(l.Text, p.free)
	if err != nil {
		return &ParseError{Line: l.Num, Text: l.Text, Err: ErrStructure.Wrap(err)}
	}

	rd.step.Comment = p.takeComment()

	label := rd.name
	if label == "" {
		label = strconv.Itoa(rd.id)
	}

	if t, i := p.g.Transform(label); i >= 0 {
		t.Append(rd.step)

		return nil
	}

	t, ok := p.pending[label]
	if ok {
		delete(p.pending, label)
	} else {
		t = NewTransformation(rd.name, 0)
	}

	t.ID = rd.id
	if t.ID == 0 {
		t.ID = len(p.g.Transforms) + 1
	}

	t.Append(rd.step)
	p.g.AddTransform(t)

	return nil
}

// transform returns the handle of the transformation labeled name, creating
// a pending one when it has not been defined yet.
func (p *parser) transform(name string) *Transformation {
	if t, i := p.g.Transform(name); i >= 0 {
		return t
	}

	if t, ok := p.pending[name]; ok {
		return t
	}

	t := NewTransformation(name, 0)
	if id, err := strconv.Atoi(name); err == nil {
		t.Name, t.ID = "", id
	}

	p.pending[name] = t

	return t
}

func (p *parser) bodies(l Line) error {
	text := l.Text

	switch {
	case keyword(text) == kwEnd:
		p.comment = p.comment[:0]
		p.state = stateRegions

	case isComment(text):
		p.comment = append(p.comment, text)

	case strings.HasPrefix(text, "$"):
		return parseErrorf(l.Num, text, "geometry directives are not supported")

	case strings.TrimSpace(text) == "":

	default:
		b, err := parseBody(text)
		if err != nil {
			return &ParseError{Line: l.Num, Text: text, Err: ErrStructure.Wrap(err)}
		}

		b.Comment = p.takeComment()
		p.g.AddBody(b)
	}

	return nil
}

func (p *parser) regions(l Line) error {
	text := l.Text

	switch {
	case keyword(text) == kwEnd:
		if err := p.flushRegion(); err != nil {
			return err
		}

		p.comment = p.comment[:0]
		p.state = stateLattice

	case isComment(text):
		p.comment = append(p.comment, text)

	case strings.TrimSpace(text) == "":

	case text[0] == ' ' || text[0] == '\t':
		if len(p.region) == 0 {
			return parseErrorf(l.Num, text, "continuation line without a region")
		}

		p.region = append(p.region, p.comment...)
		p.region = append(p.region, text)
		p.comment = p.comment[:0]

	default:
		if err := p.flushRegion(); err != nil {
			return err
		}

		p.region = append(p.region, p.comment...)
		p.region = append(p.region, text)
		p.regionLine = l.Num
		p.comment = p.comment[:0]
	}

	return nil
}

// flushRegion completes the open region record. Comments ahead of the
// header become the region comment.
func (p *parser) flushRegion() error {
	if len(p.region) == 0 {
		return nil
	}

	lines := p.region
	p.region = nil

	var head []string

	for len(lines) > 0 && isComment(lines[0]) {
		head, lines = append(head, lines[0]), lines[1:]
	}

	r, err := parseRegion(lines)
	if err != nil {
		return &ParseError{Line: p.regionLine, Text: lines[0], Err: ErrStructure.Wrap(err)}
	}

	r.Comment = strings.Join(head, "\n")

	for i := range r.Zones {
		for j := range r.Zones[i].Terms {
			t := &r.Zones[i].Terms[j]
			if t.Kind == TermBody {
				t.Body, _ = p.g.Body(t.Name)
			}
		}
	}

	p.g.AddRegion(r)

	return nil
}

func (p *parser) lattice(l Line) error {
	text := l.Text

	switch {
	case strings.HasPrefix(text, kwGeoEnd):
		p.comment = p.comment[:0]
		p.state = stateOutside

	case strings.HasPrefix(text, kwLattice):
		fields := strings.Fields(text)
		if len(fields) < 3 || len(fields) > 4 {
			return parseErrorf(l.Num, text,
				"LATTICE expects a lattice, a region, and a transformation, got %d fields",
				len(fields)-1)
		}

		r, i := p.g.Region(fields[2])
		if i < 0 {
			return &ParseError{
				Line: l.Num,
				Text: text,
				Err:  ErrLookup.With(slog.String("region", fields[2])),
			}
		}

		r.LatticeName = fields[1]
		if len(fields) == 4 {
			r.LatticeTransform = p.transform(fields[3])
		}
		p.comment = p.comment[:0]
	}

	return nil
}

func (p *parser) finish(regionsOnly bool) error {
	if len(p.scoring) > 0 {
		return parseErrorf(0, p.scoring[0], "%s card not closed", p.scoringKind)
	}

	if regionsOnly && p.state == stateRegions {
		if err := p.flushRegion(); err != nil {
			return err
		}

		p.state = stateOutside
	}

	if p.state != stateOutside {
		return parseErrorf(0, "", "geometry section not closed (in %s)", p.state)
	}

	p.resolveScorings()

	return nil
}

// resolveScorings links the region slots of the region scorings.
func (p *parser) resolveScorings() {
	for _, s := range p.g.Scorings {
		for i, name := range s.Regions() {
			if r, j := p.g.Region(name); j >= 0 {
				_ = s.SetRegion(i, r)
			}
		}
	}
}
