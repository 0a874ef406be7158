package geom

import (
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// All is the target selecting every entity of a class.
const All = "ALL"

// Selector names an entity class or a derived relation for [Geometry.Ret].
type Selector int

// Selectors.
const (
	SelBody Selector = iota
	SelRegion
	SelLattice
	SelTransform
	SelBin
	SelScoring
	SelUsryield
	SelUsrbdx
	SelUsrtrack
	SelUsrcoll
	SelBodiesInRegion
	SelTransformOfBody
	SelTransformOfLattice
	SelTransformOfBin
	SelBinsInUnit
)

var selectorKeyword = [...]string{
	SelBody:               "BOD",
	SelRegion:             "REG",
	SelLattice:            "LAT",
	SelTransform:          "TRANSF",
	SelBin:                "BIN",
	SelScoring:            "SCO",
	SelUsryield:           "USRYIELD",
	SelUsrbdx:             "USRBDX",
	SelUsrtrack:           "USRTRACK",
	SelUsrcoll:            "USRCOLL",
	SelBodiesInRegion:     "BODSINREG",
	SelTransformOfBody:    "TRANSFLINKEDTOBODY",
	SelTransformOfLattice: "TRANSFLINKEDTOLAT",
	SelTransformOfBin:     "TRANSFLINKEDTOUSRBIN",
	SelBinsInUnit:         "BININUNIT",
}

var selectorAlias = map[string]Selector{
	"BODY":   SelBody,
	"REGION": SelRegion,
	"USRBIN": SelBin,
}

func (s Selector) String() string {
	if s < 0 || int(s) >= len(selectorKeyword) {
		return "Selector(" + strconv.Itoa(int(s)) + ")"
	}

	return selectorKeyword[s]
}

// Selectors returns the keywords accepted by [ParseSelector].
func Selectors() []string {
	out := append([]string(nil), selectorKeyword[:]...)

	return append(out, slices.Sorted(maps.Keys(selectorAlias))...)
}

// ParseSelector maps a keyword (case-insensitive) to its selector.
func ParseSelector(s string) (Selector, error) {
	key := strings.ToUpper(strings.TrimSpace(s))

	for i, kw := range selectorKeyword {
		if kw == key {
			return Selector(i), nil
		}
	}

	if sel, ok := selectorAlias[key]; ok {
		return sel, nil
	}

	err := ErrUsage.With(slog.String("selector", s))

	if hint := suggest(key, Selectors()); len(hint) > 0 {
		return 0, err.Wrapf("unknown selector %q (did you mean %s?)",
			s, strings.Join(hint, ", "))
	}

	return 0, err.Wrapf("unknown selector %q", s)
}

// suggest returns up to three fuzzy matches of s among candidates.
func suggest(s string, candidates []string) []string {
	if s == "" {
		return nil
	}

	var out []string

	for _, m := range fuzzy.Find(s, candidates) {
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}

	return out
}

// Match is the ordered result of a query.
type Match struct {
	Items   []Entity
	Indices []int    // position of each item in its collection
	Missing []string // referenced names with no entity, for relation queries
}

// First returns the first match, or (nil, -1) when nothing matched.
func (m Match) First() (Entity, int) {
	if len(m.Items) == 0 {
		return nil, -1
	}

	return m.Items[0], m.Indices[0]
}

// Len returns the number of matches.
func (m Match) Len() int { return len(m.Items) }

// Labels returns the names of the matched entities.
func (m Match) Labels() []string {
	out := make([]string, len(m.Items))
	for i, e := range m.Items {
		out[i] = e.Label()
	}

	return out
}

func (m *Match) add(e Entity, i int) {
	m.Items = append(m.Items, e)
	m.Indices = append(m.Indices, i)
}

// addOnce appends e unless it was already matched.
func (m *Match) addOnce(e Entity, i int) {
	for _, x := range m.Items {
		if x == e {
			return
		}
	}

	m.add(e, i)
}

// Ret resolves target within the class or relation named by sel. Name
// lookups return the first entity with that name; [All] returns every
// entity in order, de-duplicated for relations. An unknown name yields an
// empty match; a relation whose subject is unknown is an [ErrLookup] error.
func (g *Geometry) Ret(sel Selector, target string) (Match, error) {
	all := strings.EqualFold(target, All)

	switch sel {
	case SelBody:
		return byName(g.Bodies, target, all), nil

	case SelRegion:
		return byName(g.Regions, target, all), nil

	case SelTransform:
		return byName(g.Transforms, target, all), nil

	case SelBin:
		return byName(g.Bins, target, all), nil

	case SelLattice:
		var m Match

		for i, r := range g.Regions {
			if r.IsLattice() && (all || r.LatticeName == target) {
				m.add(r, i)
				if !all {
					break
				}
			}
		}

		return m, nil

	case SelScoring:
		return byName(g.Scorings, target, all), nil

	case SelUsryield, SelUsrbdx, SelUsrtrack, SelUsrcoll:
		kind := ScoringKind(int(sel-SelUsryield) + int(KindUsryield))

		var m Match

		for i, s := range g.Scorings {
			if s.kind == kind && (all || s.name == target) {
				m.add(s, i)
				if !all {
					break
				}
			}
		}

		return m, nil

	case SelBodiesInRegion:
		return g.bodiesInRegion(target, all)

	case SelTransformOfBody:
		return relation(g, g.Bodies, target, all, "body",
			func(b *Body) *Transformation { return b.Transform })

	case SelTransformOfLattice:
		var lattices []*Region

		for _, r := range g.Regions {
			if r.IsLattice() {
				lattices = append(lattices, r)
			}
		}

		return relation(g, lattices, target, all, "lattice",
			func(r *Region) *Transformation { return r.LatticeTransform })

	case SelTransformOfBin:
		return relation(g, g.Bins, target, all, "usrbin",
			func(b *Usrbin) *Transformation { return b.Transform })

	case SelBinsInUnit:
		return g.binsInUnit(target, all)
	}

	return Match{}, ErrUsage.Wrapf("unknown selector %d", int(sel))
}

func byName[E Entity](list []E, target string, all bool) Match {
	var m Match

	for i, e := range list {
		if all {
			m.add(e, i)
		} else if e.Label() == target {
			m.add(e, i)

			break
		}
	}

	return m
}

// relation collects the transformations linked from the subjects named by
// target.
func relation[E Entity](
	g *Geometry,
	subjects []E,
	target string,
	all bool,
	kind string,
	link func(E) *Transformation,
) (Match, error) {
	var m Match

	if !all {
		e, i := find(subjects, target)
		if i < 0 {
			return m, ErrLookup.With(slog.String(kind, target))
		}

		subjects = []E{e}
	}

	for _, e := range subjects {
		t := link(e)
		if t == nil {
			continue
		}

		if i := indexOf(g.Transforms, t); i >= 0 {
			m.addOnce(t, i)
		} else {
			m.Missing = append(m.Missing, t.Label())
		}
	}

	return m, nil
}

func (g *Geometry) bodiesInRegion(target string, all bool) (Match, error) {
	var (
		m    Match
		regs = g.Regions
	)

	if !all {
		r, i := g.Region(target)
		if i < 0 {
			return m, ErrLookup.With(slog.String("region", target))
		}

		regs = []*Region{r}
	}

	missing := map[string]bool{}

	for _, r := range regs {
		for _, z := range r.Zones {
			for _, t := range z.Terms {
				if t.Kind != TermBody {
					continue
				}

				b := t.Body
				i := indexOf(g.Bodies, b)

				if b == nil || i < 0 {
					b, i = g.Body(t.BodyName())
				}

				if i < 0 {
					if n := t.BodyName(); !missing[n] {
						missing[n] = true
						m.Missing = append(m.Missing, n)
					}

					continue
				}

				m.addOnce(b, i)
			}
		}
	}

	return m, nil
}

func (g *Geometry) binsInUnit(target string, all bool) (Match, error) {
	var m Match

	unit := 0

	if !all {
		v, err := strconv.ParseFloat(strings.TrimSpace(target), 64)
		if err != nil {
			return m, ErrUsage.Wrapf("unit %q is not a number", target)
		}

		unit = nearInt(v)
	}

	for i, b := range g.Bins {
		if all || int(math.Abs(float64(b.Unit()))) == unit {
			m.add(b, i)
		}
	}

	return m, nil
}
