package geom

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ardnew/geodeck/rot"
)

// ScoringKind identifies a scoring card family.
type ScoringKind int

// Scoring card families.
const (
	KindUsrbin ScoringKind = iota
	KindUsryield
	KindUsrbdx
	KindUsrtrack
	KindUsrcoll
)

var scoringKeyword = [...]string{
	KindUsrbin:   kwUsrbin,
	KindUsryield: kwUsryield,
	KindUsrbdx:   kwUsrbdx,
	KindUsrtrack: kwUsrtrack,
	KindUsrcoll:  kwUsrcoll,
}

// String returns the card keyword.
func (k ScoringKind) String() string {
	if k < 0 || int(k) >= len(scoringKeyword) {
		return "UNKNOWN"
	}

	return scoringKeyword[k]
}

// scoringKindOf returns the family introduced by a card keyword.
func scoringKindOf(text string) (ScoringKind, bool) {
	for k, kw := range scoringKeyword {
		if strings.HasPrefix(text, kw) {
			return ScoringKind(k), true
		}
	}

	return 0, false
}

// regionSlots gives the WHAT indices (0-based) holding region names on the
// first card of each region-based family.
var regionSlots = map[ScoringKind][]int{
	KindUsryield: {3, 4},
	KindUsrbdx:   {3, 4},
	KindUsrtrack: {3},
	KindUsrcoll:  {3},
}

// Scoring is a scoring detector: a USRBIN mesh or one of the region-based
// estimators. The set of implementations is closed.
type Scoring interface {
	Label() string
	Name() string
	SetName(name string)
	Kind() ScoringKind
	Unit() int
	SetUnit(unit int)
	Comment() string

	base() *card
}

// card holds the two physical lines of a scoring detector. Only the WHAT
// area (columns 11-70) of each line is kept; the keyword and SDUM are
// regenerated on echo.
type card struct {
	kind       ScoringKind
	name       string
	what       [2]string
	companions []string // AUXSCORE lines
	comment    string
}

func (c *card) base() *card { return c }
func (c *card) Label() string { return c.name }
func (c *card) Name() string { return c.name }
func (c *card) SetName(name string) { c.name = name }
func (c *card) Kind() ScoringKind { return c.kind }
func (c *card) Comment() string { return c.comment }
func (c *card) field(l, i int) string { return c.what[l][i*fieldWidth : (i+1)*fieldWidth] }

func (c *card) number(l, i int) float64 {
	v, _ := parseNumber(c.field(l, i)) // validated at parse time

	return v
}

func (c *card) setNumber(l, i int, v float64) {
	c.what[l] = splice(c.what[l], i*fieldWidth, (i+1)*fieldWidth, formatFixed(v))
}

// Unit returns the signed output unit in WHAT(3).
func (c *card) Unit() int {
	u := c.number(0, 2)
	if u < 0 {
		return -nearInt(u)
	}

	return nearInt(u)
}

// SetUnit writes |unit| into WHAT(3), keeping the current sign, which
// selects binary or formatted output.
func (c *card) SetUnit(unit int) {
	v := math.Abs(float64(unit))
	if c.number(0, 2) < 0 {
		v = -v
	}

	c.setNumber(0, 2, v)
}

func (c *card) clone() card {
	d := *c
	d.companions = append([]string(nil), c.companions...)

	return d
}

func (c *card) echo(b *strings.Builder, lead string) {
	writeComment(b, c.comment)

	for _, l := range c.companions {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	b.WriteString(lead)

	kw := c.kind.String()
	fmt.Fprintf(b, "%-10s%60s%-10s\n", kw, c.what[0], c.name)
	fmt.Fprintf(b, "%-10s%60s%-10s\n", kw, c.what[1], kwContinue)
}

// Usrbin is a USRBIN mesh detector.
type Usrbin struct {
	card

	Transform *Transformation // ROTPRBIN link
}

// Usrbin binning types.
const (
	BinCartesian     = 0
	BinCartesianStep = 10
)

// Type returns the binning type in WHAT(1).
func (u *Usrbin) Type() int { return nearInt(u.number(0, 0)) }

// IsSpecial reports whether the mesh is region- or special-binned, with no
// numeric extents.
func (u *Usrbin) IsSpecial() bool {
	switch u.Type() {
	case 2, 12, 8, 18:
		return true
	}

	return false
}

// IsCartesian reports whether the mesh is a Cartesian box.
func (u *Usrbin) IsCartesian() bool {
	t := u.Type()

	return t == BinCartesian || t == BinCartesianStep
}

func checkAxis(axis int) error {
	if axis < 1 || axis > 3 {
		return ErrUsage.Wrapf("mesh axis %d out of range [1,3]", axis)
	}

	return nil
}

// NBins returns the number of bins along axis (1, 2, or 3).
func (u *Usrbin) NBins(axis int) (int, error) {
	if err := checkAxis(axis); err != nil {
		return 0, err
	}

	if u.IsSpecial() {
		return 0, ErrUsage.Wrapf("USRBIN %s has special binning", u.name)
	}

	return nearInt(u.number(1, 2+axis)), nil
}

// SetNBins sets the number of bins along axis.
func (u *Usrbin) SetNBins(axis, n int) error {
	if err := checkAxis(axis); err != nil {
		return err
	}

	u.setNumber(1, 2+axis, float64(n))

	return nil
}

// Extremes returns the mesh bounds along axis.
func (u *Usrbin) Extremes(axis int) (lo, hi float64, err error) {
	if err := checkAxis(axis); err != nil {
		return 0, 0, err
	}

	return u.number(1, axis-1), u.number(0, 2+axis), nil
}

// SetExtremes sets the mesh bounds along axis.
func (u *Usrbin) SetExtremes(axis int, lo, hi float64) error {
	if err := checkAxis(axis); err != nil {
		return err
	}

	u.setNumber(1, axis-1, lo)
	u.setNumber(0, 2+axis, hi)

	return nil
}

// Resize changes the length of the mesh along axis 3 to about length,
// keeping its center and bin width; the bin count is rounded to the
// nearest integer.
func (u *Usrbin) Resize(axis int, length float64) error {
	if axis != 3 {
		return ErrUsage.Wrapf("USRBIN %s can only be resized along axis 3", u.name)
	}

	n, err := u.NBins(axis)
	if err != nil {
		return err
	}

	lo, hi, _ := u.Extremes(axis)
	delta := hi - lo

	if n == 0 || delta == 0 {
		return ErrUsage.Wrapf("USRBIN %s has a degenerate axis %d", u.name, axis)
	}

	step := delta / float64(n)
	mean := (hi + lo) / 2
	nn := int(math.Floor(length/delta*float64(n) + 0.5))

	if err := u.SetExtremes(axis, mean-0.5*float64(nn)*step, mean+0.5*float64(nn)*step); err != nil {
		return err
	}

	return u.SetNBins(axis, nn)
}

// Move shifts a Cartesian mesh by d.
func (u *Usrbin) Move(d rot.Vec) error {
	if !u.IsCartesian() {
		return ErrUsage.With(
			slog.String("usrbin", u.name), slog.Int("type", u.Type())).
			Wrapf("only Cartesian meshes can be moved")
	}

	for ax := 1; ax <= 3; ax++ {
		if d[ax-1] == 0 {
			continue
		}

		lo, hi, _ := u.Extremes(ax)
		if err := u.SetExtremes(ax, lo+d[ax-1], hi+d[ax-1]); err != nil {
			return err
		}
	}

	return nil
}

func (u *Usrbin) echo(b *strings.Builder) {
	var lead string

	if u.Transform != nil {
		lead = fmt.Sprintf("%-10s%10s%10s%10s%10s\n",
			kwRotprbin, "", u.Transform.Label(), "", u.name)
	}

	u.card.echo(b, lead)
}

func (u *Usrbin) clone() *Usrbin {
	return &Usrbin{card: u.card.clone(), Transform: u.Transform}
}

// RegionScoring is a region-based estimator: USRYIELD, USRBDX, USRTRACK,
// or USRCOLL.
type RegionScoring struct {
	card

	regions []*Region // resolved handles, parallel to regionSlots
}

// Regions returns the names of the regions the estimator refers to.
func (s *RegionScoring) Regions() []string {
	slots := regionSlots[s.kind]
	names := make([]string, len(slots))

	for i, slot := range slots {
		if i < len(s.regions) && s.regions[i] != nil {
			names[i] = s.regions[i].Name
		} else {
			names[i] = strings.TrimSpace(s.field(0, slot))
		}
	}

	return names
}

// SetRegion links the i-th region slot (0-based) to r.
func (s *RegionScoring) SetRegion(i int, r *Region) error {
	slots := regionSlots[s.kind]
	if i < 0 || i >= len(slots) {
		return ErrUsage.Wrapf("%s has %d region slots", s.kind, len(slots))
	}

	for len(s.regions) < len(slots) {
		s.regions = append(s.regions, nil)
	}

	s.regions[i] = r

	return nil
}

// sync writes the current region names into the WHAT fields.
func (s *RegionScoring) sync() {
	for i, slot := range regionSlots[s.kind] {
		if i < len(s.regions) && s.regions[i] != nil {
			s.what[0] = splice(s.what[0], slot*fieldWidth, (slot+1)*fieldWidth,
				fmt.Sprintf("%10s", s.regions[i].Name))
		}
	}
}

func (s *RegionScoring) echo(b *strings.Builder) {
	s.sync()
	s.card.echo(b, "")
}

func (s *RegionScoring) clone() *RegionScoring {
	return &RegionScoring{
		card:    s.card.clone(),
		regions: append([]*Region(nil), s.regions...),
	}
}

// parseScoring builds a detector from its two card lines.
func parseScoring(kind ScoringKind, lines [2]string) (Scoring, error) {
	c := card{kind: kind}

	for i, l := range lines {
		c.what[i] = column(l, whatStart, sdumStart)

		for _, j := range numericSlots(kind, i) {
			if _, err := parseNumber(c.field(i, j)); err != nil {
				return nil, fmt.Errorf("%s WHAT(%d) on line %d: %w", kind, j+1, i+1, err)
			}
		}
	}

	c.name = strings.TrimSpace(column(lines[0], sdumStart, lineWidth))
	if c.name == "" {
		return nil, fmt.Errorf("%s card without a detector name", kind)
	}

	if kind == KindUsrbin {
		return &Usrbin{card: c}, nil
	}

	return &RegionScoring{card: c}, nil
}

// numericSlots returns the WHAT indices of line read as numbers. Particle
// and region fields may hold names.
func numericSlots(kind ScoringKind, line int) []int {
	switch {
	case kind == KindUsrbin && line == 0:
		return []int{0, 2, 3, 4, 5}
	case kind == KindUsrbin:
		return []int{0, 1, 2, 3, 4, 5}
	case line == 0:
		return []int{2}
	}

	return nil
}
