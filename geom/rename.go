package geom

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Name length limits of the deck format.
const (
	MaxNameLen        = 8
	MaxScoringNameLen = 10
)

// RenameOption configures [Geometry.Rename].
type RenameOption func(*renameOptions)

type renameOptions struct {
	keep      map[Selector]map[string]bool
	digits    int
	separator string
}

// Keep leaves the named entities of class sel (SelBody, SelRegion,
// SelTransform, SelBin, or SelScoring) with their current names.
func Keep(sel Selector, names ...string) RenameOption {
	return func(o *renameOptions) {
		if o.keep[sel] == nil {
			o.keep[sel] = map[string]bool{}
		}

		for _, n := range names {
			o.keep[sel][n] = true
		}
	}
}

// Digits sets the minimum width of the index in geometry names. Scoring
// names get one more digit.
func Digits(n int) RenameOption {
	return func(o *renameOptions) { o.digits = n }
}

// Separator sets the text between the prefix and the index.
func Separator(s string) RenameOption {
	return func(o *renameOptions) { o.separator = s }
}

// nameFormat returns the format of indexed names: the prefix is cut so
// that prefix, separator, and count-wide index fit in maxLen.
func nameFormat(prefix, sep string, maxLen, digits, count int) string {
	if w := len(strconv.Itoa(count)); w > digits {
		digits = w
	}

	if room := maxLen - digits - len(sep); len(prefix) > room {
		if room < 0 {
			room = 0
		}

		prefix = prefix[:room]
	}

	return fmt.Sprintf("%s%s%%0%dd", prefix, sep, digits)
}

type rename struct {
	set  func(string)
	name string
}

// Rename gives every entity the name prefix followed by its 1-based
// position in its collection, except those excluded with [Keep]. Bodies,
// regions, and transformations get 8-character names; meshes and region
// scorings get 10-character names. Lattice names follow their regions.
// References follow automatically since links are handles.
//
// All new names are computed and checked first: a zone naming an unknown
// body, or a new name clashing with a kept one, fails without renaming
// anything.
func (g *Geometry) Rename(ctx context.Context, prefix string, opts ...RenameOption) error {
	o := renameOptions{keep: map[Selector]map[string]bool{}, digits: 2}

	for _, opt := range opts {
		opt(&o)
	}

	for _, r := range g.Regions {
		for _, z := range r.Zones {
			for _, t := range z.Terms {
				if t.Kind == TermBody && t.Body == nil {
					return ErrLookup.With(
						slog.String("region", r.Name), slog.String("body", t.Name)).
						Wrapf("zone refers to a body outside the geometry")
				}
			}
		}
	}

	var plan []rename

	collect := func(sel Selector, format string, names []string, set func(int, string)) error {
		taken := map[string]bool{}
		for _, n := range names {
			if o.keep[sel][n] {
				taken[n] = true
			}
		}

		for i, n := range names {
			if o.keep[sel][n] {
				continue
			}

			nn := fmt.Sprintf(format, i+1)
			if taken[nn] {
				return ErrUsage.With(slog.String(sel.String(), nn)).
					Wrapf("new name %q clashes with a kept name", nn)
			}

			plan = append(plan, rename{set: func(s string) { set(i, s) }, name: nn})
		}

		return nil
	}

	geo := func(n int) string {
		return nameFormat(prefix, o.separator, MaxNameLen, o.digits, n)
	}

	sco := func(n int) string {
		return nameFormat(prefix, o.separator, MaxScoringNameLen, o.digits+1, n)
	}

	steps := []struct {
		sel    Selector
		format string
		names  []string
		set    func(int, string)
	}{
		{SelBody, geo(len(g.Bodies)), labels(g.Bodies), func(i int, s string) {
			g.Bodies[i].Name = s
		}},
		{SelRegion, geo(len(g.Regions)), labels(g.Regions), func(i int, s string) {
			r := g.Regions[i]
			r.Name = s
			if r.IsLattice() {
				r.LatticeName = s
			}
		}},
		{SelTransform, geo(len(g.Transforms)), labels(g.Transforms), func(i int, s string) {
			g.Transforms[i].Name = s
		}},
		{SelBin, sco(len(g.Bins)), labels(g.Bins), func(i int, s string) {
			g.Bins[i].SetName(s)
		}},
		{SelScoring, sco(len(g.Scorings)), labels(g.Scorings), func(i int, s string) {
			g.Scorings[i].SetName(s)
		}},
	}

	for _, s := range steps {
		if err := collect(s.sel, s.format, s.names, s.set); err != nil {
			return err
		}
	}

	for _, r := range plan {
		r.set(r.name)
	}

	g.logger.DebugContext(ctx, "geometry renamed",
		slog.String("prefix", prefix), slog.Int("renamed", len(plan)))

	return nil
}

func labels[E Entity](list []E) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Label()
	}

	return out
}
