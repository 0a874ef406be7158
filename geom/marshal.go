package geom

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// MarshalJSON implements json.Marshaler for Geometry.
func (g *Geometry) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.ToMap())
}

// ToMap converts g to a native map summarizing its entities.
func (g *Geometry) ToMap() map[string]any {
	result := map[string]any{
		"title": g.Title,
	}

	bodies := make([]any, len(g.Bodies))
	for i, b := range g.Bodies {
		bodies[i] = b.ToMap()
	}

	regions := make([]any, len(g.Regions))
	for i, r := range g.Regions {
		regions[i] = r.ToMap()
	}

	transforms := make([]any, len(g.Transforms))
	for i, t := range g.Transforms {
		transforms[i] = t.ToMap()
	}

	scorings := make([]any, 0, len(g.Bins)+len(g.Scorings))
	for s := range g.AllScorings() {
		scorings = append(scorings, scoringMap(s))
	}

	result["bodies"] = bodies
	result["regions"] = regions
	result["transforms"] = transforms
	result["scorings"] = scorings

	return result
}

// ToMap converts b to a native map.
func (b *Body) ToMap() map[string]any {
	m := map[string]any{
		"name":   b.Name,
		"shape":  b.Shape,
		"params": append([]float64(nil), b.Params...),
	}

	if b.Transform != nil {
		m["transform"] = b.Transform.Label()
	}

	return m
}

// ToMap converts r to a native map.
func (r *Region) ToMap() map[string]any {
	zones := make([]any, len(r.Zones))
	for i, z := range r.Zones {
		zones[i] = strings.TrimSpace(z.String())
	}

	m := map[string]any{
		"name":      r.Name,
		"material":  r.Material,
		"neighbors": r.Neighbors,
		"zones":     zones,
	}

	if r.IsLattice() {
		lat := map[string]any{"name": r.LatticeName}
		if r.LatticeTransform != nil {
			lat["transform"] = r.LatticeTransform.Label()
		}

		m["lattice"] = lat
	}

	if r.Cont != ContNone {
		m["containment"] = map[string]any{
			"tag":    r.Cont.String(),
			"center": r.Center[:],
		}
	}

	return m
}

// ToMap converts t to a native map. The net motion is omitted when a step
// cannot be composed.
func (t *Transformation) ToMap() map[string]any {
	steps := make([]any, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = map[string]any{
			"axis":        s.Axis,
			"polar":       s.Polar,
			"azimuth":     s.Azimuth,
			"translation": s.Translation[:],
		}
	}

	m := map[string]any{
		"name":  t.Label(),
		"id":    t.ID,
		"steps": steps,
	}

	if net, err := t.Net(); err == nil {
		rows := make([]any, len(net.R))
		for i, row := range net.R {
			rows[i] = row[:]
		}

		m["net"] = map[string]any{
			"rotation":    rows,
			"translation": net.T[:],
		}
	}

	return m
}

func scoringMap(s Scoring) map[string]any {
	m := map[string]any{
		"name": s.Name(),
		"kind": s.Kind().String(),
		"unit": s.Unit(),
	}

	switch s := s.(type) {
	case *Usrbin:
		bins := make([]int, 0, 3)

		for ax := 1; ax <= 3; ax++ {
			if n, err := s.NBins(ax); err == nil {
				bins = append(bins, n)
			}
		}

		m["bins"] = bins

		if s.Transform != nil {
			m["transform"] = s.Transform.Label()
		}

	case *RegionScoring:
		m["regions"] = s.Regions()
	}

	return m
}

// FormatJSON writes the summary of g as JSON to w.
func (g *Geometry) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(g, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(g)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the summary of g as YAML to w. A non-positive indent
// selects flow style.
func (g *Geometry) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, g.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(data))

	return err
}
