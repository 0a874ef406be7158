package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/log"
)

// Query resolves a selector and target against a deck and prints the
// matching entities with their positions.
type Query struct {
	Selector string `arg:"" help:"Entity class or relation (BOD, REG, LAT, TRANSF, BIN, SCO, BODSINREG, ...)."`
	Target   string `arg:"" help:"Entity name, or ALL."`
	Format   string `       help:"Output format."                                                              default:"text" enum:"text,json" short:"f"`

	In DeckIn `embed:""`
}

type queryItem struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

type queryResult struct {
	Selector string      `json:"selector"`
	Target   string      `json:"target"`
	Items    []queryItem `json:"items"`
	Missing  []string    `json:"missing,omitempty"`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	sel, err := geom.ParseSelector(q.Selector)
	if err != nil {
		return err
	}

	g, err := q.In.read(ctx)
	if err != nil {
		return err
	}

	m, err := g.Ret(sel, q.Target)
	if err != nil {
		return err
	}

	for _, name := range m.Missing {
		log.WarnContext(ctx, "referenced body not defined", slog.String("body", name))
	}

	// relations with a known subject may legitimately be empty
	if m.Len() == 0 && sel < geom.SelBodiesInRegion && !strings.EqualFold(q.Target, geom.All) {
		return geom.ErrLookup.With(slog.String("selector", sel.String())).
			Wrapf("no entity named %q", q.Target)
	}

	res := queryResult{
		Selector: sel.String(),
		Target:   q.Target,
		Items:    make([]queryItem, m.Len()),
		Missing:  m.Missing,
	}

	for i, e := range m.Items {
		res.Items[i] = queryItem{Index: m.Indices[i], Name: e.Label()}
	}

	out := stdout(ctx)

	if q.Format == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		_, err = fmt.Fprintln(out, string(data))

		return err
	}

	for _, it := range res.Items {
		fmt.Fprintf(out, "%5d  %s\n", it.Index, it.Name)
	}

	return nil
}
