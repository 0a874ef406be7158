package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/log"
)

// Fmt reads a deck and echoes it in canonical form.
type Fmt struct {
	In  DeckIn  `embed:""`
	Out DeckOut `embed:""`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	g, err := f.In.read(ctx)
	if err != nil {
		return err
	}

	return f.Out.write(ctx, g)
}

// Dump writes a summary of a deck as YAML or JSON.
type Dump struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Summary format."                          short:"f"`
	Indent int    `default:"2"                      help:"Indent width; 0 selects compact output." short:"i"`

	In DeckIn `embed:""`
}

// Run executes the dump command.
func (d *Dump) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	g, err := d.In.read(ctx)
	if err != nil {
		return err
	}

	switch d.Format {
	case "json":
		if err := g.FormatJSON(ctx, stdout(ctx), d.Indent); err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

	default:
		if err := g.FormatYAML(ctx, stdout(ctx), d.Indent); err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}
	}

	return nil
}

// Check validates the links of a deck and reports transformations shared
// between link classes.
type Check struct {
	Strict bool `help:"Treat consistency warnings as errors."`

	In DeckIn `embed:""`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	g, err := c.In.read(ctx)
	if err != nil {
		return err
	}

	if err := g.Validate(); err != nil {
		return ErrDangling.Wrap(err)
	}

	if !c.In.RegionsOnly {
		m, err := g.Ret(geom.SelBodiesInRegion, geom.All)
		if err != nil {
			return err
		}

		if len(m.Missing) > 0 {
			return ErrDangling.With(slog.Any("bodies", m.Missing)).
				Wrapf("zones refer to %d undefined bodies", len(m.Missing))
		}
	}

	warnings := g.CheckTransformations(ctx)
	for _, w := range warnings {
		log.WarnContext(ctx, "inconsistent transformation", slog.Any("warning", w))
	}

	out := stdout(ctx)

	for _, a := range g.Counts() {
		fmt.Fprintf(out, "%-12s %s\n", a.Key, a.Value)
	}

	if c.Strict && len(warnings) > 0 {
		return geom.ErrUsage.With(slog.Int("warnings", len(warnings))).
			Wrapf("transformations serve more than one link class")
	}

	return nil
}
