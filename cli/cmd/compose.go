package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/layout"
	"github.com/ardnew/geodeck/log"
)

// Grid builds a gridded geometry from a layout document.
type Grid struct {
	Layout string `arg:"" help:"Layout document (YAML)." type:"existingfile"`

	Out DeckOut `embed:""`
}

// Run executes the grid command.
func (g *Grid) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	doc, err := layout.DecodeFile(ctx, g.Layout)
	if err != nil {
		return err
	}

	geo, err := doc.Build(ctx, libraryFrom(ctx), log.Default())
	if err != nil {
		return geom.WrapError(err).With(slog.String("layout", g.Layout))
	}

	return g.Out.write(ctx, geo)
}

// Insert places a guest deck inside regions of the input deck.
type Insert struct {
	Guest string   `arg:""       help:"Guest deck file or library deck name."`
	Into  []string `required:""  help:"Input deck regions receiving the guest."  sep:","`
	Outer []string `required:""  help:"Guest regions folded into those regions." sep:","`

	In  DeckIn  `embed:""`
	Out DeckOut `embed:""`
}

// Run executes the insert command.
func (i *Insert) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	host, err := i.In.read(ctx)
	if err != nil {
		return err
	}

	guest, err := libraryFrom(ctx).Load(ctx, i.Guest)
	if err != nil {
		return err
	}

	g, err := geom.Insert(ctx, host, guest, i.Outer, i.Into)
	if err != nil {
		return err
	}

	return i.Out.write(ctx, g)
}

// Wrap surrounds a deck with a spherical blackhole shell.
type Wrap struct {
	Outer    []string `required:""          help:"Regions folded into the inner sphere." sep:","`
	RMin     float64  `default:"10000"      help:"Inner shell radius."`
	RMax     float64  `default:"100000"     help:"Outer shell radius."`
	Material string   `default:"VACUUM"     help:"Material of the inner sphere."`

	In  DeckIn  `embed:""`
	Out DeckOut `embed:""`
}

// Run executes the wrap command.
func (w *Wrap) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	g, err := w.In.read(ctx)
	if err != nil {
		return err
	}

	wrapped, err := geom.WrapBlackhole(ctx, g, w.Outer, w.RMin, w.RMax, w.Material)
	if err != nil {
		return err
	}

	return w.Out.write(ctx, wrapped)
}
