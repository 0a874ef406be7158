package cmd

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/log"
	"github.com/ardnew/geodeck/pkg"
)

// DeckIn selects the deck a command reads.
type DeckIn struct {
	Deck        string `arg:"" help:"Deck file or library deck name; default reads the global sources, then stdin." name:"deck" optional:""`
	RegionsOnly bool   `       help:"Input holds region records only."`
}

func (d DeckIn) options(ctx context.Context) []geom.Option {
	opts := []geom.Option{
		geom.WithLogger(log.Default()),
		geom.WithDefines(definesFrom(ctx)),
	}

	if d.RegionsOnly {
		opts = append(opts, geom.RegionsOnly())
	}

	return opts
}

// read parses the selected deck.
func (d DeckIn) read(ctx context.Context) (*geom.Geometry, error) {
	opts := d.options(ctx)

	if d.Deck != "" && d.Deck != stdinSource {
		path, err := libraryFrom(ctx).Resolve(d.Deck)
		if err != nil {
			return nil, pkg.ErrDeckNotFound.Wrap(err)
		}

		return geom.ParseFile(ctx, path, opts...)
	}

	if src := sourceFilesFrom(ctx); d.Deck == "" && src != nil && !src.IsZero() {
		return geom.ParseReader(ctx, src, append(opts, geom.WithSource("sources"))...)
	}

	if isTerminal(os.Stdin) {
		return nil, ErrNoInput
	}

	return geom.ParseReader(ctx, os.Stdin, append(opts, geom.WithSource("stdin"))...)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()

	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// DeckOut selects where and how a command writes its deck.
type DeckOut struct {
	Output   string   `default:"-"   help:"Output deck path or '-' for stdout."                                            short:"o" type:"path"`
	Split    bool     `              help:"Spread the deck over sibling files meant for #include."`
	Sections []string `default:"all" help:"Sections to write: bodies, regions, lattices, materials, transforms, bins, scorings, all." sep:","`
}

func (o DeckOut) sections() (geom.Section, error) {
	var secs geom.Section

	for _, s := range o.Sections {
		sec, err := geom.ParseSection(s)
		if err != nil {
			return 0, ErrArgument.Wrap(err)
		}

		secs |= sec
	}

	if secs == 0 {
		secs = geom.SectionAll
	}

	return secs, nil
}

// write echoes g.
func (o DeckOut) write(ctx context.Context, g *geom.Geometry) error {
	secs, err := o.sections()
	if err != nil {
		return err
	}

	if o.Output == stdinSource {
		if o.Split {
			return ErrArgument.Wrapf("--split needs an output path")
		}

		if secs == geom.SectionAll {
			return g.Echo(stdout(ctx))
		}

		return g.EchoSections(stdout(ctx), secs)
	}

	if secs != geom.SectionAll {
		if o.Split {
			return ErrArgument.Wrapf("--split writes every section")
		}

		return writeSections(g, o.Output, secs)
	}

	files, err := g.EchoFile(ctx, o.Output, o.Split)
	if err != nil {
		return pkg.ErrWriteDeck.Wrap(err)
	}

	log.InfoContext(ctx, "deck written",
		slog.String("files", strings.Join(files, ", ")))

	return nil
}

func writeSections(g *geom.Geometry, path string, secs geom.Section) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return pkg.ErrWriteDeck.Wrap(err)
	}

	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = pkg.ErrWriteDeck.Wrap(cerr)
		}
	}()

	return g.EchoSections(f, secs)
}
