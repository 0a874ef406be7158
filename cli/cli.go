package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/ardnew/geodeck/cli/cmd"
	"github.com/ardnew/geodeck/geom"
	"github.com/ardnew/geodeck/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// defaultDirMode is the permission mode of created directories.
const defaultDirMode os.FileMode = 0o700

// CLI is the top-level command-line interface for geodeck.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Source []string `help:"Deck fragments read as one deck, or '-' for stdin."          name:"source" short:"s" type:"existingfile"`
	Path   []string `help:"Directories searched for prototype decks."                   name:"path"   short:"P" type:"path"`
	Define []string `help:"Define a preprocessor flag for #if blocks; may be repeated." name:"define" short:"D"`

	Fmt       cmd.Fmt       `cmd:"" help:"Echo a deck in canonical form."`
	Dump      cmd.Dump      `cmd:"" help:"Summarize a deck as YAML or JSON."`
	Query     cmd.Query     `cmd:"" help:"Look up entities by class or relation."`
	Check     cmd.Check     `cmd:"" help:"Validate the references of a deck."`
	Rename    cmd.Rename    `cmd:"" help:"Give every entity an indexed name."`
	Transform cmd.Transform `cmd:"" help:"Move a deck by a rigid motion."`
	Units     cmd.Units     `cmd:"" help:"Renumber USRBIN output units."`
	Grid      cmd.Grid      `cmd:"" help:"Build a gridded deck from a layout document."`
	Insert    cmd.Insert    `cmd:"" help:"Place a deck inside regions of another."`
	Wrap      cmd.Wrap      `cmd:"" help:"Surround a deck with a blackhole shell."`
	Repl      cmd.Repl      `cmd:"" help:"Browse a deck interactively."`
	Version   cmd.Version   `cmd:"" help:"Print the version."`
}

// Run executes the geodeck CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath + ".yaml",
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"transformName":      geom.DefaultTransformName,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags apply before parsing so that parse errors are logged in
	// the requested format.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx), configFilePath+".yaml"),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)
	ctx = cmd.WithDefines(ctx, cli.Define)
	ctx = cmd.WithLibrary(ctx, pkg.SearchPath(cli.Path...))

	cli.Log.start(ctx)

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
