package cmd

import (
	"context"

	"github.com/ardnew/geodeck/cli/cmd/repl"
	"github.com/ardnew/geodeck/log"
)

// Repl browses a deck interactively.
type Repl struct {
	History string `default:"${cache}" help:"Directory holding the input history." type:"path"`

	In DeckIn `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) {
		cancel(*err)
	}(&err)

	g, err := r.In.read(ctx)
	if err != nil {
		return err
	}

	return repl.Run(ctx, g, r.In.options(ctx), r.History, log.Default())
}
