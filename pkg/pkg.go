//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of geodeck embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name, also used for config/cache directories and
	// the search path environment variable.
	Name = "geodeck"
	// Description is a short summary used in help output.
	Description = "Combinatorial geometry deck compositor"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
