package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// Prefix returns the base name used for the configuration and cache
// directories: the executable name with any extension removed, "__debug_bin"
// (dlv output) replaced by [Name], and leading dots stripped.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = strings.TrimSuffix(filepath.Base(id), filepath.Ext(id))

		for rex, rep := range map[*regexp.Regexp]string{
			regexp.MustCompile(`^__debug_bin\d*$`): Name,
			regexp.MustCompile(`^\.+`):             "",
		} {
			id = rex.ReplaceAllString(id, rep)
		}

		if id == "" {
			return Name
		}

		return id
	},
)

// ConfigDir returns the directory holding geodeck configuration files.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(
	func() string { return userDir(os.UserConfigDir, ".config") },
)

// CacheDir returns the directory holding REPL history and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string { return userDir(os.UserCacheDir, ".cache") },
)

func userDir(lookup func() (string, error), fallback string) string {
	dir, err := lookup()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// SearchPathEnv is the environment variable listing directories searched for
// prototype decks, separated by [os.PathListSeparator].
var SearchPathEnv = strings.ToUpper(Name) + "_PATH"

// SearchPath returns the prototype deck search path: the given directories
// first, then those listed in [SearchPathEnv]. Entries that are not existing
// directories are dropped, and duplicates keep their first position.
func SearchPath(dirs ...string) []string {
	// mung leads with the last prefix item.
	prefix := slices.Clone(dirs)
	slices.Reverse(prefix)

	joined := mung.Make(
		mung.WithSubjectItems(os.Getenv(SearchPathEnv)),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(isDir),
	).String()

	var path []string

	seen := map[string]bool{}

	for _, dir := range filepath.SplitList(joined) {
		if dir == "" || seen[dir] || !isDir(dir) {
			continue
		}

		seen[dir] = true
		path = append(path, dir)
	}

	return path
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
