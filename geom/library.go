package geom

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// DeckExt is the extension tried when a prototype name has none.
const DeckExt = ".inp"

// Library loads prototype decks from a search path. Each distinct deck
// content is parsed once; callers get independent copies. A Library is safe
// for concurrent use.
type Library struct {
	dirs  []string
	opts  []Option
	cache sync.Map // content key -> *libraryEntry
}

type libraryEntry struct {
	once sync.Once
	geo  *Geometry
	err  error
}

// NewLibrary returns a library searching dirs in order. The parse options
// apply to every deck it loads.
func NewLibrary(dirs []string, opts ...Option) *Library {
	return &Library{dirs: dirs, opts: opts}
}

// Dirs returns the search path.
func (l *Library) Dirs() []string { return l.dirs }

// Resolve returns the path of the deck named name: name itself when it
// exists, else the first match in the search path, trying name with
// [DeckExt] appended when it has no extension.
func (l *Library) Resolve(name string) (string, error) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, name+DeckExt)
	}

	for _, c := range candidates {
		if isFile(c) {
			return c, nil
		}
	}

	if !filepath.IsAbs(name) {
		for _, dir := range l.dirs {
			for _, c := range candidates {
				if p := filepath.Join(dir, c); isFile(p) {
					return p, nil
				}
			}
		}
	}

	return "", ErrLookup.With(
		slog.String("deck", name),
		slog.String("path", strings.Join(l.dirs, string(os.PathListSeparator))),
	).Wrapf("deck %q not found", name)
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// Load returns a copy of the geometry of the deck named name.
func (l *Library) Load(ctx context.Context, name string) (*Geometry, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("path", path))
	}

	o := makeOptions(l.opts...)
	key := l.key(data, o)

	value, hit := l.cache.LoadOrStore(key, new(libraryEntry))
	entry, _ := value.(*libraryEntry)

	o.logger.TraceContext(ctx, "library lookup",
		slog.String("path", path),
		slog.String("key", key),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		// #define adds to the flag set, so each parse gets its own.
		opts := append(append([]Option(nil), l.opts...),
			WithSource(path), WithDefines(NewDefines(o.defines.Names()...)))
		entry.geo, entry.err = ParseString(ctx, string(data), opts...)
	})

	if entry.err != nil {
		return nil, entry.err
	}

	return entry.geo.Clone(), nil
}

// key identifies deck content parsed under the options that change the
// result.
func (l *Library) key(data []byte, o options) string {
	h := xxh3.Hash(data)
	h ^= xxh3.HashString(strings.Join(o.defines.Names(), "\x00"))

	if o.regionsOnly {
		h = ^h
	}

	return strconv.FormatUint(h, 36)
}
