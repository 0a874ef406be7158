package geom

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Defines is the set of boolean preprocessor flags visible to a deck.
// It is threaded explicitly through parsing and grows as #define
// directives are read.
type Defines map[string]struct{}

// NewDefines returns a flag set holding names.
func NewDefines(names ...string) Defines {
	d := make(Defines, len(names))
	for _, n := range names {
		d.Define(n)
	}

	return d
}

// Define adds name to the set.
func (d Defines) Define(name string) { d[name] = struct{}{} }

// Has reports whether name is defined.
func (d Defines) Has(name string) bool {
	_, ok := d[name]

	return ok
}

// Names returns the defined names in sorted order.
func (d Defines) Names() []string { return slices.Sorted(maps.Keys(d)) }

// Line is one active physical line of a deck.
type Line struct {
	Num  int    // 1-based physical line number
	Text string // without trailing newline
}

// condStack tracks nested conditional blocks. A line is visible when the top
// frame is active; a frame can only be active when its parent is.
type condStack struct {
	stack []condFrame
}

type condFrame struct {
	parentActive bool
	taken        bool // some branch of this block matched
	active       bool
	line         int
}

func (c *condStack) Depth() int { return len(c.stack) }

func (c *condStack) Active() bool {
	if len(c.stack) == 0 {
		return true
	}

	return c.stack[len(c.stack)-1].active
}

func (c *condStack) Push(cond bool, line int) {
	parent := c.Active()
	c.stack = append(c.stack, condFrame{
		parentActive: parent,
		taken:        cond,
		active:       parent && cond,
		line:         line,
	})
}

// Elif replaces the test of the innermost block. Unlike C, an earlier
// matching branch does not mask a later one; it only disables #else.
func (c *condStack) Elif(cond bool) bool {
	if len(c.stack) == 0 {
		return false
	}

	top := &c.stack[len(c.stack)-1]
	top.active = top.parentActive && cond
	top.taken = top.taken || cond

	return true
}

func (c *condStack) Else() bool {
	if len(c.stack) == 0 {
		return false
	}

	top := &c.stack[len(c.stack)-1]
	top.active = top.parentActive && !top.taken
	top.taken = true

	return true
}

func (c *condStack) Pop() bool {
	if len(c.stack) == 0 {
		return false
	}

	c.stack = c.stack[:len(c.stack)-1]

	return true
}

func (c *condStack) UnclosedLine() int {
	if len(c.stack) == 0 {
		return 0
	}

	return c.stack[len(c.stack)-1].line
}

// directive names, longest first so that #ifdef is not read as #if.
var directives = []string{
	"#define", "#ifdef", "#if", "#elif", "#else", "#endif", "#end",
}

func directiveOf(text string) (name, arg string, ok bool) {
	if !strings.HasPrefix(text, "#") {
		return "", "", false
	}

	for _, d := range directives {
		if strings.HasPrefix(text, d) {
			return d, strings.TrimSpace(text[len(d):]), true
		}
	}

	word, _, _ := strings.Cut(text, " ")

	return word, "", true
}

// Preprocess filters src through the conditional directives and yields the
// active lines with their physical line numbers. Definitions are recorded in
// defs even inside inactive blocks. The sequence stops after the first
// error, which is always a *ParseError.
//
// The returned sequence is single-use when src is.
func Preprocess(src iter.Seq[string], defs Defines) iter.Seq2[Line, error] {
	if defs == nil {
		defs = NewDefines()
	}

	return func(yield func(Line, error) bool) {
		var (
			cond condStack
			num  int
		)

		for text := range src {
			num++
			text = strings.TrimRight(text, "\r\n")

			name, arg, ok := directiveOf(text)
			if !ok {
				if cond.Active() && !yield(Line{Num: num, Text: text}, nil) {
					return
				}

				continue
			}

			if err := directive(&cond, defs, name, arg, num, text); err != nil {
				yield(Line{Num: num, Text: text}, err)

				return
			}
		}

		if cond.Depth() != 0 {
			line := cond.UnclosedLine()
			yield(Line{}, parseErrorf(0, "",
				"conditional block opened at line %d is never closed", line))
		}
	}
}

func directive(
	cond *condStack, defs Defines, name, arg string, num int, text string,
) error {
	fields := strings.Fields(arg)

	switch name {
	case "#define":
		switch len(fields) {
		case 0:
			return parseErrorf(num, text, "#define without a name")
		case 1:
			defs.Define(fields[0])
		default:
			return parseErrorf(num, text,
				"valued #define %s is not supported", fields[0])
		}

	case "#if", "#ifdef":
		if len(fields) != 1 {
			return parseErrorf(num, text, "%s expects one name", name)
		}

		cond.Push(defs.Has(fields[0]), num)

	case "#elif":
		if len(fields) != 1 {
			return parseErrorf(num, text, "#elif expects one name")
		}

		if !cond.Elif(defs.Has(fields[0])) {
			return parseErrorf(num, text, "#elif outside a conditional block")
		}

	case "#else":
		if !cond.Else() {
			return parseErrorf(num, text, "#else outside a conditional block")
		}

	case "#end", "#endif":
		if !cond.Pop() {
			return parseErrorf(num, text, "%s without a matching #if", name)
		}

	default:
		return parseErrorf(num, text, "unsupported directive %s", name)
	}

	return nil
}
