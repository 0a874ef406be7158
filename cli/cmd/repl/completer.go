package repl

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/geodeck/geom"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "echo", "edit", "clear", "quit"}

// wordBounds returns the whitespace-delimited word at the cursor position and
// its byte boundaries within input. Returns an empty word when the cursor
// sits on whitespace.
func wordBounds(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if unicode.IsSpace(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if unicode.IsSpace(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// wordIndex returns the 0-based position of the word starting at wordStart.
func wordIndex(input string, wordStart int) int {
	return len(strings.Fields(input[:wordStart]))
}

// subjectClass returns the entity class whose names a selector takes as its
// target.
func subjectClass(sel geom.Selector) geom.Selector {
	switch sel {
	case geom.SelBodiesInRegion:
		return geom.SelRegion
	case geom.SelTransformOfBody:
		return geom.SelBody
	case geom.SelTransformOfBin:
		return geom.SelBin
	default:
		return sel
	}
}

// targetCandidates returns the names sel accepts as a target in g, plus
// [geom.All].
func targetCandidates(g *geom.Geometry, sel geom.Selector) []string {
	names := []string{geom.All}

	switch sel {
	case geom.SelLattice:
		for _, r := range g.Regions {
			if r.IsLattice() {
				names = append(names, r.LatticeName)
			}
		}

	case geom.SelTransformOfLattice:
		for _, r := range g.Regions {
			if r.IsLattice() {
				names = append(names, r.Name)
			}
		}

	case geom.SelBinsInUnit:
		for _, b := range g.Bins {
			u := strconv.Itoa(int(math.Abs(float64(b.Unit()))))
			if !slices.Contains(names, u) {
				names = append(names, u)
			}
		}

	default:
		m, err := g.Ret(subjectClass(sel), geom.All)
		if err != nil {
			return names
		}

		for _, l := range m.Labels() {
			if !slices.Contains(names, l) {
				names = append(names, l)
			}
		}
	}

	return names
}

// queryCandidates returns the completions for the word at position index of
// a query: selectors first, then the names the selector accepts.
func queryCandidates(g *geom.Geometry, input string, index int) []string {
	switch index {
	case 0:
		return geom.Selectors()

	case 1:
		fields := strings.Fields(input)
		if len(fields) == 0 {
			return nil
		}

		sel, err := geom.ParseSelector(fields[0])
		if err != nil {
			return nil
		}

		return targetCandidates(g, sel)

	default:
		return nil
	}
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. An empty first word yields no matches so the hint stays
// visible; an empty target word lists every candidate.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, ws, we := wordBounds(input, cursor)
	wordStart, wordEnd = ws, we
	index := wordIndex(input, wordStart)

	if m.mode == modeCtrl {
		if word == "" || index > 0 {
			return nil, nil, wordStart, wordEnd
		}

		candidates = ctrlCommands
	} else {
		candidates = queryCandidates(m.geo, input, index)

		if word == "" {
			if index == 0 || len(candidates) == 0 {
				return nil, nil, wordStart, wordEnd
			}

			matches = make(fuzzy.Matches, len(candidates))
			for i, c := range candidates {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, candidates, wordStart, wordEnd
		}
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	matches = fuzzy.Find(word, candidates)

	return matches, candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. Each candidate is rendered with its matched
// characters highlighted. The selected candidate (when tabbing) uses the
// selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		selected := tabActive && i == suggIdx
		rendered := renderCandidate(match, selected)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		ch := string(r)
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(ch))
		} else {
			b.WriteString(baseStyle.Render(ch))
		}
	}

	return b.String()
}
