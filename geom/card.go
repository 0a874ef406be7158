package geom

import (
	"math"
	"strconv"
	"strings"
)

// Fixed-format layout: an 80-column line carries a 10-column keyword,
// six 10-column WHAT fields, and a 10-column SDUM.
const (
	fieldWidth = 10
	whatCount  = 6
	whatStart  = fieldWidth
	sdumStart  = whatStart + whatCount*fieldWidth
	lineWidth  = sdumStart + fieldWidth
)

// Card keywords recognized outside the geometry section.
const (
	kwGeoBegin = "GEOBEGIN"
	kwGeoEnd   = "GEOEND"
	kwEnd      = "END"
	kwAssignma = "ASSIGNMA"
	kwRotDefi  = "ROT-DEFI"
	kwRotprbin = "ROTPRBIN"
	kwAuxscore = "AUXSCORE"
	kwLattice  = "LATTICE"
	kwFree     = "FREE"
	kwFixed    = "FIXED"
	kwUsrbin   = "USRBIN"
	kwUsryield = "USRYIELD"
	kwUsrbdx   = "USRBDX"
	kwUsrtrack = "USRTRACK"
	kwUsrcoll  = "USRCOLL"
	kwContinue = "&"
)

// column returns text[lo:hi] with missing columns read as blanks.
func column(text string, lo, hi int) string {
	if lo >= len(text) {
		return strings.Repeat(" ", hi-lo)
	}

	if hi > len(text) {
		return text[lo:] + strings.Repeat(" ", hi-len(text))
	}

	return text[lo:hi]
}

// columnTail returns text[lo:] without trailing blanks.
func columnTail(text string, lo int) string {
	if lo >= len(text) {
		return ""
	}

	return strings.TrimRight(text[lo:], " \t\r\n")
}

// pad returns s right-padded with blanks to n columns.
func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}

	return s + strings.Repeat(" ", n-len(s))
}

// splice replaces columns [lo,hi) of s with field, padding s as needed.
func splice(s string, lo, hi int, field string) string {
	s = pad(s, hi)

	return s[:lo] + pad(field, hi-lo)[:hi-lo] + s[hi:]
}

// parseNumber reads a deck number. Fortran D exponents are accepted, and a
// blank field reads as zero.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	s = strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}

		return r
	}, s)

	return strconv.ParseFloat(s, 64)
}

// formatFixed renders v right-aligned in a 10-column field, keeping as many
// significant digits as fit. One-digit exponent notation is at most seven
// columns for any float64, so every value fits.
func formatFixed(v float64) string {
	s := formatFree(v)

	for prec := fieldWidth - 3; len(s) > fieldWidth && prec >= 0; prec-- {
		s = strconv.FormatFloat(v, 'E', prec, 64)
		s = strings.Replace(s, "E+0", "E+", 1)
		s = strings.Replace(s, "E-0", "E-", 1)
	}

	return strings.Repeat(" ", max(fieldWidth-len(s), 0)) + s
}

// formatFree renders v in its shortest form, always with a decimal point so
// the solver reads it as real.
func formatFree(v float64) string {
	if v == 0 {
		return "0.0"
	}

	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// nearInt returns the integer nearest to |v|, tolerating round-off in
// integer-valued real fields.
func nearInt(v float64) int { return int(math.Abs(v) + 1e-4) }

// keyword returns the first blank-separated token of a card.
func keyword(text string) string {
	if f := strings.Fields(text); len(f) > 0 {
		return f[0]
	}

	return ""
}
