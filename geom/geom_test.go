package geom

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// fixed renders a fixed-format card: keyword, six WHAT fields, SDUM.
func fixed(kw, sdum string, what ...string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-10s", kw)

	for i := range whatCount {
		w := ""
		if i < len(what) {
			w = what[i]
		}

		fmt.Fprintf(&b, "%10s", w)
	}

	fmt.Fprintf(&b, "%-10s", sdum)

	return b.String()
}

var sampleDeck = strings.Join([]string{
	"TITLE",
	"Sample deck",
	"GEOBEGIN                                                              COMBNAME",
	"    0    0          Sample target",
	"* target body",
	"SPH TARG 0.0 0.0 0.0 5.0",
	"RCC PIPE 0.0 0.0 -10.0 0.0 0.0 20.0 1.0",
	"SPH VOID 0.0 0.0 0.0 100.0",
	"SPH BLK 0.0 0.0 0.0 1000.0",
	"END",
	"* the target",
	"TARGET 5 +TARG -PIPE",
	"PIPEREG 5 +PIPE",
	"AIR 5 +VOID -TARG -PIPE",
	"BLKHOLE 5 +BLK -VOID",
	"END",
	"GEOEND",
	"ASSIGNMA    ALUMINUM    TARGET",
	"ASSIGNMA      VACUUM   PIPEREG",
	"ASSIGNMA         AIR       AIR",
	"ASSIGNMA    BLCKHOLE   BLKHOLE",
	"FREE",
	"ROT-DEFI 300.0 0.0 0.0 0.0 0.0 5.0 shift",
	"FIXED",
	"* dose in the target",
	fmt.Sprintf("%-10s%10s%10s%10s%10s", "ROTPRBIN", "", "shift", "", "TargDose"),
	fixed("USRBIN", "TargDose", "10.0", "ENERGY", "-21.0", "10.0", "10.0", "10.0"),
	fixed("USRBIN", "&", "-10.0", "-10.0", "-10.0", "20.0", "20.0", "20.0"),
	fixed("USRYIELD", "Yield", "124.0", "PROTON", "-22.0", "TARGET", "AIR", "1.0"),
	fixed("USRYIELD", "&", "1.0", "0.0", "10.0", "0.0", "1.0", "3.0"),
}, "\n") + "\n"

func mustParse(t *testing.T, deck string, opts ...Option) *Geometry {
	t.Helper()

	g, err := ParseString(context.Background(), deck, opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	return g
}

// pairDeck holds bodies B1 and B2 and one region R1 using both.
const pairDeck = `GEOBEGIN                                                              COMBNAME
    0    0          pair
SPH B1 0.0 0.0 0.0 1.0
RCC B2 0.0 0.0 0.0 0.0 0.0 2.0 0.5
END
R1 5 +B1 -B2
END
GEOEND
`
