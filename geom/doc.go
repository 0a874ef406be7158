// Package geom parses, manipulates, and writes combinatorial-geometry input
// decks in FLUKA card syntax.
//
// A deck is read into a [Geometry] holding ordered bodies, regions,
// transformations, USRBIN meshes, and region-based scoring estimators.
// Links between entities are handles (a body points at its
// [Transformation], a zone term at its [Body]); names are derived again
// when the deck is written.
//
// # Reading
//
// [Parse] consumes a line stream through [Preprocess], which evaluates the
// boolean directives
//
//	#define NAME
//	#if NAME / #elif NAME / #else / #endif
//
// against a [Defines] flag set, then drives a section state machine over the
// active lines:
//
//	outside  --GEOBEGIN-->  title  -->  bodies  --END-->  regions
//	regions  --END-->  lattice  --GEOEND-->  outside
//
// Outside the geometry section, ASSIGNMA and ROT-DEFI cards apply at once
// and the two-line USRBIN, USRYIELD, USRBDX, USRTRACK, and USRCOLL cards are
// collected together with their ROTPRBIN and AUXSCORE companions.
//
// # Querying
//
// [Geometry.Ret] resolves names and relations by [Selector]:
//
//	m, err := g.Ret(geom.SelBodiesInRegion, "TARGET")
//
// # Moving
//
// [Geometry.ApplyTransform] moves the whole geometry by a [Motion]. Bodies
// are baked in place or linked to a transformation written as ROT-DEFI
// cards; lattice cells and meshes are linked. The recorded ROT-DEFI steps
// describe the tracking map, which is the inverse of the motion.
//
// # Combining
//
// [BuildGrid] places prototype copies at a list of points, optionally as
// lattice cells. [Geometry.FlagRegions], [MapByCoordinates], [MapByFlags],
// and [Merge] stitch the placed cells into hive geometries by absorbing
// contained regions into their containers.
//
// # Writing
//
// [Geometry.Echo] writes the deck in fixed-column card syntax, and
// [Geometry.EchoFile] optionally splits the sections into sibling files.
package geom
