// Package profile wires optional runtime profiling into geodeck.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	geodeck --pprof-mode=cpu grid layout.yaml
//
// Without the tag, [Modes] is empty and [Config.Start] returns a no-op
// stopper, so callers never need their own build constraints.
package profile
