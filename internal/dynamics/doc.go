// Package dynamics implements the three stochastic processes measured on
// each graph snapshot: integrate-and-fire, SIS epidemic spreading and a
// single random walk.
//
// Every simulator reads the snapshot without modifying it and draws all
// randomness from the *rand.Rand passed in by the caller, so a run is a
// pure function of (snapshot, parameters, generator state). State vectors
// are allocated per call and dropped on return.
//
// Each simulator follows the same protocol: Trim burn-in ticks are run
// and discarded, then Ticks-Trim ticks are measured.
package dynamics
