// Package force implements a tick-based force-directed simulation.
//
// A [Simulation] holds nodes in a dense arena and links by node id. Each
// [Simulation.Tick]:
//
//  1. decays alpha geometrically toward AlphaMin,
//  2. applies every registered [Force], which accumulates velocity deltas,
//  3. integrates velocity into position with velocity decay,
//  4. applies every [Constraint] (hard clamps),
//  5. invokes the tick callback.
//
// Fixed nodes take part only as targets: forces never move them. A velocity
// delta or integrated position that is not finite is dropped for that node on
// that tick.
//
// # Thread Safety
//
// Simulation is NOT thread-safe. It is owned and driven by one strategy.
package force
