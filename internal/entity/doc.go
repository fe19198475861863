// Package entity provides the core value types shared by the simulation engine.
//
// An [Entity] is one animated visual unit: a broker, customer or device node
// of the network graph, a message particle of the cluster view, or a single
// particle of the closed-form modes. Entities are referenced by [ID] rather
// than by pointer so that owners can keep them in dense arenas.
//
// # Invariants
//
// For every live entity Radius() = BaseRadius × SizeScale > 0. SizeScale is
// kept in [MinScale, 1] and Brightness in [MinBrightness, 1] by the setters.
//
// # Thread Safety
//
// Entities are NOT thread-safe. Each entity has exactly one owner (the
// strategy or force simulation that created it) and only that owner mutates it.
package entity
