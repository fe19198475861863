// Package render defines the boundary between the simulation core and the
// rendering layer.
//
// The core never interprets a [Handle]; it only creates, updates and removes
// visuals through a [Sink].
package render

import "github.com/san-kum/msgviz/internal/entity"

// Handle is an opaque reference to a visual owned by the rendering layer.
type Handle uint64

type Point struct {
	X, Y float64
}

type Style struct {
	Color  string
	Radius float64
	Label  string
}

// Sink is the capability the engine uses to drive visuals.
//
// Remove must be idempotent and IsAttached must report false for handles that
// were removed or detached by the host.
type Sink interface {
	Create(kind entity.Kind, pos Point, style Style) Handle
	Update(h Handle, pos Point, opacity, scale float64)
	Remove(h Handle)
	IsAttached(h Handle) bool
}
