package amrsim

import "fmt"

var (
	// ErrNotHorizontal is raised when progress is mapped across a vertical edge.
	// Only the horizontal corridors are shared between loops.
	ErrNotHorizontal = fmt.Errorf("edge is not horizontal")

	// ErrDegenerateEdge is returned by NewLayout when a loop would get an edge
	// of zero length.
	ErrDegenerateEdge = fmt.Errorf("degenerate edge")

	// ErrUnknownLoop is raised for loop names that are not part of the layout.
	ErrUnknownLoop = fmt.Errorf("unknown loop")

	// ErrInvalidLayout is returned for layout configs that cannot be built.
	ErrInvalidLayout = fmt.Errorf("invalid layout")

	// ErrInvalidParams is returned by Params.Validate.
	ErrInvalidParams = fmt.Errorf("invalid params")
)
