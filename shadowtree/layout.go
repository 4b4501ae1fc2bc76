package shadowtree

// Point is a 2D offset, in the same units as the external layout engine
// produces (typically points or density-independent pixels). The core
// differ never interprets these units; it only adds and compares them.
type Point struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of p and o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Size is a width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// Rect is an origin-and-size frame.
type Rect struct {
	Origin Point
	Size   Size
}

// LayoutMetrics carries the pre-computed geometry the external layout
// engine (out of scope per the base spec) attaches to a node. EmptyLayoutMetrics
// is the sentinel meaning "no layout has been applied to this node yet".
type LayoutMetrics struct {
	Frame            Rect
	ContentInsets    Rect
	BorderWidth      Rect
	DisplayType      int
	LayoutDirection  int
}

// EmptyLayoutMetrics is the zero value, used as the "no layout applied"
// sentinel exactly as the base spec describes.
var EmptyLayoutMetrics = LayoutMetrics{}
