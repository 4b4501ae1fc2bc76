package shadowtree

// RootComponentName is the component name a tree's root node carries.
const RootComponentName = "RootView"

// Tag is a process-wide unique, non-zero identifier for a shadow-node
// family. Tag 0 is reserved by tinymap as the erased/sentinel value and
// must never be assigned to a real node.
type Tag int32

// FamilyID identifies the logical element a ShadowNode represents across
// clones of the tree. The C++ source leans on object identity (a node's
// family is encoded in its ComponentDescriptor / family pointer); Go has
// no equivalent notion to borrow, so FamilyID is carried explicitly and
// SameFamily compares Tag and FamilyID together. See DESIGN.md for the
// recorded Open Question decision.
type FamilyID int64

// Props is an opaque bag of view properties. Conversion from raw property
// payloads into this bag is explicitly out of scope for this repository
// (per the base spec); ShadowNode only carries whatever the caller
// constructed.
type Props map[string]any

// Node is a single, immutable shadow-node. Trees of Node are constructed
// by external subsystems (layout, property conversion) and handed to the
// differ already sealed; the differ never mutates one.
type Node struct {
	Tag           Tag
	Family        FamilyID
	ComponentName string
	Traits        Traits
	OrderIndex    int
	Layout        LayoutMetrics
	Props         Props
	State         any
	Children      []*Node
}

// SameFamily reports whether a and b represent the same logical element
// across tree revisions, the differ's sole precondition on its two roots.
func SameFamily(a, b *Node) bool {
	return a.Tag == b.Tag && a.Family == b.Family
}
