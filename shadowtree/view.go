package shadowtree

import "reflect"

// View is the flattened, value-type projection of a Node carried inside
// mutations. It is what actually crosses into "external native-view
// host" territory, so it carries only what a host needs: identity,
// component name, a props handle, an event-emitter handle, layout, and
// opaque state.
type View struct {
	Tag           Tag
	ComponentName string
	Props         Props
	EventEmitter  any
	Layout        LayoutMetrics
	State         any
}

// NewView projects a Node into its View, the same construction the base
// spec describes ShadowView(shadowNode) performing inline throughout the
// differ.
func NewView(n *Node) View {
	return View{
		Tag:           n.Tag,
		ComponentName: n.ComponentName,
		Props:         n.Props,
		EventEmitter:  n.State, // placeholder handle; event emission is an external collaborator
		Layout:        n.Layout,
		State:         n.State,
	}
}

// Equal compares every carried field, exactly as the base spec requires
// ("Equality compares all carried fields").
func (v View) Equal(o View) bool {
	if v.Tag != o.Tag || v.ComponentName != o.ComponentName {
		return false
	}
	if v.Layout != o.Layout {
		return false
	}
	if !reflect.DeepEqual(v.Props, o.Props) {
		return false
	}
	if !reflect.DeepEqual(v.EventEmitter, o.EventEmitter) {
		return false
	}
	return reflect.DeepEqual(v.State, o.State)
}

// NodePair links a flattened View to the Node it was produced from, so
// the differ can recurse into grandchildren without re-walking the tree
// from the root. Lists of NodePair are moved between recursion levels,
// never shared, matching the base spec's ownership note.
type NodePair struct {
	View View
	Node *Node
}

// List is an ordered list of NodePair, preserving source child order
// unless explicitly reordered by OrderIndex.
type List []NodePair
