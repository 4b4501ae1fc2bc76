package differ

import "github.com/leowmjw/shadowdiff/shadowtree"

// android is compile-time knob for the Hidden-skipping ifdef the base
// spec describes ("non-Android builds skip this node and its subtree
// entirely during flattening"). The platform layer this repository
// targets has no Android build, so Hidden is always honoured; the knob
// exists so a future Android-flavoured build of this package can flip
// it without touching the algorithm.
const android = false

// SliceChildShadowNodeViewPairs produces the ordered list of node's
// "visible" descendants the host must materialise as views under it,
// with accumulated layout offsets applied to their frames. This is the
// Flattener component of the base spec (§4.2).
func SliceChildShadowNodeViewPairs(node *shadowtree.Node) shadowtree.List {
	pairs := shadowtree.List{}

	if node.Traits.Check(shadowtree.FormsView) && !node.Traits.Check(shadowtree.FormsStackingContext) {
		// The node itself is a leaf view; its children belong to
		// whoever renders it.
		return pairs
	}

	sliceRecursively(&pairs, shadowtree.Point{}, node)
	return pairs
}

func sliceRecursively(pairs *shadowtree.List, offset shadowtree.Point, node *shadowtree.Node) {
	for _, child := range node.Children {
		if !android && child.Traits.Check(shadowtree.Hidden) {
			continue
		}

		view := shadowtree.NewView(child)
		childOffset := offset
		if view.Layout != shadowtree.EmptyLayoutMetrics {
			childOffset = offset.Add(view.Layout.Frame.Origin)
			view.Layout.Frame.Origin = view.Layout.Frame.Origin.Add(offset)
		}

		switch {
		case child.Traits.Check(shadowtree.FormsStackingContext):
			// Opaques its subtree from this flattener's point of
			// view: push the view, don't recurse.
			*pairs = append(*pairs, shadowtree.NodePair{View: view, Node: child})
		case child.Traits.Check(shadowtree.FormsView):
			*pairs = append(*pairs, shadowtree.NodePair{View: view, Node: child})
			sliceRecursively(pairs, childOffset, child)
		default:
			// Flattening case: a non-view wrapper contributes
			// nothing itself but exposes its children as siblings
			// of child in the output.
			sliceRecursively(pairs, childOffset, child)
		}
	}
}
