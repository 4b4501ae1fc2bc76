// Package apply provides a minimal host-tree model that consumes a
// mutation.List in order, the way a native view-manager layer would.
// It exists so the differ's output can be checked against the
// apply-and-compare property: applying the mutations for (old, new) to
// a model of old must reproduce the flattened shape of new.
package apply

import (
	"fmt"

	"github.com/leowmjw/shadowdiff/differ"
	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

// HostTree is a tag-keyed model of mounted views plus their ordered
// children, built up by applying mutations one at a time.
type HostTree struct {
	views    map[shadowtree.Tag]shadowtree.View
	children map[shadowtree.Tag][]shadowtree.Tag
}

// NewHostTree creates an empty host tree and seeds it with root as the
// tree's single pre-existing view (index -1 has no parent to insert
// under, mirroring how the differ's root update never goes through
// Insert/Remove).
func NewHostTree(root shadowtree.View) *HostTree {
	t := &HostTree{
		views:    make(map[shadowtree.Tag]shadowtree.View),
		children: make(map[shadowtree.Tag][]shadowtree.Tag),
	}
	t.views[root.Tag] = root
	return t
}

// Apply applies muts to the tree in order, returning an error at the
// first mutation that violates the tree's invariants (e.g. removing a
// tag that was never inserted).
func (t *HostTree) Apply(muts mutation.List) error {
	for _, m := range muts {
		if err := t.applyOne(m); err != nil {
			return err
		}
	}
	return nil
}

func (t *HostTree) applyOne(m mutation.Mutation) error {
	switch m.Type {
	case mutation.Create:
		t.views[m.NewChildView.Tag] = m.NewChildView

	case mutation.Delete:
		if _, ok := t.views[m.OldChildView.Tag]; !ok {
			return fmt.Errorf("apply: delete of unknown tag %d", m.OldChildView.Tag)
		}
		delete(t.views, m.OldChildView.Tag)

	case mutation.Insert:
		kids := t.children[m.ParentView.Tag]
		if m.Index < 0 || m.Index > len(kids) {
			return fmt.Errorf("apply: insert index %d out of range for parent %d", m.Index, m.ParentView.Tag)
		}
		kids = append(kids, 0)
		copy(kids[m.Index+1:], kids[m.Index:])
		kids[m.Index] = m.NewChildView.Tag
		t.children[m.ParentView.Tag] = kids

	case mutation.Remove:
		kids := t.children[m.ParentView.Tag]
		if m.Index < 0 || m.Index >= len(kids) {
			return fmt.Errorf("apply: remove index %d out of range for parent %d", m.Index, m.ParentView.Tag)
		}
		if kids[m.Index] != m.OldChildView.Tag {
			return fmt.Errorf("apply: remove index %d for parent %d does not hold tag %d", m.Index, m.ParentView.Tag, m.OldChildView.Tag)
		}
		t.children[m.ParentView.Tag] = append(kids[:m.Index], kids[m.Index+1:]...)

	case mutation.Update:
		if _, ok := t.views[m.NewChildView.Tag]; !ok {
			return fmt.Errorf("apply: update of unknown tag %d", m.NewChildView.Tag)
		}
		t.views[m.NewChildView.Tag] = m.NewChildView
	}
	return nil
}

// FromNode builds a HostTree with node's entire subtree already
// mounted, the way a consumer seeds its model from a freshly decoded
// snapshot before applying any further deltas.
func FromNode(node *shadowtree.Node) (*HostTree, error) {
	host := NewHostTree(shadowtree.NewView(node))
	if err := seedSubtree(host, node); err != nil {
		return nil, err
	}
	return host, nil
}

func seedSubtree(host *HostTree, node *shadowtree.Node) error {
	pairs := differ.SliceChildShadowNodeViewPairs(node)
	for i, pair := range pairs {
		if err := host.Apply(mutation.List{
			mutation.NewCreate(pair.View),
			mutation.NewInsert(shadowtree.NewView(node), pair.View, i),
		}); err != nil {
			return err
		}
		if err := seedSubtree(host, pair.Node); err != nil {
			return err
		}
	}
	return nil
}

// View returns the current view recorded for tag, if any.
func (t *HostTree) View(tag shadowtree.Tag) (shadowtree.View, bool) {
	v, ok := t.views[tag]
	return v, ok
}

// Children returns the ordered child tags currently mounted under
// parent.
func (t *HostTree) Children(parent shadowtree.Tag) []shadowtree.Tag {
	return t.children[parent]
}

// EquivalentTo reports whether t's mounted shape under root matches the
// flattened shape of other (also rooted at root's tag), used by the
// apply-and-compare test property.
func (t *HostTree) EquivalentTo(root shadowtree.Tag, other *shadowtree.Node) bool {
	return t.subtreeEqual(root, shadowtree.NewView(other), other)
}

// subtreeEqual compares tag's mounted view against expected, the view
// SliceChildShadowNodeViewPairs actually produced for it (offset
// already folded into expected.Layout.Frame.Origin by the flattener),
// not a view recomputed fresh from node. Recomputing from node would
// silently drop any accumulated offset from a flattened ancestor and
// defeat the point of comparing flattened output.
func (t *HostTree) subtreeEqual(tag shadowtree.Tag, expected shadowtree.View, node *shadowtree.Node) bool {
	view, ok := t.View(tag)
	if !ok {
		return false
	}
	if !view.Equal(expected) {
		return false
	}

	pairs := differ.SliceChildShadowNodeViewPairs(node)
	kids := t.Children(tag)
	if len(kids) != len(pairs) {
		return false
	}
	for i, pair := range pairs {
		if kids[i] != pair.View.Tag {
			return false
		}
		if !t.subtreeEqual(kids[i], pair.View, pair.Node) {
			return false
		}
	}
	return true
}
