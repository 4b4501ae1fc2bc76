package differ

import (
	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

// operationsOnTag is the reparenting side-table's per-tag bookkeeping
// record, mirroring the base spec's OperationsOnTag exactly.
type operationsOnTag struct {
	shouldEraseOp mutation.Type
	opExists      mutation.Type

	removeInsertIndex int
	parentTag         shadowtree.Tag // parent of the first Remove or Insert seen; -1 if none

	oldNode *shadowtree.Node
	newNode *shadowtree.Node
}

// reparentingMetadata is the optional side-channel (§4.4 of the base
// spec) that recognises a node removed from one parent and inserted
// under another as the same identity, suppressing the redundant
// Create/Delete pair. State here is scoped to a single top-level diff
// invocation; nothing persists across calls.
type reparentingMetadata struct {
	enabled              bool
	tagsToOperations     map[shadowtree.Tag]*operationsOnTag
	reparentingOperations int
}

func newReparentingMetadata(enabled bool) *reparentingMetadata {
	return &reparentingMetadata{
		enabled:          enabled,
		tagsToOperations: make(map[shadowtree.Tag]*operationsOnTag),
	}
}

// shouldRemoveDeleteUpdate implements the base spec's decision call of
// the same name (§4.3 Stage D / Stage E.3).
func (m *reparentingMetadata) shouldRemoveDeleteUpdate(parentTag shadowtree.Tag, node *shadowtree.Node, index int) (shouldRemove, shouldDelete bool, updateNode *shadowtree.Node) {
	if !m.enabled {
		return true, true, nil
	}

	op, seen := m.tagsToOperations[node.Tag]
	if !seen {
		m.tagsToOperations[node.Tag] = &operationsOnTag{
			removeInsertIndex: index,
			parentTag:         parentTag,
			opExists:          mutation.Remove | mutation.Delete,
			oldNode:           node,
		}
		return true, true, nil
	}

	if op.shouldEraseOp != 0 {
		panic("differ: reparenting record visited twice before being erased")
	}

	matchedSameSpot := op.opExists&mutation.Insert != 0 && op.removeInsertIndex == index && op.parentTag == parentTag
	shouldRemove = !matchedSameSpot

	op.shouldEraseOp |= op.opExists & mutation.Create
	if !shouldRemove {
		op.shouldEraseOp |= op.opExists & mutation.Insert
	}

	if op.shouldEraseOp != 0 {
		m.reparentingOperations++
	}

	return shouldRemove, false, op.newNode
}

// shouldCreateInsertUpdate implements the base spec's decision call of
// the same name (§4.3 Stage D), symmetrical with shouldRemoveDeleteUpdate.
func (m *reparentingMetadata) shouldCreateInsertUpdate(parentTag shadowtree.Tag, node *shadowtree.Node, index int) (shouldInsert, shouldCreate bool, updateNode *shadowtree.Node) {
	if !m.enabled {
		return true, true, nil
	}

	op, seen := m.tagsToOperations[node.Tag]
	if !seen {
		m.tagsToOperations[node.Tag] = &operationsOnTag{
			removeInsertIndex: index,
			parentTag:         parentTag,
			opExists:          mutation.Create | mutation.Insert,
			newNode:           node,
		}
		return true, true, nil
	}

	if op.shouldEraseOp != 0 {
		panic("differ: reparenting record visited twice before being erased")
	}

	matchedSameSpot := op.opExists&mutation.Remove != 0 && op.removeInsertIndex == index && op.parentTag == parentTag
	shouldInsert = !matchedSameSpot

	op.shouldEraseOp |= op.opExists & mutation.Delete
	if !shouldInsert {
		op.shouldEraseOp |= op.opExists & mutation.Remove
	}

	if op.shouldEraseOp != 0 {
		m.reparentingOperations++
	}

	return shouldInsert, false, op.oldNode
}

// shouldCreateUpdate implements the base spec's decision call of the
// same name (§4.3 Stage F), called for a node already Inserted.
func (m *reparentingMetadata) shouldCreateUpdate(node *shadowtree.Node) (shouldCreate bool, updateNode *shadowtree.Node) {
	if !m.enabled {
		return true, nil
	}

	op, seen := m.tagsToOperations[node.Tag]
	if !seen {
		panic("differ: shouldCreateUpdate called for a tag with no prior record")
	}

	if op.opExists&mutation.Delete != 0 {
		m.reparentingOperations++
		op.shouldEraseOp |= mutation.Delete
		op.newNode = node
		return false, op.oldNode
	}

	op.opExists |= mutation.Create
	return true, nil
}

// markInserted records an Insert intent for a tag even when the tag is
// fresh to the metadata, used by Stage E's default insert branch.
//
// The base spec records this as an open question: the C++ source writes
// to it->second after a failed map lookup (a use of an invalidated/
// end() iterator) on the fresh-tag path. This implementation adopts the
// corrected behaviour the base spec calls for: populate the freshly
// constructed record before inserting it into the map.
func (m *reparentingMetadata) markInserted(parentTag shadowtree.Tag, node *shadowtree.Node, index int) {
	if !m.enabled {
		return
	}

	op, seen := m.tagsToOperations[node.Tag]
	if !seen {
		m.tagsToOperations[node.Tag] = &operationsOnTag{
			removeInsertIndex: index,
			parentTag:         parentTag,
			opExists:          mutation.Insert,
		}
		return
	}

	// Element was moved from somewhere else in the hierarchy and
	// inserted at a new position - this can't be cancelled.
	op.opExists |= mutation.Insert
}

// removeUselessRecords drops every tag record that has nothing left to
// erase, matching the base spec's final pruning pass step 1.
func (m *reparentingMetadata) removeUselessRecords() {
	if !m.enabled {
		return
	}
	for tag, op := range m.tagsToOperations {
		if op.shouldEraseOp == 0 {
			delete(m.tagsToOperations, tag)
		}
	}
}

// shouldErase reports whether the given mutation type should be dropped
// for tag, clearing that bit (and the whole record, once exhausted) as
// it goes. It implements step 2 of the base spec's final pruning pass.
func (m *reparentingMetadata) shouldErase(tag shadowtree.Tag, t mutation.Type) bool {
	if m.reparentingOperations == 0 {
		return false
	}

	op, seen := m.tagsToOperations[tag]
	if !seen {
		return false
	}

	erase := op.shouldEraseOp&t != 0
	op.shouldEraseOp &^= t

	if op.shouldEraseOp == 0 {
		delete(m.tagsToOperations, tag)
		m.reparentingOperations--
	}

	return erase
}
