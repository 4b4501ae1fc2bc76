// Package mutation defines the imperative instructions the differ emits
// and an external host applies: Create, Delete, Insert, Remove, Update.
package mutation

import "github.com/leowmjw/shadowdiff/shadowtree"

// Type identifies which of the five mutation kinds a Mutation carries.
// The base spec reuses these bits as a bitset inside the reparenting
// side-table (OperationsOnTag.opExists / shouldEraseOp), so Type is
// defined as a power-of-two bitset rather than a plain enum.
type Type int

const (
	Create Type = 1 << iota
	Delete
	Insert
	Remove
	Update
)

// String renders a Type for logs and the CLI, matching the base spec's
// named mutation kinds.
func (t Type) String() string {
	switch t {
	case Create:
		return "Create"
	case Delete:
		return "Delete"
	case Insert:
		return "Insert"
	case Remove:
		return "Remove"
	case Update:
		return "Update"
	default:
		return "Unknown"
	}
}

// Mutation is one instruction in the sequence the differ returns. Field
// population per Type follows the consumer contract in the base spec §6:
//
//	Create: parent=default  old=default    new=view       index=-1
//	Delete: parent=default  old=view       new=default    index=-1
//	Insert: parent=parent   old=default    new=view       index=slot
//	Remove: parent=parent   old=view       new=default    index=slot
//	Update: parent=parent*  old=view       new=view       index=slot or -1
type Mutation struct {
	Type            Type
	ParentView      shadowtree.View
	OldChildView    shadowtree.View
	NewChildView    shadowtree.View
	Index           int
}

// List is an ordered sequence of mutations, returned by the differ and
// consumed by a host applier in order.
type List []Mutation

// NewCreate builds a Create mutation for the given view.
func NewCreate(view shadowtree.View) Mutation {
	return Mutation{Type: Create, NewChildView: view, Index: -1}
}

// NewDelete builds a Delete mutation for the given view.
func NewDelete(view shadowtree.View) Mutation {
	return Mutation{Type: Delete, OldChildView: view, Index: -1}
}

// NewInsert builds an Insert mutation placing child under parent at index.
func NewInsert(parent, child shadowtree.View, index int) Mutation {
	return Mutation{Type: Insert, ParentView: parent, NewChildView: child, Index: index}
}

// NewRemove builds a Remove mutation taking child out of parent at index.
func NewRemove(parent, child shadowtree.View, index int) Mutation {
	return Mutation{Type: Remove, ParentView: parent, OldChildView: child, Index: index}
}

// NewUpdate builds an Update mutation changing oldChild into newChild
// under parent at index (index is -1 when the slot is unknown).
func NewUpdate(parent, oldChild, newChild shadowtree.View, index int) Mutation {
	return Mutation{Type: Update, ParentView: parent, OldChildView: oldChild, NewChildView: newChild, Index: index}
}
