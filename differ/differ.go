// Package differ implements the Shadow Tree Differentiator: given two
// immutable shadow-node trees sharing a common root identity, it
// produces an ordered sequence of mutation instructions that transform
// a host's representation of the old tree into the new one.
//
// The algorithm is a pure function: it neither suspends, retries, nor
// touches any state beyond the scratch lists and side-table it
// allocates for the duration of one call (§5 of the base spec).
package differ

import (
	"sort"

	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
	"github.com/leowmjw/shadowdiff/tinymap"
)

// CalculateShadowViewMutations is the public entry point (§4.3, §6 of the
// base spec). oldRoot and newRoot must share family; violating this is a
// programmer bug and panics rather than returning an error, matching the
// base spec's precondition-violation error model (§7).
func CalculateShadowViewMutations(oldRoot, newRoot *shadowtree.Node, enableReparentingDetection bool) mutation.List {
	if !shadowtree.SameFamily(oldRoot, newRoot) {
		panic("differ: root shadow nodes must belong to the same family")
	}

	mutations := make(mutation.List, 0, 256)
	meta := newReparentingMetadata(enableReparentingDetection)

	oldRootView := shadowtree.NewView(oldRoot)
	newRootView := shadowtree.NewView(newRoot)

	if !oldRootView.Equal(newRootView) {
		mutations = append(mutations, mutation.NewUpdate(shadowtree.View{}, oldRootView, newRootView, -1))
	}

	diff(
		&mutations,
		meta,
		shadowtree.NewView(oldRoot),
		SliceChildShadowNodeViewPairs(oldRoot),
		SliceChildShadowNodeViewPairs(newRoot),
	)

	if meta.reparentingOperations > 0 && enableReparentingDetection {
		meta.removeUselessRecords()
		mutations = pruneReparentedMutations(mutations, meta)
	}

	return mutations
}

// pruneReparentedMutations implements step 2 of the base spec's final
// pruning pass: walk the mutation list once, dropping any mutation whose
// tag/type pair the side-table marked for erasure.
func pruneReparentedMutations(mutations mutation.List, meta *reparentingMetadata) mutation.List {
	kept := mutations[:0]
	for _, m := range mutations {
		if meta.reparentingOperations == 0 {
			kept = append(kept, m)
			continue
		}

		var tag shadowtree.Tag
		if m.Type == mutation.Insert || m.Type == mutation.Create {
			tag = m.NewChildView.Tag
		} else {
			tag = m.OldChildView.Tag
		}

		if meta.shouldErase(tag, m.Type) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// diff is the recursive driver (§4.3 Stages A-G). It appends to
// *mutations rather than returning a list, matching the base spec's
// "appends mutations to a caller-owned list" framing for the Differ
// component.
func diff(mutations *mutation.List, meta *reparentingMetadata, parentView shadowtree.View, oldPairs, newPairs shadowtree.List) {
	if len(oldPairs) == 0 && len(newPairs) == 0 {
		return
	}

	reorderByOrderIndex(oldPairs)
	reorderByOrderIndex(newPairs)

	var downward, destructiveDownward mutation.List
	var createM, deleteM, insertM, removeM, updateM mutation.List

	index := 0

	// Stage C: first-stage prefix match.
	for index < len(oldPairs) && index < len(newPairs) {
		oldPair := oldPairs[index]
		newPair := newPairs[index]

		if oldPair.View.Tag != newPair.View.Tag {
			break
		}

		if !oldPair.View.Equal(newPair.View) {
			updateM = append(updateM, mutation.NewUpdate(parentView, oldPair.View, newPair.View, index))
		}

		recurseIntoGrandchildren(&downward, &destructiveDownward, meta, oldPair, newPair)
		index++
	}

	switch {
	case index == len(newPairs):
		// Stage D (new exhausted): remaining old entries are
		// delete/remove (possibly reparented) candidates.
		for ; index < len(oldPairs); index++ {
			oldPair := oldPairs[index]

			shouldRemove, shouldDelete, newTreeNode := meta.shouldRemoveDeleteUpdate(parentView.Tag, oldPair.Node, index)

			if shouldDelete {
				deleteM = append(deleteM, mutation.NewDelete(oldPair.View))
			}
			if shouldRemove {
				removeM = append(removeM, mutation.NewRemove(parentView, oldPair.View, index))
			}
			if newTreeNode != nil {
				newTreeView := shadowtree.NewView(newTreeNode)
				if !newTreeView.Equal(oldPair.View) {
					updateM = append(updateM, mutation.NewUpdate(parentView, oldPair.View, newTreeView, -1))
				}
			}

			diff(&destructiveDownward, meta, oldPair.View, SliceChildShadowNodeViewPairs(oldPair.Node), nil)
		}

	case index == len(oldPairs):
		// Stage D (old exhausted): remaining new entries are
		// create/insert (possibly reparented) candidates.
		for ; index < len(newPairs); index++ {
			newPair := newPairs[index]

			shouldInsert, shouldCreate, oldTreeNode := meta.shouldCreateInsertUpdate(parentView.Tag, newPair.Node, index)

			if shouldInsert {
				insertM = append(insertM, mutation.NewInsert(parentView, newPair.View, index))
			}
			if shouldCreate {
				createM = append(createM, mutation.NewCreate(newPair.View))
			}
			if oldTreeNode != nil {
				oldTreeView := shadowtree.NewView(oldTreeNode)
				if !oldTreeView.Equal(newPair.View) {
					updateM = append(updateM, mutation.NewUpdate(parentView, oldTreeView, newPair.View, -1))
				}
			}

			diff(&downward, meta, newPair.View, nil, SliceChildShadowNodeViewPairs(newPair.Node))
		}

	default:
		// Stage E: interleaved long-list walk.
		var newRemaining, newInserted tinymap.Map[shadowtree.Tag, *shadowtree.NodePair]
		for i := index; i < len(newPairs); i++ {
			newRemaining.Insert(newPairs[i].View.Tag, &newPairs[i])
		}

		oldIdx, newIdx := index, index
		for newIdx < len(newPairs) || oldIdx < len(oldPairs) {
			haveNew := newIdx < len(newPairs)
			haveOld := oldIdx < len(oldPairs)

			if haveNew && haveOld && oldPairs[oldIdx].View.Tag == newPairs[newIdx].View.Tag {
				oldPair, newPair := oldPairs[oldIdx], newPairs[newIdx]

				if !oldPair.View.Equal(newPair.View) {
					updateM = append(updateM, mutation.NewUpdate(parentView, oldPair.View, newPair.View, index))
				}

				if it := newRemaining.Find(oldPair.View.Tag); it != newRemaining.End() {
					newRemaining.Erase(it)
				}

				recurseIntoGrandchildren(&downward, &destructiveDownward, meta, oldPair, newPair)

				oldIdx++
				newIdx++
				continue
			}

			if haveOld {
				oldPair := oldPairs[oldIdx]

				if it := newInserted.Find(oldPair.View.Tag); it != newInserted.End() {
					// Already inserted elsewhere: this is a
					// reordering, not a create/delete.
					removeM = append(removeM, mutation.NewRemove(parentView, oldPair.View, oldIdx))

					insertedPair := newInserted.Value(it)
					if !oldPair.View.Equal(insertedPair.View) {
						updateM = append(updateM, mutation.NewUpdate(parentView, oldPair.View, insertedPair.View, index))
					}

					recurseIntoGrandchildren(&downward, &destructiveDownward, meta, oldPair, *insertedPair)

					newInserted.Erase(it)
					oldIdx++
					continue
				}

				if it := newRemaining.Find(oldPair.View.Tag); it == newRemaining.End() {
					// Not reinserted anywhere: remove/delete,
					// possibly reparented elsewhere.
					shouldRemove, shouldDelete, newTreeNode := meta.shouldRemoveDeleteUpdate(-1, oldPair.Node, -1)

					removeM = append(removeM, mutation.NewRemove(parentView, oldPair.View, oldIdx))

					if shouldDelete {
						deleteM = append(deleteM, mutation.NewDelete(oldPair.View))
					}
					if newTreeNode != nil {
						newTreeView := shadowtree.NewView(newTreeNode)
						if !newTreeView.Equal(oldPair.View) {
							updateM = append(updateM, mutation.NewUpdate(parentView, oldPair.View, newTreeView, -1))
						}
					}
					_ = shouldRemove // always true in this branch per the base spec's Stage E.3

					diff(&destructiveDownward, meta, oldPair.View, SliceChildShadowNodeViewPairs(oldPair.Node), nil)

					oldIdx++
					continue
				}
			}

			// Default: new-side insert.
			newPair := newPairs[newIdx]
			meta.markInserted(parentView.Tag, newPair.Node, newIdx)
			insertM = append(insertM, mutation.NewInsert(parentView, newPair.View, newIdx))
			newInserted.Insert(newPair.View.Tag, &newPairs[newIdx])
			newIdx++
		}

		// Stage F: final create sweep over whatever survived in
		// newInserted (nodes that were inserted due to reordering,
		// not matched against a disappearing old entry).
		for it := newInserted.Begin(); it != newInserted.End(); it = newInserted.Next(it) {
			newPair := newInserted.Value(it)

			shouldCreate, updateNode := meta.shouldCreateUpdate(newPair.Node)

			if shouldCreate {
				createM = append(createM, mutation.NewCreate(newPair.View))
			}
			if updateNode != nil {
				updateView := shadowtree.NewView(updateNode)
				if !updateView.Equal(newPair.View) {
					updateM = append(updateM, mutation.NewUpdate(parentView, updateView, newPair.View, -1))
				}
			}

			diff(&downward, meta, newPair.View, nil, SliceChildShadowNodeViewPairs(newPair.Node))
		}
	}

	// Stage G: concatenate buckets in the fixed global order.
	*mutations = append(*mutations, destructiveDownward...)
	*mutations = append(*mutations, updateM...)
	for i := len(removeM) - 1; i >= 0; i-- {
		*mutations = append(*mutations, removeM[i])
	}
	*mutations = append(*mutations, deleteM...)
	*mutations = append(*mutations, createM...)
	*mutations = append(*mutations, downward...)
	*mutations = append(*mutations, insertM...)
}

// recurseIntoGrandchildren flattens both sides' grandchildren and
// recurses, routing the result into downward or destructiveDownward
// depending on whether the new side has any children left — "destructive
// operations on subtrees of vanishing parents must execute before
// structural changes at the parent level" per the base spec.
func recurseIntoGrandchildren(downward, destructiveDownward *mutation.List, meta *reparentingMetadata, oldPair, newPair shadowtree.NodePair) {
	oldGrandchildren := SliceChildShadowNodeViewPairs(oldPair.Node)
	newGrandchildren := SliceChildShadowNodeViewPairs(newPair.Node)

	target := destructiveDownward
	if len(newGrandchildren) > 0 {
		target = downward
	}
	diff(target, meta, oldPair.View, oldGrandchildren, newGrandchildren)
}

// reorderByOrderIndex stable-sorts pairs by OrderIndex, but only when at
// least one non-zero OrderIndex is present (§4.3 Stage A).
func reorderByOrderIndex(pairs shadowtree.List) {
	if len(pairs) < 2 {
		return
	}

	needsReorder := false
	for _, p := range pairs {
		if p.Node.OrderIndex != 0 {
			needsReorder = true
			break
		}
	}
	if !needsReorder {
		return
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Node.OrderIndex < pairs[j].Node.OrderIndex
	})
}
