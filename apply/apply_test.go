package apply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/shadowdiff/differ"
	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

func view(tag shadowtree.Tag, name string, stacking bool) *shadowtree.Node {
	traits := shadowtree.FormsView
	if stacking {
		traits = traits.Set(shadowtree.FormsStackingContext)
	}
	return &shadowtree.Node{Tag: tag, Family: shadowtree.FamilyID(tag), ComponentName: name, Traits: traits}
}

func TestApplyAndCompareReproducesNewShape(t *testing.T) {
	root := view(1, shadowtree.RootComponentName, true)
	root.Children = []*shadowtree.Node{
		view(2, "A", false),
		view(3, "B", true),
	}
	root.Children[1].Children = []*shadowtree.Node{view(4, "C", false)}

	newRoot := view(1, shadowtree.RootComponentName, true)
	newRoot.Children = []*shadowtree.Node{
		view(3, "B", true),
		view(5, "D", false),
	}
	newRoot.Children[0].Children = []*shadowtree.Node{view(4, "C", false), view(6, "E", false)}

	muts := differ.CalculateShadowViewMutations(root, newRoot, true)

	host, err := FromNode(root)
	require.NoError(t, err)
	require.NoError(t, host.Apply(muts))

	assert.True(t, host.EquivalentTo(1, newRoot))
}

func TestEquivalentToVerifiesAccumulatedOffsetThroughFlattening(t *testing.T) {
	leaf := view(3, "B", false)
	leaf.Layout.Frame.Origin = shadowtree.Point{X: 5, Y: 5}

	wrap := &shadowtree.Node{Tag: 2, Family: 2, ComponentName: "Wrapper"}
	wrap.Layout.Frame.Origin = shadowtree.Point{X: 10, Y: 10}
	wrap.Children = []*shadowtree.Node{leaf}

	root := view(1, shadowtree.RootComponentName, true)
	root.Children = []*shadowtree.Node{wrap}

	host, err := FromNode(root)
	require.NoError(t, err)

	mounted, ok := host.View(3)
	require.True(t, ok)
	assert.Equal(t, shadowtree.Point{X: 15, Y: 15}, mounted.Layout.Frame.Origin,
		"the wrapper's own offset must fold into its flattened child's frame")

	assert.True(t, host.EquivalentTo(1, root),
		"comparison must use the offset-adjusted flattened view, not a view recomputed straight from the node")
}

func TestFromNodeSeedsEntireSubtree(t *testing.T) {
	root := view(1, shadowtree.RootComponentName, true)
	root.Children = []*shadowtree.Node{view(2, "A", false), view(3, "B", true)}
	root.Children[1].Children = []*shadowtree.Node{view(4, "C", false)}

	host, err := FromNode(root)
	require.NoError(t, err)
	assert.True(t, host.EquivalentTo(1, root))
}

func TestRemoveAtOutOfRangeIndexErrors(t *testing.T) {
	host := NewHostTree(shadowtree.View{Tag: 1})
	err := host.Apply(mutation.List{mutation.NewRemove(shadowtree.View{Tag: 1}, shadowtree.View{Tag: 2}, 0)})
	assert.Error(t, err)
}

func TestDeleteOfUnknownTagErrors(t *testing.T) {
	host := NewHostTree(shadowtree.View{Tag: 1})
	err := host.Apply(mutation.List{mutation.NewDelete(shadowtree.View{Tag: 99})})
	assert.Error(t, err)
}
