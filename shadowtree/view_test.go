package shadowtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewViewProjectsAllFields(t *testing.T) {
	n := &Node{
		Tag:           1,
		ComponentName: "View",
		Props:         Props{"color": "red"},
		Layout:        LayoutMetrics{Frame: Rect{Size: Size{Width: 10, Height: 10}}},
		State:         "some-state",
	}

	v := NewView(n)

	assert.Equal(t, n.Tag, v.Tag)
	assert.Equal(t, n.ComponentName, v.ComponentName)
	assert.Equal(t, n.Props, v.Props)
	assert.Equal(t, n.Layout, v.Layout)
	assert.Equal(t, n.State, v.State)
}

func TestViewEqualComparesAllFields(t *testing.T) {
	base := View{Tag: 1, ComponentName: "View", Props: Props{"color": "red"}}

	assert.True(t, base.Equal(base))

	diffTag := base
	diffTag.Tag = 2
	assert.False(t, base.Equal(diffTag))

	diffProps := base
	diffProps.Props = Props{"color": "blue"}
	assert.False(t, base.Equal(diffProps))

	diffLayout := base
	diffLayout.Layout = LayoutMetrics{Frame: Rect{Size: Size{Width: 1, Height: 1}}}
	assert.False(t, base.Equal(diffLayout))
}

func TestSameFamilyRequiresTagAndFamily(t *testing.T) {
	a := &Node{Tag: 1, Family: 100}
	b := &Node{Tag: 1, Family: 100}
	c := &Node{Tag: 1, Family: 200}

	assert.True(t, SameFamily(a, b))
	assert.False(t, SameFamily(a, c))
}
