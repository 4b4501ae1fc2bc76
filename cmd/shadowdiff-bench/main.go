// Command shadowdiff-bench generates synthetic shadow-node trees and
// measures how long CalculateShadowViewMutations takes against them,
// reporting throughput in human-readable units.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/leowmjw/shadowdiff/differ"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

func main() {
	width := flag.Int("width", 20, "number of children per container node")
	depth := flag.Int("depth", 3, "tree depth")
	mutateFraction := flag.Float64("mutate", 0.1, "fraction of nodes perturbed in the new tree")
	iterations := flag.Int("iterations", 50, "number of diff runs to average over")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	oldRoot, nextTag := buildTree(rng, *width, *depth, 1)
	newRoot := mutateTree(rng, oldRoot, *mutateFraction, &nextTag)

	var total time.Duration
	var mutationCount int
	for i := 0; i < *iterations; i++ {
		start := time.Now()
		muts := differ.CalculateShadowViewMutations(oldRoot, newRoot, true)
		total += time.Since(start)
		mutationCount = len(muts)
	}

	avg := total / time.Duration(*iterations)
	fmt.Printf("tree width=%d depth=%d\n", *width, *depth)
	fmt.Printf("mutations produced: %s\n", humanize.Comma(int64(mutationCount)))
	fmt.Printf("average diff time over %d runs: %s\n", *iterations, avg)
	fmt.Printf("throughput: %s diffs/sec\n", humanize.Comma(int64(time.Second/avg)))
}

var tagCounter shadowtree.Tag

func buildTree(rng *rand.Rand, width, depth int, startTag shadowtree.Tag) (*shadowtree.Node, shadowtree.Tag) {
	tagCounter = startTag
	root := buildSubtree(rng, width, depth)
	root.ComponentName = shadowtree.RootComponentName
	return root, tagCounter
}

func buildSubtree(rng *rand.Rand, width, depth int) *shadowtree.Node {
	tagCounter++
	tag := tagCounter

	n := &shadowtree.Node{
		Tag:           tag,
		Family:        shadowtree.FamilyID(tag),
		ComponentName: fmt.Sprintf("Node%d", tag),
		Traits:        shadowtree.FormsView,
	}

	if depth <= 0 {
		return n
	}
	n.Traits = n.Traits.Set(shadowtree.FormsStackingContext)

	for i := 0; i < width; i++ {
		n.Children = append(n.Children, buildSubtree(rng, width, depth-1))
	}
	return n
}

// mutateTree deep-clones root, then visits every node of the clone: with
// probability mutateFraction it replaces the node's props, and, for a
// node with children, with the same probability appends a new leaf
// child, assigning fresh tags from nextTag. No node is removed.
func mutateTree(rng *rand.Rand, root *shadowtree.Node, mutateFraction float64, nextTag *shadowtree.Tag) *shadowtree.Node {
	clone := cloneTree(root)
	mutateRecursively(rng, clone, mutateFraction, nextTag)
	return clone
}

func cloneTree(n *shadowtree.Node) *shadowtree.Node {
	cp := *n
	cp.Children = nil
	for _, c := range n.Children {
		cp.Children = append(cp.Children, cloneTree(c))
	}
	return &cp
}

func mutateRecursively(rng *rand.Rand, n *shadowtree.Node, fraction float64, nextTag *shadowtree.Tag) {
	if rng.Float64() < fraction {
		n.Props = shadowtree.Props{"seed": rng.Int()}
	}
	if len(n.Children) > 0 && rng.Float64() < fraction {
		*nextTag++
		n.Children = append(n.Children, &shadowtree.Node{
			Tag:           *nextTag,
			Family:        shadowtree.FamilyID(*nextTag),
			ComponentName: "Inserted",
			Traits:        shadowtree.FormsView,
		})
	}
	for _, c := range n.Children {
		mutateRecursively(rng, c, fraction, nextTag)
	}
}
