// Package wire provides the binary encoding used to ship shadow-tree
// snapshots and mutation lists between a producer and a consumer: a
// MessagePack codec, chosen the way the wider example corpus reaches
// for msgpack over encoding/gob or a hand-rolled format for compact,
// cross-language-safe binary payloads.
package wire

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/leowmjw/shadowdiff/mutation"
	"github.com/leowmjw/shadowdiff/shadowtree"
)

// EncodeMutations serializes a mutation list for transport as a delta
// blob.
func EncodeMutations(muts mutation.List) ([]byte, error) {
	data, err := msgpack.Marshal(muts)
	if err != nil {
		return nil, fmt.Errorf("wire: encode mutations: %w", err)
	}
	return data, nil
}

// DecodeMutations reverses EncodeMutations.
func DecodeMutations(data []byte) (mutation.List, error) {
	var muts mutation.List
	if err := msgpack.Unmarshal(data, &muts); err != nil {
		return nil, fmt.Errorf("wire: decode mutations: %w", err)
	}
	return muts, nil
}

// EncodeSnapshot serializes a full shadow-node tree for transport as a
// snapshot blob.
func EncodeSnapshot(root *shadowtree.Node) ([]byte, error) {
	data, err := msgpack.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("wire: encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot reverses EncodeSnapshot.
func DecodeSnapshot(data []byte) (*shadowtree.Node, error) {
	var root shadowtree.Node
	if err := msgpack.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("wire: decode snapshot: %w", err)
	}
	return &root, nil
}
