// Package hash implements stable, order-independent fingerprint hashing
// for the structural differ and for provenance/lineage summaries.
//
// Adapted from the teacher's lineage-hashing helpers: deterministic,
// cheap, and order-independent for multisets of contributor signatures. The differ uses Fields to fingerprint a node's primitive
// content and Lineage to fold a node's fingerprint together with its
// matched children's fingerprints, so a change at any depth changes every
// ancestor's fingerprint without requiring a full deep-equality walk.
package hash

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"sort"
)

// Fields hashes an ordered list of primitive field values. Two nodes with
// identical fields in identical order hash identically; callers are
// responsible for ordering fields consistently (field declaration order).
func Fields(values ...any) uint64 {
	h := fnv.New64a()
	for _, v := range values {
		writeString(h, fmt.Sprintf("%T:%v", v, v))
	}
	return h.Sum64()
}

// Lineage folds a node's own fingerprint with the (already computed)
// fingerprints of its matched children, order-independent via sorting.
func Lineage(self uint64, childSigs []uint64) uint64 {
	h := fnv.New64a()
	writeUint64(h, self)
	sorted := append([]uint64(nil), childSigs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, s := range sorted {
		writeUint64(h, s)
	}
	return h.Sum64()
}

func writeUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash64, s string) {
	_, _ = h.Write([]byte(s))
	_, _ = h.Write([]byte{0})
}
