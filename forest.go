// Copyright 2024 The Arborist Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package utreexo implements a dynamic hash accumulator: a succinct
// commitment to a multiset of digests, held as a forest of perfect binary
// Merkle trees indexed by height. Batched insertion and deletion are folded
// into a single pass over a staged working forest, which also yields the
// parenting edges needed to issue and refresh inclusion proofs.
//
// The forest never hashes leaf payloads itself; callers pre-hash their data
// with a digest.Hasher and hand the forest only digest.Digest values.
package utreexo

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/arborist-labs/utreexo/digest"
	"github.com/arborist-labs/utreexo/proof"
)

// Forest owns the committed state of the accumulator: one optional root
// digest per height, 0 through capacity-1. A present root at height h commits
// exactly 2^h leaves; its presence mirrors bit h of the current population.
type Forest struct {
	hasher     digest.Hasher
	capacity   int
	roots      []*digest.Digest
	generation uint64
}

// New creates a forest whose root vector is preallocated to length capacity,
// all entries absent. capacity bounds the maximum representable population at
// 2^capacity - 1 leaves; a batch that would produce a root at height >=
// capacity fails with ErrOverflow instead of growing the forest.
func New(hasher digest.Hasher, capacity int) *Forest {
	return &Forest{
		hasher:   hasher,
		capacity: capacity,
		roots:    make([]*digest.Digest, capacity),
	}
}

// Hasher returns the hash primitive this forest was constructed with. It
// satisfies proof.RootProvider.
func (f *Forest) Hasher() digest.Hasher {
	return f.hasher
}

// RootAt returns the root digest at height, and whether one is present. It
// satisfies proof.RootProvider.
func (f *Forest) RootAt(height int) (digest.Digest, bool) {
	if height < 0 || height >= len(f.roots) || f.roots[height] == nil {
		return digest.Digest{}, false
	}
	return *f.roots[height], true
}

// Capacity returns the number of root heights this forest can hold: roots
// live at heights 0 through Capacity()-1.
func (f *Forest) Capacity() int {
	return f.capacity
}

// Snapshot returns a defensive copy of the forest's roots, suitable for
// serialization by the codec package. Mutating the result has no effect on
// the forest.
func (f *Forest) Snapshot() []*digest.Digest {
	out := make([]*digest.Digest, len(f.roots))
	for h, r := range f.roots {
		if r != nil {
			v := *r
			out[h] = &v
		}
	}
	return out
}

// Restore builds a Forest directly from a capacity and root vector, such as
// one produced by Snapshot and round-tripped through the codec package. It
// performs no validation of the supplied roots against any leaf history.
func Restore(hasher digest.Hasher, capacity int, roots []*digest.Digest) *Forest {
	r := make([]*digest.Digest, capacity)
	copy(r, roots)
	return &Forest{hasher: hasher, capacity: capacity, roots: r}
}

// Population returns the number of leaves currently committed, recovered
// from the bitmap of present root heights.
func (f *Forest) Population() uint64 {
	var n uint64
	for h, r := range f.roots {
		if r != nil {
			n |= uint64(1) << uint(h)
		}
	}
	return n
}

// Verify reports whether p folds to the root the forest currently holds at
// height len(p.Steps).
func (f *Forest) Verify(p proof.Proof) bool {
	return proof.Verify(f, p)
}

// VerifyAll verifies every proof in ps against the forest and returns a
// multierror aggregating every failure, or nil if all verify. Unlike Verify,
// which a caller uses on the hot path for a single proof, VerifyAll is meant
// for batch auditing, where seeing every failing leaf at once matters more
// than failing fast.
func (f *Forest) VerifyAll(ps []proof.Proof) error {
	var result *multierror.Error
	for i, p := range ps {
		if !f.Verify(p) {
			result = multierror.Append(result, fmt.Errorf("leaf %d (%x): %w", i, p.Leaf, ErrInvalidProof))
		}
	}
	return result.ErrorOrNil()
}

// Update folds a batch of insertions and deletions into the forest in a
// single pass:
//
//  1. stage a working forest W, one bucket per height, seeded from the
//     current roots;
//  2. apply every deletion proof against W, spilling siblings into their
//     buckets as each proof is walked and validated;
//  3. append insertions to W[0] in caller order;
//  4. repeatedly pair off the two oldest entries of each bucket from height
//     0 upward, recording the parenting edge created by each pairing;
//  5. reject the batch with ErrOverflow if any bucket at or beyond capacity
//     still holds an entry, or any bucket holds more than one;
//  6. commit W back into the forest's roots.
//
// On any error, the forest is left byte-for-byte unchanged: all work happens
// on the staged W, and roots is only overwritten after every check passes.
func (f *Forest) Update(insertions []digest.Digest, deletions []proof.Proof) (*Update, error) {
	W := make([][]digest.Digest, len(f.roots)+1)
	for h, r := range f.roots {
		if r != nil {
			W[h] = []digest.Digest{*r}
		}
	}

	for _, d := range deletions {
		if err := f.applyDeletion(W, d); err != nil {
			return nil, err
		}
	}

	W[0] = append(W[0], insertions...)

	edges := make(map[digest.Digest]proof.Step)
	for h := 0; h < len(W); h++ {
		for len(W[h]) >= 2 {
			a, b := W[h][0], W[h][1]
			W[h] = W[h][2:]

			parent := digest.PairHash(f.hasher, a, b)
			if h+1 >= len(W) {
				W = append(W, nil)
			}
			W[h+1] = append(W[h+1], parent)

			edges[a] = proof.Step{Sibling: b, IsLeft: false}
			edges[b] = proof.Step{Sibling: a, IsLeft: true}
		}
	}

	for h, bucket := range W {
		if len(bucket) > 1 {
			return nil, ErrOverflow
		}
		if len(bucket) == 1 && h >= f.capacity {
			return nil, ErrOverflow
		}
	}

	newRoots := make([]*digest.Digest, f.capacity)
	for h := 0; h < f.capacity && h < len(W); h++ {
		if len(W[h]) == 1 {
			d := W[h][0]
			newRoots[h] = &d
		}
	}

	f.roots = newRoots
	f.generation++

	return &Update{forest: f, edges: edges, generation: f.generation}, nil
}

// applyDeletion walks proof p from its leaf upward, spilling unconsumed
// siblings into W and consuming the first matching entry it finds, per the
// batched update's deletion semantics. The walk covers every height the
// proof touches, including its final height n, where the matching entry is
// the root bucket W[n] seeded at the start of Update rather than a spilled
// sibling. W is mutated in place; f.roots is read-only throughout and never
// touched until the caller commits.
func (f *Forest) applyDeletion(W [][]digest.Digest, p proof.Proof) error {
	n := len(p.Steps)
	if n >= len(f.roots) || f.roots[n] == nil {
		return ErrInvalidProof
	}

	current := p.Leaf
	consumed := false

	for height, step := range p.Steps {
		if !consumed {
			if idx := indexOfDigest(W[height], current); idx >= 0 {
				W[height] = removeDigestAt(W[height], idx)
				consumed = true
			} else {
				W[height] = append(W[height], step.Sibling)
			}
		}
		current = proof.Lift(f.hasher, current, step)
	}

	if root := f.roots[n]; root == nil || *root != current {
		return ErrInvalidProof
	}

	if !consumed {
		idx := indexOfDigest(W[n], current)
		if idx < 0 {
			return ErrInvalidProof
		}
		W[n] = removeDigestAt(W[n], idx)
	}

	return nil
}

func indexOfDigest(bucket []digest.Digest, d digest.Digest) int {
	for i, v := range bucket {
		if v == d {
			return i
		}
	}
	return -1
}

func removeDigestAt(bucket []digest.Digest, i int) []digest.Digest {
	return append(bucket[:i], bucket[i+1:]...)
}
