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

// Package proof contains the data records describing a Merkle inclusion
// path through a forest of perfect binary trees, along with the folding
// logic shared by forest verification and proof refresh.
//
// The package is deliberately decoupled from the forest that produces and
// consumes these records: it only talks to the forest through the
// RootProvider and Updater interfaces, which keeps this package importable
// by the root accumulator package without an import cycle.
package proof

import (
	"errors"

	"github.com/arborist-labs/utreexo/digest"
)

// Step describes a single sibling on an inclusion path. Sibling is the
// digest standing at the other side of the node being lifted at this
// height; IsLeft records which side it sits on, which in turn fixes the
// pair-hash order used to lift the path: hash(sibling, current) if IsLeft,
// hash(current, sibling) otherwise.
type Step struct {
	Sibling digest.Digest
	IsLeft  bool
}

// Proof is a leaf together with the ordered siblings that fold it, via
// repeated pair-hashing, into the root of the perfect tree that committed
// it. Steps[0] is the sibling at the leaf's own height; len(Steps) equals
// the height of the accepting root, which is also that root's row index in
// the forest.
type Proof struct {
	Leaf  digest.Digest
	Steps []Step
}

// Lift folds current one level up using step, returning the parent digest.
func Lift(h digest.Hasher, current digest.Digest, step Step) digest.Digest {
	if step.IsLeft {
		return digest.PairHash(h, step.Sibling, current)
	}
	return digest.PairHash(h, current, step.Sibling)
}

// Fold walks p.Leaf through every step of p, returning the digest reached at
// the top of the path. It performs no validation against any forest; callers
// compare the result against the expected root themselves (see Verify).
func Fold(h digest.Hasher, p Proof) digest.Digest {
	current := p.Leaf
	for _, step := range p.Steps {
		current = Lift(h, current, step)
	}
	return current
}

// RootProvider is the minimal view of a forest that folding logic needs: the
// hash primitive in use, and the current root at a given height, if any.
type RootProvider interface {
	Hasher() digest.Hasher
	RootAt(height int) (digest.Digest, bool)
}

// Verify reports whether p folds to the root held at height len(p.Steps) in
// rp. It rejects proofs whose length addresses a height with no root.
func Verify(rp RootProvider, p Proof) bool {
	root, ok := rp.RootAt(len(p.Steps))
	if !ok {
		return false
	}
	return Fold(rp.Hasher(), p) == root
}

// Updater is the view of a batched forest update that Refresh needs: the
// same root lookups as RootProvider, plus the edges created by that update
// (the parenting relationship recorded for every pair merged during the
// batch).
type Updater interface {
	RootProvider
	// Edge returns the step recorded for node, and whether one exists. An
	// edge exists for every digest that was one half of a pair merged during
	// the update that produced this Updater.
	Edge(node digest.Digest) (Step, bool)
	// Valid reports whether this Updater handle is still live, i.e. whether
	// the forest it was issued against has not been mutated again since. A
	// stale handle means its edges and roots no longer describe the forest's
	// current state.
	Valid() bool
}

// ErrInconsistent indicates that Refresh was called with a stale Updater: one
// issued by an update call that is no longer the forest's most recent
// mutation. This should never occur for an Updater used before the forest's
// next mutating call, as the contract requires; seeing it means a caller let
// an Update outlive its scope.
var ErrInconsistent = errors.New("proof: inconsistent refresh state (stale update handle)")

// Refresh mutates p in place so that it verifies again against u's forest,
// after a batched update that may have reorganized the tree p was issued
// against. It walks a cursor through the current digest and an index into
// p.Steps in lockstep, handling the four topological cases a batched update
// can produce for any single leaf:
//
//   - the leaf's path is untouched: steps are reused unchanged;
//   - the leaf's subtree merged upward: new edges extend the path;
//   - a sibling subtree was deleted out from under the leaf: the path
//     truncates to meet a now-reachable root sooner;
//   - the leaf's new root becomes visible directly: the path empties.
//
// The walk considers len(p.Steps)+1 positions, a bound fixed before the walk
// starts even though p.Steps itself may grow or shrink while walking it.
func (p *Proof) Refresh(u Updater) error {
	if !u.Valid() {
		return ErrInconsistent
	}

	h := u.Hasher()
	current := p.Leaf
	n := len(p.Steps)

	for i := 0; i <= n; i++ {
		if root, ok := u.RootAt(i); ok && root == current {
			p.Steps = p.Steps[:i]
			return nil
		}

		step, ok := u.Edge(current)
		switch {
		case ok:
			p.Steps = append(p.Steps[:i], step)
		case i == len(p.Steps):
			return nil
		default:
			step = p.Steps[i]
		}

		current = Lift(h, current, step)
	}

	return nil
}
