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

package utreexo

import (
	"github.com/arborist-labs/utreexo/digest"
	"github.com/arborist-labs/utreexo/proof"
)

// Update is the ephemeral record of every parenting edge created by one
// batched Forest.Update call: for each pair (a, b) merged into parent =
// hash_pair(a, b), it records a -> {sibling: b, is_left: false} and
// b -> {sibling: a, is_left: true}.
//
// An Update borrows its Forest exclusively: it is only valid against the
// state that Forest.Update call produced, and becomes stale the moment the
// forest is mutated again. Valid reports whether that is still the case.
// Proof.Refresh checks it on every call and rejects a stale Update with
// proof.ErrInconsistent; Prove does not check it. The staleness check is a forest
// generation counter bumped on every mutating call and stamped onto the
// Update at the moment it is issued.
type Update struct {
	forest     *Forest
	edges      map[digest.Digest]proof.Step
	generation uint64
}

// Hasher returns the hash primitive of the forest this Update was issued
// against. It satisfies proof.RootProvider.
func (u *Update) Hasher() digest.Hasher {
	return u.forest.hasher
}

// RootAt returns the root digest the forest now holds at height, and whether
// one is present. It satisfies proof.RootProvider.
func (u *Update) RootAt(height int) (digest.Digest, bool) {
	return u.forest.RootAt(height)
}

// Edge returns the step recorded for node during this batch, and whether one
// exists. It satisfies proof.Updater.
func (u *Update) Edge(node digest.Digest) (proof.Step, bool) {
	step, ok := u.edges[node]
	return step, ok
}

// Valid reports whether the forest has not been mutated again since this
// Update was issued. It satisfies proof.Updater.
func (u *Update) Valid() bool {
	return u.generation == u.forest.generation
}

// Prove returns the inclusion proof for leaf as of this Update. Starting
// from leaf, it repeatedly follows the edge map, appending each step and
// advancing to the parent, until no edge is found — the point at which leaf
// has folded into a root of the new forest. If leaf was not touched by this
// batch, the edge map has no entry for it and Prove returns an empty-step
// proof, which verifies only if leaf is itself the forest's height-0 root;
// callers must only request proofs for leaves
// they actually inserted (or whose deletion proofs they refreshed) in this
// batch.
func (u *Update) Prove(leaf digest.Digest) proof.Proof {
	p := proof.Proof{Leaf: leaf}
	current := leaf
	for {
		step, ok := u.edges[current]
		if !ok {
			return p
		}
		p.Steps = append(p.Steps, step)
		current = proof.Lift(u.forest.hasher, current, step)
	}
}
