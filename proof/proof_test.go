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

package proof_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborist-labs/utreexo/digest"
	"github.com/arborist-labs/utreexo/proof"
)

// fakeForest is a minimal RootProvider/Updater double: a fixed vector of
// roots indexed by height, a fixed set of edges, and a validity flag.
type fakeForest struct {
	h     digest.Hasher
	roots map[int]digest.Digest
	edges map[digest.Digest]proof.Step
	valid bool
}

func newFakeForest() *fakeForest {
	return &fakeForest{
		h:     digest.SHA256{},
		roots: map[int]digest.Digest{},
		edges: map[digest.Digest]proof.Step{},
		valid: true,
	}
}

func (f *fakeForest) Hasher() digest.Hasher { return f.h }

func (f *fakeForest) RootAt(height int) (digest.Digest, bool) {
	root, ok := f.roots[height]
	return root, ok
}

func (f *fakeForest) Edge(node digest.Digest) (proof.Step, bool) {
	step, ok := f.edges[node]
	return step, ok
}

func (f *fakeForest) Valid() bool { return f.valid }

func leafDigest(s string) digest.Digest {
	return digest.SHA256{}.HashBytes([]byte(s))
}

func TestLiftOrdersBySide(t *testing.T) {
	h := digest.SHA256{}
	cur := leafDigest("current")
	sib := leafDigest("sibling")

	left := proof.Lift(h, cur, proof.Step{Sibling: sib, IsLeft: true})
	right := proof.Lift(h, cur, proof.Step{Sibling: sib, IsLeft: false})

	assert.NotEqual(t, left, right, "IsLeft must flip the pair-hash order")
	assert.Equal(t, digest.PairHash(h, sib, cur), left)
	assert.Equal(t, digest.PairHash(h, cur, sib), right)
}

func TestFoldEmptyProofReturnsLeaf(t *testing.T) {
	h := digest.SHA256{}
	leaf := leafDigest("solo")

	got := proof.Fold(h, proof.Proof{Leaf: leaf})
	assert.Equal(t, leaf, got)
}

func TestFoldWalksEverySteps(t *testing.T) {
	h := digest.SHA256{}
	leaf := leafDigest("l0")
	s0 := proof.Step{Sibling: leafDigest("s0"), IsLeft: false}
	s1 := proof.Step{Sibling: leafDigest("s1"), IsLeft: true}

	p := proof.Proof{Leaf: leaf, Steps: []proof.Step{s0, s1}}

	want := proof.Lift(h, proof.Lift(h, leaf, s0), s1)
	assert.Equal(t, want, proof.Fold(h, p))
}

func TestVerify(t *testing.T) {
	leaf := leafDigest("alice")
	sib := leafDigest("bob")
	step := proof.Step{Sibling: sib, IsLeft: false}

	f := newFakeForest()
	f.roots[1] = digest.PairHash(f.h, leaf, sib)

	good := proof.Proof{Leaf: leaf, Steps: []proof.Step{step}}
	require.True(t, proof.Verify(f, good))

	bad := proof.Proof{Leaf: leaf, Steps: []proof.Step{{Sibling: leafDigest("mallory"), IsLeft: false}}}
	assert.False(t, proof.Verify(f, bad))
}

func TestVerifyRejectsMissingRootHeight(t *testing.T) {
	f := newFakeForest()
	p := proof.Proof{Leaf: leafDigest("x"), Steps: []proof.Step{{Sibling: leafDigest("y")}}}
	assert.False(t, proof.Verify(f, p))
}

func TestRefreshRejectsStaleHandle(t *testing.T) {
	f := newFakeForest()
	f.valid = false

	p := &proof.Proof{Leaf: leafDigest("x")}
	err := p.Refresh(f)
	assert.ErrorIs(t, err, proof.ErrInconsistent)
}

func TestRefreshUnaffectedPathReusesSteps(t *testing.T) {
	f := newFakeForest()
	leaf := leafDigest("unaffected")
	sib := leafDigest("sibling")
	step := proof.Step{Sibling: sib, IsLeft: true}
	f.roots[1] = proof.Lift(f.h, leaf, step)

	p := &proof.Proof{Leaf: leaf, Steps: []proof.Step{step}}
	require.NoError(t, p.Refresh(f))
	assert.Equal(t, []proof.Step{step}, p.Steps)
}

func TestRefreshMergeExtendsPath(t *testing.T) {
	f := newFakeForest()
	leaf := leafDigest("merged")
	oldSib := leafDigest("old-sibling")
	oldStep := proof.Step{Sibling: oldSib, IsLeft: false}
	oldParent := proof.Lift(f.h, leaf, oldStep)

	newSib := leafDigest("new-sibling")
	newStep := proof.Step{Sibling: newSib, IsLeft: true}
	f.edges[oldParent] = newStep
	f.roots[2] = proof.Lift(f.h, oldParent, newStep)

	p := &proof.Proof{Leaf: leaf, Steps: []proof.Step{oldStep}}
	require.NoError(t, p.Refresh(f))
	require.Equal(t, 2, len(p.Steps))
	assert.Equal(t, oldStep, p.Steps[0])
	assert.Equal(t, newStep, p.Steps[1])
}

func TestRefreshSiblingDeletedTruncatesPath(t *testing.T) {
	f := newFakeForest()
	leaf := leafDigest("survivor")
	f.roots[0] = leaf

	oldSib := leafDigest("removed-sibling")
	p := &proof.Proof{Leaf: leaf, Steps: []proof.Step{{Sibling: oldSib, IsLeft: false}}}

	require.NoError(t, p.Refresh(f))
	assert.Empty(t, p.Steps)
}

func TestRefreshCompletesWithoutMatchingRoot(t *testing.T) {
	f := newFakeForest()
	leaf := leafDigest("dangling")
	sib := leafDigest("still-there")
	step := proof.Step{Sibling: sib, IsLeft: false}

	p := &proof.Proof{Leaf: leaf, Steps: []proof.Step{step}}
	require.NoError(t, p.Refresh(f))
	assert.Equal(t, []proof.Step{step}, p.Steps)
}
