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

package utreexo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborist-labs/utreexo"
	"github.com/arborist-labs/utreexo/digest"
	"github.com/arborist-labs/utreexo/proof"
)

func TestProveUntouchedLeafReturnsEmptyProof(t *testing.T) {
	h := digest.SHA256{}
	f := utreexo.New(h, 3)

	up, err := f.Update([]digest.Digest{leaf("a"), leaf("b")}, nil)
	require.NoError(t, err)

	ghost := up.Prove(leaf("never-inserted"))
	assert.Empty(t, ghost.Steps)
	assert.False(t, f.Verify(ghost))
}

func TestUpdateBecomesInvalidAfterNextMutation(t *testing.T) {
	h := digest.SHA256{}
	f := utreexo.New(h, 3)

	up1, err := f.Update([]digest.Digest{leaf("a")}, nil)
	require.NoError(t, err)
	assert.True(t, up1.Valid())

	_, err = f.Update([]digest.Digest{leaf("b")}, nil)
	require.NoError(t, err)

	assert.False(t, up1.Valid())
}

func TestRefreshRejectsStaleUpdateHandle(t *testing.T) {
	h := digest.SHA256{}
	f := utreexo.New(h, 3)

	up1, err := f.Update([]digest.Digest{leaf("a")}, nil)
	require.NoError(t, err)
	p := up1.Prove(leaf("a"))

	_, err = f.Update([]digest.Digest{leaf("b")}, nil)
	require.NoError(t, err)

	err = p.Refresh(up1)
	assert.ErrorIs(t, err, proof.ErrInconsistent)
}
