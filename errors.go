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

import "errors"

// ErrInvalidProof is returned by Update when a deletion proof does not fold
// to a root currently held by the forest, or whose length addresses a height
// the forest cannot hold. The forest is left unchanged.
var ErrInvalidProof = errors.New("utreexo: proof does not fold to a current root")

// ErrOverflow is returned by Update when the batch would merge a root into a
// height at or beyond the forest's capacity. The forest is left unchanged.
var ErrOverflow = errors.New("utreexo: resulting forest would exceed capacity")
