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

// Package digest defines the pluggable hash primitive used by the
// accumulator. The accumulator never hashes leaf payloads itself: callers
// pre-hash their data with HashBytes and only ever hand Digests to the
// forest. The forest composes pairs of digests into parents with PairHash.
package digest

import "crypto/sha256"

// Size is the width, in bytes, of a Digest. The accumulator is agnostic to
// the concrete hash function as long as it always produces Size bytes.
const Size = sha256.Size

// Digest is a fixed-width opaque hash value. It is a value type: callers are
// free to copy it, use it as a map key, and compare it with ==.
type Digest [Size]byte

// Hasher is the pluggable one-way digest capability. It is injected at
// Forest construction time rather than assumed globally, so that callers can
// swap in any collision-resistant, deterministic byte-in/fixed-width-out
// function. SHA-256 is the nominal default (see SHA256).
type Hasher interface {
	// HashBytes returns the digest of an arbitrary byte string. Determinism
	// and collision resistance are preconditions the accumulator's soundness
	// reduces to; HashBytes itself never errors.
	HashBytes(data []byte) Digest
}

// SHA256 is the nominal default Hasher, backed by crypto/sha256.
type SHA256 struct{}

// HashBytes implements Hasher.
func (SHA256) HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}

// PairHash computes the deterministic pair-hash of two digests, defined as
// H(left.bytes || right.bytes). It is the sole way interior forest nodes are
// derived from their children.
func PairHash(h Hasher, left, right Digest) Digest {
	var buf [2 * Size]byte
	copy(buf[:Size], left[:])
	copy(buf[Size:], right[:])
	return h.HashBytes(buf[:])
}
