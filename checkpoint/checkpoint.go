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

// Package checkpoint signs and verifies a compact, human-readable summary
// of a forest's committed state, using the note format so a checkpoint can
// be published and later checked without trusting the publisher's channel.
package checkpoint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"golang.org/x/mod/sumdb/note"

	"github.com/arborist-labs/utreexo"
)

// origin identifies the checkpoint format in its first line, the way a note
// body conventionally names the log it came from.
const origin = "utreexo-checkpoint/v1"

// Body renders the checkpoint text for f: the origin line, the population,
// the capacity, and a digest binding every root currently held. Two forests
// with byte-equal Body output have byte-equal roots.
func Body(f *utreexo.Forest) string {
	snapshot := f.Snapshot()

	h := sha256.New()
	for _, r := range snapshot {
		if r != nil {
			h.Write(r[:])
		} else {
			h.Write([]byte{0})
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", origin)
	fmt.Fprintf(&b, "%d\n", f.Population())
	fmt.Fprintf(&b, "%d\n", f.Capacity())
	fmt.Fprintf(&b, "%x\n", h.Sum(nil))
	return b.String()
}

// Sign produces a signed checkpoint for f's current state, co-signed by
// every given signer.
func Sign(f *utreexo.Forest, signers ...note.Signer) ([]byte, error) {
	n := &note.Note{Text: Body(f)}
	signed, err := note.Sign(n, signers...)
	if err != nil {
		return nil, fmt.Errorf("could not sign checkpoint: %w", err)
	}
	return signed, nil
}

// Verify checks a signed checkpoint against the given verifiers and returns
// the verified body text on success.
func Verify(signed []byte, verifiers ...note.Verifier) (string, error) {
	n, err := note.Open(signed, note.VerifierList(verifiers...))
	if err != nil {
		return "", fmt.Errorf("could not verify checkpoint: %w", err)
	}
	return n.Text, nil
}

// Matches reports whether a verified checkpoint body describes the same
// state as f's current Body.
func Matches(body string, f *utreexo.Forest) bool {
	return body == Body(f)
}
