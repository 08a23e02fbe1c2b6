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

// Package codec encodes Proof values and Forest snapshots for storage or
// transport. It is a collaborator, not part of the core accumulator
// semantics: the forest and proof packages know nothing about it.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/arborist-labs/utreexo/digest"
	"github.com/arborist-labs/utreexo/proof"
)

// Codec encodes and decodes Proof and Forest values using CBOR encoding and
// zstandard compression.
type Codec struct {
	encoder cbor.EncMode
	decoder cbor.DecMode

	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// New creates a Codec with canonical CBOR encoding and default-speed
// zstandard compression.
func New() (*Codec, error) {
	encOptions := cbor.CanonicalEncOptions()
	encoder, err := encOptions.EncMode()
	if err != nil {
		return nil, fmt.Errorf("could not build cbor encoder: %w", err)
	}

	decOptions := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}
	decoder, err := decOptions.DecMode()
	if err != nil {
		return nil, fmt.Errorf("could not build cbor decoder: %w", err)
	}

	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("could not build zstd compressor: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("could not build zstd decompressor: %w", err)
	}

	c := Codec{
		encoder:      encoder,
		decoder:      decoder,
		compressor:   compressor,
		decompressor: decompressor,
	}
	return &c, nil
}

type wireStep struct {
	Sibling digest.Digest `cbor:"1,keyasint"`
	IsLeft  bool          `cbor:"2,keyasint"`
}

type wireProof struct {
	Leaf  digest.Digest `cbor:"1,keyasint"`
	Steps []wireStep    `cbor:"2,keyasint"`
}

// EncodeProof serializes p into a compressed CBOR-encoded byte slice, per
// the wire shape of a step count, the leaf, and the ordered steps.
func (c *Codec) EncodeProof(p proof.Proof) ([]byte, error) {
	w := wireProof{Leaf: p.Leaf, Steps: make([]wireStep, len(p.Steps))}
	for i, s := range p.Steps {
		w.Steps[i] = wireStep{Sibling: s.Sibling, IsLeft: s.IsLeft}
	}

	data, err := c.encoder.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("could not encode proof: %w", err)
	}
	return c.compressor.EncodeAll(data, nil), nil
}

// DecodeProof parses a byte slice produced by EncodeProof back into a Proof.
func (c *Codec) DecodeProof(compressed []byte) (proof.Proof, error) {
	data, err := c.decompressor.DecodeAll(compressed, nil)
	if err != nil {
		return proof.Proof{}, fmt.Errorf("could not decompress proof: %w", err)
	}

	var w wireProof
	if err := c.decoder.Unmarshal(data, &w); err != nil {
		return proof.Proof{}, fmt.Errorf("could not decode proof: %w", err)
	}

	p := proof.Proof{Leaf: w.Leaf, Steps: make([]proof.Step, len(w.Steps))}
	for i, s := range w.Steps {
		p.Steps[i] = proof.Step{Sibling: s.Sibling, IsLeft: s.IsLeft}
	}
	return p, nil
}

type wireForest struct {
	Capacity int              `cbor:"1,keyasint"`
	Roots    []*digest.Digest `cbor:"2,keyasint"`
}

// EncodeSnapshot serializes a forest's capacity and root vector, as returned
// by Forest.Snapshot, into a compressed CBOR-encoded byte slice.
func (c *Codec) EncodeSnapshot(capacity int, roots []*digest.Digest) ([]byte, error) {
	w := wireForest{Capacity: capacity, Roots: roots}
	data, err := c.encoder.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("could not encode forest snapshot: %w", err)
	}
	return c.compressor.EncodeAll(data, nil), nil
}

// DecodeSnapshot parses a byte slice produced by EncodeSnapshot back into a
// capacity and root vector, ready to pass to utreexo.Restore.
func (c *Codec) DecodeSnapshot(compressed []byte) (int, []*digest.Digest, error) {
	data, err := c.decompressor.DecodeAll(compressed, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("could not decompress forest snapshot: %w", err)
	}

	var w wireForest
	if err := c.decoder.Unmarshal(data, &w); err != nil {
		return 0, nil, fmt.Errorf("could not decode forest snapshot: %w", err)
	}
	return w.Capacity, w.Roots, nil
}
