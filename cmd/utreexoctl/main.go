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

// Command utreexoctl builds a forest from a newline-delimited list of leaf
// payloads, reports its resulting roots, and optionally signs a checkpoint
// of the result.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/mod/sumdb/note"

	"github.com/arborist-labs/utreexo"
	"github.com/arborist-labs/utreexo/checkpoint"
	"github.com/arborist-labs/utreexo/digest"
)

func main() {
	var (
		flagInput    string
		flagCapacity int
		flagLog      string
		flagSignKey  string
	)

	pflag.StringVarP(&flagInput, "input", "i", "", "file of newline-delimited leaf payloads to insert")
	pflag.IntVarP(&flagCapacity, "capacity", "c", 32, "number of root heights (holds at most 2^capacity-1 leaves)")
	pflag.StringVarP(&flagLog, "log", "l", "info", "log output level")
	pflag.StringVarP(&flagSignKey, "sign-key", "s", "", "note signing key to produce a signed checkpoint")
	pflag.Parse()

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	level, err := zerolog.ParseLevel(flagLog)
	if err != nil {
		log.Fatal().Err(err).Msg("could not parse log level")
	}
	log = log.Level(level)

	if flagInput == "" {
		log.Fatal().Msg("input file is required")
	}

	leaves, err := readLeaves(flagInput)
	if err != nil {
		log.Fatal().Err(err).Str("input", flagInput).Msg("could not read leaves")
	}

	hasher := digest.SHA256{}
	forest := utreexo.New(hasher, flagCapacity)

	_, err = forest.Update(leaves, nil)
	if err != nil {
		log.Fatal().Err(err).Int("leaves", len(leaves)).Msg("could not commit batch")
	}

	log.Info().
		Uint64("population", forest.Population()).
		Int("capacity", forest.Capacity()).
		Msg("forest committed")

	for h := 0; h < forest.Capacity(); h++ {
		root, ok := forest.RootAt(h)
		if !ok {
			continue
		}
		log.Info().Int("height", h).Str("root", fmt.Sprintf("%x", root)).Msg("root")
	}

	if flagSignKey == "" {
		return
	}

	signer, err := note.NewSigner(flagSignKey)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load signing key")
	}

	signed, err := checkpoint.Sign(forest, signer)
	if err != nil {
		log.Fatal().Err(err).Msg("could not sign checkpoint")
	}

	os.Stdout.Write(signed)
}

func readLeaves(path string) ([]digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	hasher := digest.SHA256{}
	var leaves []digest.Digest
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		leaves = append(leaves, hasher.HashBytes([]byte(line)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not scan file: %w", err)
	}
	return leaves, nil
}
