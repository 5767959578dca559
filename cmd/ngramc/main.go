// Copyright 2025 The WordSplit Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command ngramc compiles "ngram<TAB>frequency" text files into the binary
// chunk directory wordsplit loads.
//
//	ngramc -out data unigrams.txt bigrams.txt trigrams.txt
//
// Keys are normalized the way the store expects them and duplicate keys are
// summed. Entries are written most frequent first.
package main

import (
	"cmp"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/internal/logger"
	"github.com/bastiangx/wordsplit/internal/utils"
	"github.com/bastiangx/wordsplit/pkg/config"
	"github.com/bastiangx/wordsplit/pkg/ngram"
)

func main() {
	defaults := config.DefaultConfig()
	out := flag.String("out", defaults.Model.Path, "Output chunk directory")
	chunkSize := flag.Int("chunk", defaults.Model.ChunkSize, "Entries per chunk file")
	debug := flag.Bool("d", false, "Toggle debug mode")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ngramc [flags] <file.txt> [file.txt...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	logger.Setup(*debug)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	entries, err := readAll(flag.Args())
	if err != nil {
		log.Fatalf("Failed to read model: %v", err)
	}
	if len(entries) > ngram.MaxEntries {
		log.Fatalf("Model has %d entries, at most %d are supported", len(entries), ngram.MaxEntries)
	}

	paths, err := ngram.WriteChunks(*out, entries, *chunkSize)
	if err != nil {
		log.Fatalf("Failed to write chunks: %v", err)
	}
	log.Infof("Wrote %s entries into %d chunks in %s", utils.FormatWithCommas(len(entries)), len(paths), *out)
}

func readAll(files []string) ([]ngram.Entry, error) {
	sums := make(map[string]uint64)
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		entries, err := ngram.ReadText(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		log.Debugf("Read %d entries from %s", len(entries), name)
		for _, e := range entries {
			sums[e.Key] += uint64(e.Freq)
		}
	}

	entries := make([]ngram.Entry, 0, len(sums))
	for key, freq := range sums {
		if freq > math.MaxUint32 {
			log.Warnf("Frequency of %q saturated at %d", key, uint32(math.MaxUint32))
			freq = math.MaxUint32
		}
		entries = append(entries, ngram.Entry{Key: key, Freq: uint32(freq)})
	}
	slices.SortFunc(entries, func(a, b ngram.Entry) int {
		if c := cmp.Compare(b.Freq, a.Freq); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return entries, nil
}
